// Package m is the glue which holds all the other packages in this project
// together. While other packages in this project are intended to be able to be
// used separately and largely independently, this package combines them in ways
// which I specifically like.
package m

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Nick-ccq/k10-base64/mcfg"
	"github.com/Nick-ccq/k10-base64/mcmp"
	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/Nick-ccq/k10-base64/merr"
	"github.com/Nick-ccq/k10-base64/mlog"
	"github.com/Nick-ccq/k10-base64/mrun"
)

type cmpKey int

const (
	cmpKeyCfgSrc cmpKey = iota
)

// EnvPrefix is the prefix expected on all environment variables used for
// configuration, e.g. K10B64_LOG_LEVEL.
const EnvPrefix = "K10B64"

// ConfigEnv is the environment variable which may hold the path of a YAML
// configuration file. If it's not set, or the file doesn't exist, then no file
// is used.
const ConfigEnv = EnvPrefix + "_CONFIG"

// RootComponent returns a Component which should be used as the root
// Component when implementing most processes. args are the command-line
// arguments which will be used for configuration, not including the program
// name (or any sub-command).
//
// The returned Component will automatically handle setting up global
// configuration parameters like "log-level". Configuration is read, in order
// of increasing precedence, from the YAML file named by ConfigEnv, environment
// variables prefixed with EnvPrefix, and the command-line.
func RootComponent(args []string) *mcmp.Component {
	cmp := new(mcmp.Component)

	if args == nil {
		args = []string{}
	}
	cmp.SetValue(cmpKeyCfgSrc, mcfg.Source(mcfg.Sources{
		&mcfg.SourceYAML{Path: os.Getenv(ConfigEnv), Optional: true},
		&mcfg.SourceEnv{Prefix: EnvPrefix},
		&mcfg.SourceCLI{Args: args},
	}))

	// set up log level handling
	logger := mlog.NewLogger()
	mlog.SetLogger(cmp, logger)

	logLevelStr := mcfg.String(cmp, "log-level",
		mcfg.ParamDefault("info"),
		mcfg.ParamUsage("Maximum log level which will be printed"))
	logText := mcfg.Bool(cmp, "log-text",
		mcfg.ParamUsage("Write logs as human readable text rather than JSON"))
	mrun.InitHook(cmp, func(context.Context) error {
		logLevel := mlog.LevelFromString(*logLevelStr)
		if logLevel == nil {
			ctx := mctx.Annotate(cmp.Context(), "log-level", *logLevelStr)
			return merr.New("invalid log level", ctx)
		}
		logger := mlog.GetLogger(cmp)
		logger.SetMaxLevel(logLevel)
		if *logText {
			logger.SetHandler(mlog.NewTextHandler(os.Stderr))
		}
		// resets any loggers derived with From before now
		mlog.SetLogger(cmp, logger)
		return nil
	})

	return cmp
}

// Init performs the work of populating configuration parameters and
// triggering the init event on a Component created by RootComponent.
func Init(ctx context.Context, cmp *mcmp.Component) error {
	src, _ := cmp.Value(cmpKeyCfgSrc).(mcfg.Source)
	if src == nil {
		return merr.New("Component not sourced from m package", cmp.Context())
	}

	// no logging should happen before populate, primarily because log-level
	// hasn't been populated yet, but also because it makes help output on cli
	// look weird.
	if err := mcfg.Populate(cmp, src); err != nil {
		return merr.Wrap(err, ctx)
	} else if err := mrun.Init(ctx, cmp); err != nil {
		return merr.Wrap(err, ctx)
	}
	mlog.From(cmp).Debug("initialization completed successfully", ctx)
	return nil
}

// MustInit is like Init, except that any errors will result in a Fatal log.
func MustInit(cmp *mcmp.Component) {
	if err := Init(context.Background(), cmp); err != nil {
		mlog.From(cmp).Fatal("initialization failed", merr.Context(err))
	}
}

// MustShutdown triggers the shutdown event on the Component. Any errors will
// result in a Fatal log.
func MustShutdown(cmp *mcmp.Component) {
	if err := mrun.Shutdown(context.Background(), cmp); err != nil {
		mlog.From(cmp).Fatal("shutdown failed", merr.Context(err))
	}
	mlog.From(cmp).Info("shutdown completed successfully")
}

// Exec calls MustInit on the Component, waits for an interrupt or terminate
// signal, and then calls MustShutdown. It blocks until the shutdown event is
// done.
func Exec(cmp *mcmp.Component) {
	MustInit(cmp)
	{
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		s := <-ch
		mlog.From(cmp).Info("signal received, shutting down",
			mctx.Annotated("signal", s.String()))
	}
	MustShutdown(cmp)
}
