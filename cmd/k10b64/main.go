package main

/*
	k10b64 encodes camera frames and image files on the device to base64, for
	embedding in text channels such as serial logs, JSON payloads and http
	bodies.

	Usage:

		k10b64 file --path=img.png
		k10b64 frame --frame-path=/dev/shm/frame.jpg
		k10b64 serve --frame-path=/dev/shm/frame.jpg --root=/sdcard [--redis-enable] [--mysql-enable]
		k10b64 archive

	file and frame write the encoding to stdout. serve runs an http server
	with GET /frame and GET /file?path=... endpoints, optionally publishing
	each payload to a redis stream and archiving it to MySQL. archive consumes
	payloads from the redis stream and archives them to MySQL.

	Every sub-command accepts -h for a list of its parameters. Parameters may
	also be given as K10B64_ prefixed environment variables, or in the YAML
	file named by K10B64_CONFIG.
*/

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Nick-ccq/k10-base64/m"
	"github.com/Nick-ccq/k10-base64/mcfg"
	"github.com/Nick-ccq/k10-base64/mcmp"
	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/Nick-ccq/k10-base64/mdb/mredis"
	"github.com/Nick-ccq/k10-base64/mdb/msql"
	"github.com/Nick-ccq/k10-base64/merr"
	"github.com/Nick-ccq/k10-base64/mhttp"
	"github.com/Nick-ccq/k10-base64/mlog"
	"github.com/Nick-ccq/k10-base64/mpipe"
	"github.com/Nick-ccq/k10-base64/mrun"
	"github.com/Nick-ccq/k10-base64/msrc"
)

const streamKey = "k10b64:payloads"

const usage = `usage: k10b64 <file|frame|serve|archive> [-h] [--param=value ...]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmp := m.RootComponent(os.Args[2:])
	switch os.Args[1] {
	case "file":
		runOnce(cmp, fileCmd(cmp))
	case "frame":
		runOnce(cmp, frameCmd(cmp))
	case "serve":
		serveCmd(cmp)
		m.Exec(cmp)
	case "archive":
		runOnce(cmp, archiveCmd(cmp))
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// runOnce initializes the Component, calls fn, and shuts the Component down.
// If fn returns an error it is logged and the process exits with 1.
func runOnce(cmp *mcmp.Component, fn func(context.Context) error) {
	m.MustInit(cmp)
	err := fn(context.Background())
	m.MustShutdown(cmp)
	if err != nil {
		mlog.From(cmp).Error("command failed", merr.Context(err))
		os.Exit(1)
	}
}

type countWriter struct {
	io.Writer
	n int64
}

func (cw *countWriter) Write(b []byte) (int, error) {
	n, err := cw.Writer.Write(b)
	cw.n += int64(n)
	return n, err
}

// encodeTo runs a Pipeline over src, writing the encoding to out followed by
// a newline. Output is buffered, and nothing is written if the source fails
// before the buffer fills. If the source fails after that, the returned error
// is annotated with outputIncomplete and the number of characters which made
// it to out.
func encodeTo(ctx context.Context, cmp *mcmp.Component, src msrc.Source, out io.Writer) error {
	cw := &countWriter{Writer: out}
	w := bufio.NewWriter(cw)
	p := &mpipe.Pipeline{Source: src, Logger: mlog.From(cmp)}
	res, err := p.Run(ctx, w)
	if err != nil {
		if cw.n > 0 {
			// terminate the partial line so it isn't mistaken for a
			// complete encoding followed by more output
			fmt.Fprintln(out)
			return merr.Wrap(err, mctx.Annotate(ctx,
				"outputIncomplete", true,
				"charsWritten", cw.n,
			))
		}
		return err
	}
	fmt.Fprintln(w)
	if err := w.Flush(); err != nil {
		return merr.Wrap(err, ctx)
	}
	mlog.From(cmp).Info("encoded", mctx.Annotate(ctx,
		"bytes", res.Bytes,
		"chars", res.Chars,
		"digest", res.Digest,
	))
	return nil
}

func fileCmd(cmp *mcmp.Component) func(context.Context) error {
	path := mcfg.String(cmp, "path",
		mcfg.ParamRequired(),
		mcfg.ParamUsage("Path of the file to encode"))
	blockSize := mcfg.Int(cmp, "block-size",
		mcfg.ParamDefault(msrc.DefaultBlockSize),
		mcfg.ParamUsage("Number of bytes read from the file at a time"))
	return func(ctx context.Context) error {
		ctx = mctx.Annotate(ctx, "sourceKind", mpipe.SourceFile, "path", *path)
		return encodeTo(ctx, cmp, msrc.NewFileSource(*path, *blockSize), os.Stdout)
	}
}

func frameCmd(cmp *mcmp.Component) func(context.Context) error {
	framePath := mcfg.String(cmp, "frame-path",
		mcfg.ParamRequired(),
		mcfg.ParamUsage("Path of the snapshot file the camera driver writes frames to"))
	return func(ctx context.Context) error {
		ctx = mctx.Annotate(ctx, "sourceKind", mpipe.SourceCamera, "framePath", *framePath)
		cam := msrc.NewFileCamera(*framePath)
		return encodeTo(ctx, cmp, msrc.NewCameraSource(cam), os.Stdout)
	}
}

func serveCmd(cmp *mcmp.Component) {
	framePath := mcfg.String(cmp, "frame-path",
		mcfg.ParamUsage("Path of the snapshot file the camera driver writes frames to. If not set then /frame always fails"))
	root := mcfg.String(cmp, "root",
		mcfg.ParamDefault("."),
		mcfg.ParamUsage("Directory which /file paths are relative to"))
	publicFiles := mcfg.Bool(cmp, "public-files",
		mcfg.ParamUsage("Serve /file to clients connecting from public addresses"))
	blockSize := mcfg.Int(cmp, "block-size",
		mcfg.ParamDefault(msrc.DefaultBlockSize),
		mcfg.ParamUsage("Number of bytes read from a file at a time"))

	redis := mredis.InstRedis(cmp, mredis.RedisOptional())
	stream := mredis.InstStream(redis, streamKey)
	sql := msql.InstMySQL(cmp, "k10b64", msql.MySQLOptional())
	archive := msql.NewArchive(sql)

	h := mhttp.NewHandler(nil, "")
	mrun.InitHook(cmp, func(ctx context.Context) error {
		if *framePath != "" {
			h.Camera = msrc.NewFileCamera(*framePath)
		}
		h.Root = *root
		h.PublicFiles = *publicFiles
		h.BlockSize = *blockSize
		h.Logger = mlog.From(cmp)

		if redis.Enabled() {
			h.Sinks = append(h.Sinks, stream.Publish)
		}
		if sql.Enabled() {
			if err := archive.EnsureSchema(ctx); err != nil {
				return err
			}
			h.Sinks = append(h.Sinks, archive.Store)
		}
		return nil
	})

	mhttp.MListenAndServe(cmp, h)
}

func archiveCmd(cmp *mcmp.Component) func(context.Context) error {
	redis := mredis.InstRedis(cmp)
	stream := mredis.InstStream(redis, streamKey)
	sql := msql.InstMySQL(cmp, "k10b64")
	archive := msql.NewArchive(sql)

	return func(ctx context.Context) error {
		if err := archive.EnsureSchema(ctx); err != nil {
			return err
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		logger := mlog.From(cmp)
		for {
			select {
			case s := <-sigCh:
				logger.Info("signal received, stopping", mctx.Annotated("signal", s.String()))
				return nil
			default:
			}

			entry, ok, err := stream.Next()
			if err != nil {
				return err
			} else if !ok {
				continue
			}

			entryCtx := mctx.Annotate(ctx, "id", entry.ID.String(), "name", entry.Payload.Name)
			if err := archive.Store(entryCtx, entry.Payload); err != nil {
				logger.Warn("failed to archive payload, will retry", merr.Context(err))
				entry.Nack()
				continue
			}
			if err := entry.Ack(); err != nil {
				return err
			}
			logger.Info("payload archived", entryCtx)
		}
	}
}
