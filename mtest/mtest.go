// Package mtest contains types and functions which are useful when writing
// tests against Components.
package mtest

import (
	"context"
	"os"
	. "testing"

	"github.com/Nick-ccq/k10-base64/mcfg"
	"github.com/Nick-ccq/k10-base64/mcmp"
	"github.com/Nick-ccq/k10-base64/mlog"
	"github.com/Nick-ccq/k10-base64/mrun"
)

type envCmpKey int

// Component returns a new root Component which is intended to be used in a
// test. Its Logger writes human readable output to stdout at debug level.
func Component() *mcmp.Component {
	cmp := new(mcmp.Component)
	logger := mlog.NewLogger()
	logger.SetHandler(mlog.NewTextHandler(os.Stdout))
	logger.SetMaxLevel(mlog.DebugLevel)
	mlog.SetLogger(cmp, logger)
	return cmp
}

// Env sets the given environment variable on the Component, so that Run will
// use it when populating configuration. Only the Component passed into Run is
// checked.
func Env(cmp *mcmp.Component, key, val string) {
	env, _ := cmp.Value(envCmpKey(0)).([]string)
	cmp.SetValue(envCmpKey(0), append(env, key+"="+val))
}

// Run populates the Component's configuration from the environment (only the
// variables given with Env), triggers its init event, calls body, and then
// triggers its shutdown event. Any errors fail the test immediately.
func Run(cmp *mcmp.Component, t *T, body func()) {
	env, _ := cmp.Value(envCmpKey(0)).([]string)
	if err := mcfg.Populate(cmp, &mcfg.SourceEnv{Env: append([]string{}, env...)}); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := mrun.Init(ctx, cmp); err != nil {
		t.Fatal(err)
	}

	body()

	if err := mrun.Shutdown(ctx, cmp); err != nil {
		t.Fatal(err)
	}
}
