package mtest

import (
	"context"
	. "testing"

	"github.com/Nick-ccq/k10-base64/mcfg"
	"github.com/Nick-ccq/k10-base64/mrun"
	"github.com/stretchr/testify/assert"
)

func TestRun(t *T) {
	cmp := Component()
	chunkSize := mcfg.Int(cmp, "chunk-size", mcfg.ParamDefault(3))
	Env(cmp, "CHUNK_SIZE", "9")

	var events []string
	mrun.InitHook(cmp, func(context.Context) error {
		events = append(events, "init")
		return nil
	})
	mrun.ShutdownHook(cmp, func(context.Context) error {
		events = append(events, "shutdown")
		return nil
	})

	Run(cmp, t, func() {
		events = append(events, "body")
		assert.Equal(t, 9, *chunkSize)
	})
	assert.Equal(t, []string{"init", "body", "shutdown"}, events)
}
