// Package mrun implements lifecycle hooks on Components. Anything which needs
// setting up once configuration is populated (opening a redis pool, binding a
// listener) registers an InitHook; anything which must be torn down registers
// a ShutdownHook.
package mrun

import (
	"context"

	"github.com/Nick-ccq/k10-base64/mcmp"
)

// Hook describes a function which can be registered to trigger on an event via
// the AddHook function.
type Hook func(context.Context) error

type hookKey struct {
	key interface{}
}

// AddHook registers a Hook under a typed key. The Hook will be called when
// TriggerHooks is called with that same key. Multiple Hooks can be registered
// for the same key, and will be called sequentially when triggered.
//
// Hooks will be called with whatever Context is passed into TriggerHooks.
func AddHook(cmp *mcmp.Component, key interface{}, hook Hook) {
	mcmp.AddSeriesValue(cmp, hookKey{key}, hook)
}

func triggerHooks(
	ctx context.Context,
	cmp *mcmp.Component,
	key interface{},
	next func([]mcmp.SeriesElement) (mcmp.SeriesElement, []mcmp.SeriesElement),
) error {
	els := mcmp.SeriesElements(cmp, hookKey{key})
	var el mcmp.SeriesElement
	for len(els) > 0 {
		el, els = next(els)
		if el.Child != nil {
			if err := triggerHooks(ctx, el.Child, key, next); err != nil {
				return err
			}
			continue
		}
		if err := el.Value.(Hook)(ctx); err != nil {
			return err
		}
	}
	return nil
}

// TriggerHooks causes all Hooks registered with AddHook on the Component under
// the given key to be called in the order they were registered. Hooks on a
// child Component are called at the point the child was created relative to
// its parent's Hooks.
//
// If any Hook returns an error no further Hooks will be called and that error
// will be returned.
func TriggerHooks(ctx context.Context, cmp *mcmp.Component, key interface{}) error {
	return triggerHooks(ctx, cmp, key, func(els []mcmp.SeriesElement) (mcmp.SeriesElement, []mcmp.SeriesElement) {
		return els[0], els[1:]
	})
}

// TriggerHooksReverse is the same as TriggerHooks except that registered Hooks
// are called in the reverse order in which they were registered.
func TriggerHooksReverse(ctx context.Context, cmp *mcmp.Component, key interface{}) error {
	return triggerHooks(ctx, cmp, key, func(els []mcmp.SeriesElement) (mcmp.SeriesElement, []mcmp.SeriesElement) {
		last := len(els) - 1
		return els[last], els[:last]
	})
}

type builtinEvent int

const (
	initEvent builtinEvent = iota
	shutdownEvent
)

// InitHook registers the given Hook to run when Init is called. This is a
// special case of AddHook.
//
// As a convention Hooks running on the init event should block only as long as
// it takes to ensure that whatever is running can do so successfully. Long
// lived tasks (e.g. an http server) should use the Hook only to initialize, and
// spawn off a go-routine to do their actual work. Long-lived tasks should set
// themselves up to stop on the shutdown event (see ShutdownHook).
func InitHook(cmp *mcmp.Component, hook Hook) {
	AddHook(cmp, initEvent, hook)
}

// Init runs all Hooks registered using InitHook. This is a special case of
// TriggerHooks.
func Init(ctx context.Context, cmp *mcmp.Component) error {
	return TriggerHooks(ctx, cmp, initEvent)
}

// ShutdownHook registers the given Hook to run when Shutdown is called. This
// is a special case of AddHook.
func ShutdownHook(cmp *mcmp.Component, hook Hook) {
	AddHook(cmp, shutdownEvent, hook)
}

// Shutdown runs all Hooks registered using ShutdownHook in the reverse order
// in which they were registered. This is a special case of
// TriggerHooksReverse.
func Shutdown(ctx context.Context, cmp *mcmp.Component) error {
	return TriggerHooksReverse(ctx, cmp, shutdownEvent)
}
