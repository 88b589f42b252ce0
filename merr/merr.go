// Package merr extends the errors package with embedded stack traces and
// mctx annotations.
//
// Errors returned from this package are of type *Error. They implement Unwrap,
// so errors.Is and errors.As see through them to the error being wrapped. If
// any function is given a nil error it returns nil.
package merr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Nick-ccq/k10-base64/mctx"
)

var strBuilderPool = sync.Pool{
	New: func() interface{} { return new(strings.Builder) },
}

func putStrBuilder(sb *strings.Builder) {
	sb.Reset()
	strBuilderPool.Put(sb)
}

////////////////////////////////////////////////////////////////////////////////

// Error wraps an error, adding to it the stack trace of where it was created
// and the annotations of any Contexts it was created with.
type Error struct {
	Err   error
	Ctx   context.Context
	Stack Stack
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Error implements the error interface. Annotations are written on their own
// lines beneath the wrapped error's string, sorted by key.
func (e *Error) Error() string {
	aa := mctx.EvaluateAnnotations(e.Ctx, nil)
	if len(aa) == 0 {
		return e.Err.Error()
	}

	sb := strBuilderPool.Get().(*strings.Builder)
	defer putStrBuilder(sb)

	sb.WriteString(strings.TrimSpace(e.Err.Error()))
	for _, kv := range aa.StringSlice(true) {
		k, v := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		sb.WriteString("\n\t* ")
		sb.WriteString(k)
		sb.WriteString(": ")

		// if there's no newlines then print v inline with k
		if !strings.Contains(v, "\n") {
			sb.WriteString(v)
			continue
		}

		for _, vLine := range strings.Split(v, "\n") {
			sb.WriteString("\n\t\t")
			sb.WriteString(strings.TrimSpace(vLine))
		}
	}

	return sb.String()
}

func wrap(err error, skip int, ctxs []context.Context) *Error {
	if err == nil {
		return nil
	}

	var ctx context.Context
	if e, ok := err.(*Error); ok {
		// re-wrapping keeps the original stack and layers the new annotations
		// on top of the old ones.
		ctx = e.Ctx
		if ctx == nil {
			ctx = context.Background()
		}
		return &Error{
			Err:   e.Err,
			Ctx:   mctx.MergeAnnotationsInto(ctx, ctxs...),
			Stack: e.Stack,
		}
	}

	if len(ctxs) > 0 {
		ctx = mctx.MergeAnnotationsInto(ctxs[0], ctxs[1:]...)
	}
	return &Error{
		Err:   err,
		Ctx:   ctx,
		Stack: newStack(skip + 1),
	}
}

// Wrap returns err wrapped in an *Error, embedding the current stack trace and
// the annotations of the given Contexts. If err is already an *Error its stack
// trace is kept and the new annotations are merged into its existing ones.
func Wrap(err error, ctxs ...context.Context) error {
	if err == nil {
		return nil
	}
	return wrap(err, 1, ctxs)
}

// New is like errors.New but returns an *Error carrying the current stack
// trace and the annotations of the given Contexts.
func New(str string, ctxs ...context.Context) error {
	return wrap(errors.New(str), 1, ctxs)
}

// Errorf is like New, but allows for formatting of the string.
func Errorf(str string, args ...interface{}) error {
	return wrap(fmt.Errorf(str, args...), 1, nil)
}

// Base returns the error wrapped by the given one if it is an *Error, or the
// given error as-is otherwise.
func Base(err error) error {
	if e, ok := err.(*Error); ok {
		return e.Err
	}
	return err
}

// Equal is a shortcut for Base(e1) == Base(e2).
func Equal(e1, e2 error) bool {
	return Base(e1) == Base(e2)
}

type annotateKey string

// Context returns a Context which carries the annotations of the error (if it
// is an *Error) along with the error string under the "err" key and the
// location where the error was created under "errSrc". It is intended for use
// with mlog:
//
//	logger.Error("failed to encode frame", merr.Context(err))
//
func Context(err error) context.Context {
	if err == nil {
		return context.Background()
	}

	e, ok := err.(*Error)
	if !ok {
		return mctx.Annotated(annotateKey("err"), err.Error())
	}

	ctx := e.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = mctx.Annotate(ctx, annotateKey("err"), e.Err.Error())
	if len(e.Stack) > 0 {
		ctx = mctx.Annotate(ctx, annotateKey("errSrc"), e.Stack.ShortString())
	}
	return ctx
}
