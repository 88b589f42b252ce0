package mctx

import (
	"context"
	. "testing"

	"github.com/stretchr/testify/assert"
)

type testAnnotator [2]string

func (t testAnnotator) Annotate(aa Annotations) {
	aa[t[0]] = t[1]
}

func TestAnnotate(t *T) {
	ctx := context.Background()
	ctx = Annotate(ctx, "path", "/img/a.png")
	ctx = Annotate(ctx, "size", 12)
	ctx = WithAnnotator(ctx, testAnnotator{"size", "13"})

	aa := EvaluateAnnotations(ctx, nil)
	assert.Equal(t, Annotations{
		"path": "/img/a.png",
		"size": "13",
	}, aa)

	assert.Panics(t, func() { Annotate(ctx, "odd") })
	assert.Empty(t, EvaluateAnnotations(context.Background(), nil))
}

func TestAnnotationsStringMap(t *T) {
	type A int
	type B int
	aa := Annotations{
		0:    "zero",
		1:    "one",
		A(2): "two",
		B(2): "TWO",
	}

	assert.Equal(t, map[string]string{
		"0":         "zero",
		"1":         "one",
		"mctx.A(2)": "two",
		"mctx.B(2)": "TWO",
	}, aa.StringMap())

	assert.Equal(t, [][2]string{
		{"0", "zero"},
		{"1", "one"},
		{"mctx.A(2)", "two"},
		{"mctx.B(2)", "TWO"},
	}, aa.StringSlice(true))
}

func TestMergeAnnotations(t *T) {
	ctxA := Annotated("a", 1, "b", 1)
	ctxB := Annotated("b", 2, "c", 2)
	ctx := MergeAnnotationsInto(context.Background(), ctxA, ctxB)

	assert.Equal(t, Annotations{"a": 1, "b": 2, "c": 2}, EvaluateAnnotations(ctx, nil))
	assert.Equal(t, ctxA, MergeAnnotationsInto(ctxA))
}
