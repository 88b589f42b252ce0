package mctx

import (
	"context"
	"fmt"
	"sort"
)

type ctxKeyAnnotation int

// Annotator is a type which can add annotation data to an existing set of
// Annotations. The Annotate method may be called in a non-thread-safe manner.
type Annotator interface {
	Annotate(Annotations)
}

type el struct {
	annotator Annotator
	prev      *el
}

// WithAnnotator returns a Context which will produce the Annotator's
// annotations when EvaluateAnnotations is called on it, or on any Context
// derived from it. The Annotator is not evaluated until then.
func WithAnnotator(ctx context.Context, annotator Annotator) context.Context {
	curr := &el{annotator: annotator}
	curr.prev, _ = ctx.Value(ctxKeyAnnotation(0)).(*el)
	return context.WithValue(ctx, ctxKeyAnnotation(0), curr)
}

type annotationSeq []interface{}

func (s annotationSeq) Annotate(aa Annotations) {
	for i := 0; i < len(s); i += 2 {
		aa[s[i]] = s[i+1]
	}
}

// Annotate is a shortcut for calling WithAnnotator with the given key/value
// pairs.
//
// NOTE If the length of kvs is not divisible by two this will panic.
func Annotate(ctx context.Context, kvs ...interface{}) context.Context {
	if len(kvs)%2 > 0 {
		panic("kvs being passed to mctx.Annotate must have an even number of elements")
	} else if len(kvs) == 0 {
		return ctx
	}
	return WithAnnotator(ctx, annotationSeq(kvs))
}

// Annotated is a shortcut for calling Annotate on context.Background().
func Annotated(kvs ...interface{}) context.Context {
	return Annotate(context.Background(), kvs...)
}

// Annotations is a set of key/value pairs. It implements the Annotator
// interface along with some post-processing helpers.
type Annotations map[interface{}]interface{}

// Annotate implements the method for the Annotator interface.
func (aa Annotations) Annotate(aa2 Annotations) {
	for k, v := range aa {
		aa2[k] = v
	}
}

// StringMap formats each of the key/value pairs into strings using fmt.Sprint.
// If two keys format to the same string then their type is prefixed to each,
// e.g. "mpipe.annotateKey(path)".
func (aa Annotations) StringMap() map[string]string {
	byStr := map[string][][2]interface{}{}
	for k, v := range aa {
		kStr := fmt.Sprint(k)
		byStr[kStr] = append(byStr[kStr], [2]interface{}{k, v})
	}

	out := make(map[string]string, len(aa))
	for kStr, kvs := range byStr {
		if len(kvs) == 1 {
			out[kStr] = fmt.Sprint(kvs[0][1])
			continue
		}
		for _, kv := range kvs {
			out[fmt.Sprintf("%T(%s)", kv[0], kStr)] = fmt.Sprint(kv[1])
		}
	}
	return out
}

// StringSlice is like StringMap but returns a slice of key/value tuples. If
// sorted is true the slice is sorted by key in ascending order.
func (aa Annotations) StringSlice(sorted bool) [][2]string {
	m := aa.StringMap()
	slice := make([][2]string, 0, len(m))
	for k, v := range m {
		slice = append(slice, [2]string{k, v})
	}
	if sorted {
		sort.Slice(slice, func(i, j int) bool {
			return slice[i][0] < slice[j][0]
		})
	}
	return slice
}

// EvaluateAnnotations collects all annotations which have been set on the
// Context and its ancestors and sets them on the given Annotations. When a key
// was set more than once only the most recent value is kept, and keys already
// present in aa are left alone.
//
// If aa is nil a new Annotations is allocated. aa is returned for convenience.
func EvaluateAnnotations(ctx context.Context, aa Annotations) Annotations {
	if aa == nil {
		aa = Annotations{}
	}
	if ctx == nil {
		return aa
	}

	tmp := Annotations{}
	for el, _ := ctx.Value(ctxKeyAnnotation(0)).(*el); el != nil; el = el.prev {
		el.annotator.Annotate(tmp)
		for k, v := range tmp {
			if _, ok := aa[k]; !ok {
				aa[k] = v
			}
			delete(tmp, k)
		}
	}
	return aa
}

// MergeAnnotationsInto returns ctx with the annotations of each of ctxs layered
// on top of its own, in order. Annotations from Contexts further right take
// precedence. All other aspects of ctx are unchanged.
func MergeAnnotationsInto(ctx context.Context, ctxs ...context.Context) context.Context {
	if len(ctxs) == 0 {
		return ctx
	}
	aa := EvaluateAnnotations(ctx, nil)
	for _, ctxB := range ctxs {
		for k, v := range EvaluateAnnotations(ctxB, nil) {
			aa[k] = v
		}
	}
	return context.WithValue(ctx, ctxKeyAnnotation(0), &el{annotator: aa})
}

// MergeAnnotations is MergeAnnotationsInto on a background Context.
func MergeAnnotations(ctxs ...context.Context) context.Context {
	return MergeAnnotationsInto(context.Background(), ctxs...)
}
