package merr

import (
	"errors"
	. "testing"

	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/stretchr/testify/assert"
)

func TestError(t *T) {
	ctx := mctx.Annotated(
		"a", "aaa aaa\n",
		"c", "ccc\nccc\n",
		"d\t", "weird key but ok",
	)
	err := New("foo", ctx)
	exp := "foo" +
		"\n\t* a: aaa aaa" +
		"\n\t* c: \n\t\tccc\n\t\tccc" +
		"\n\t* d: weird key but ok"
	assert.Equal(t, exp, err.Error())

	assert.Equal(t, "bar", New("bar").Error())
}

func TestBase(t *T) {
	errFoo, errBar := errors.New("foo"), errors.New("bar")
	erFoo := Wrap(errFoo)
	assert.Equal(t, errFoo, Base(erFoo))
	assert.Equal(t, errBar, Base(errBar))
	assert.NotEqual(t, errFoo, erFoo)
	assert.True(t, Equal(errFoo, erFoo))
	assert.False(t, Equal(errBar, erFoo))
	assert.True(t, errors.Is(erFoo, errFoo))
	assert.Nil(t, Wrap(nil))
}

func TestWrapMergesAnnotations(t *T) {
	base := errors.New("source unavailable")
	err := Wrap(base, mctx.Annotated("path", "/a.png"))
	err = Wrap(err, mctx.Annotated("chunkSize", 512))

	aa := mctx.EvaluateAnnotations(err.(*Error).Ctx, nil)
	assert.Equal(t, mctx.Annotations{"path": "/a.png", "chunkSize": 512}, aa)
	assert.True(t, errors.Is(err, base))
	assert.Equal(t, base, Base(err))
}

func TestContext(t *T) {
	err := New("foo", mctx.Annotated("frame", 3))
	aa := mctx.EvaluateAnnotations(Context(err), nil).StringMap()
	assert.Equal(t, "foo", aa["err"])
	assert.Equal(t, "3", aa["frame"])
	assert.Contains(t, aa["errSrc"], "merr/merr_test.go")

	aa = mctx.EvaluateAnnotations(Context(errors.New("plain")), nil).StringMap()
	assert.Equal(t, map[string]string{"err": "plain"}, aa)
}
