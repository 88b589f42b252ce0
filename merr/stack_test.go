package merr

import (
	"strings"
	. "testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack(t *T) {
	foo := New("foo")
	fooStack := GetStack(foo)

	frame := fooStack.Frame()
	assert.Contains(t, frame.File, "stack_test.go")
	assert.Contains(t, frame.Function, "TestStack")

	frames := fooStack.Frames()
	require.True(t, len(frames) >= 2, "fooStack.String():\n%s", fooStack.String())
	assert.Contains(t, frames[0].File, "stack_test.go")
	assert.Contains(t, frames[0].Function, "TestStack")

	assert.True(t, strings.HasPrefix(fooStack.ShortString(), "merr/stack_test.go:"))

	// re-wrapping keeps the original stack
	bar := Wrap(foo)
	assert.Equal(t, fooStack, GetStack(bar))
	assert.Nil(t, GetStack(nil))
}
