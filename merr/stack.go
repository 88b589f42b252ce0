package merr

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"
)

// MaxStackSize indicates the maximum number of stack frames which will be
// stored when embedding stack traces in errors.
var MaxStackSize = 50

// Stack represents a stack trace at a particular point in execution.
type Stack []uintptr

func newStack(skip int) Stack {
	stackSlice := make([]uintptr, MaxStackSize)
	// incr skip once for newStack, and once for runtime.Callers
	l := runtime.Callers(skip+2, stackSlice)
	return Stack(stackSlice[:l])
}

// Frame returns the first frame in the stack.
func (s Stack) Frame() runtime.Frame {
	if len(s) == 0 {
		panic("cannot call Frame on empty stack")
	}

	frame, _ := runtime.CallersFrames([]uintptr(s)).Next()
	return frame
}

// Frames returns all runtime.Frame instances for this stack.
func (s Stack) Frames() []runtime.Frame {
	if len(s) == 0 {
		return nil
	}

	out := make([]runtime.Frame, 0, len(s))
	frames := runtime.CallersFrames([]uintptr(s))
	for {
		frame, more := frames.Next()
		out = append(out, frame)
		if !more {
			break
		}
	}
	return out
}

// ShortString returns the first frame of the stack in the form
// "pkgdir/file.go:line".
func (s Stack) ShortString() string {
	frame := s.Frame()
	file, dir := filepath.Base(frame.File), filepath.Base(filepath.Dir(frame.File))
	return fmt.Sprintf("%s/%s:%d", dir, file, frame.Line)
}

// String returns the full stack trace.
func (s Stack) String() string {
	sb := strBuilderPool.Get().(*strings.Builder)
	defer putStrBuilder(sb)
	tw := tabwriter.NewWriter(sb, 0, 4, 4, ' ', 0)
	for _, frame := range s.Frames() {
		file := fmt.Sprintf("%s:%d", frame.File, frame.Line)
		fmt.Fprintf(tw, "%s\t%s\n", file, frame.Function)
	}
	if err := tw.Flush(); err != nil {
		panic(err)
	}
	return sb.String()
}

// GetStack returns the Stack embedded in the error, if the error is an *Error.
// Otherwise nil is returned.
func GetStack(err error) Stack {
	if e, ok := err.(*Error); ok {
		return e.Stack
	}
	return nil
}
