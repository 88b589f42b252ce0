package mlog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	. "testing"

	"github.com/Nick-ccq/k10-base64/mcmp"
	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *T) {
	assert.Equal(t, "abc", Truncate("abc", 4))
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab...", Truncate("abc", 2))
}

func TestLevelFromString(t *T) {
	assert.Equal(t, DebugLevel, LevelFromString("debug"))
	assert.Equal(t, WarnLevel, LevelFromString(" WARN "))
	assert.Nil(t, LevelFromString("loud"))
}

func lines(buf *bytes.Buffer) []string {
	s := strings.TrimSpace(buf.String())
	buf.Reset()
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestLogger(t *T) {
	buf := new(bytes.Buffer)
	h := NewJSONHandler(buf)

	l := NewLogger()
	l.SetHandler(h)

	// Default max level should be INFO
	l.Debug("foo")
	l.Info("bar")
	l.Warn("baz")
	l.Error("buz")
	assert.Equal(t, []string{
		`{"level":"INFO","descr":"bar"}`,
		`{"level":"WARN","descr":"baz"}`,
		`{"level":"ERROR","descr":"buz"}`,
	}, lines(buf))

	ctx := context.Background()

	l.SetMaxLevel(WarnLevel)
	l.Debug("foo")
	l.Info("bar")
	l.Warn("baz")
	l.Error("buz", mctx.Annotate(ctx, "a", "b", "c", "d"))
	assert.Equal(t, []string{
		`{"level":"WARN","descr":"baz"}`,
		`{"level":"ERROR","descr":"buz","annotations":{"a":"b","c":"d"}}`,
	}, lines(buf))

	l2 := l.Clone()
	l2.SetMaxLevel(InfoLevel)
	l2.SetHandler(func(msg Message) error {
		msg.Description = strings.ToUpper(msg.Description)
		return h(msg)
	})
	l2.Info("bar")
	l2.Warn("baz")
	l.Error("buz")
	assert.Equal(t, []string{
		`{"level":"INFO","descr":"BAR"}`,
		`{"level":"WARN","descr":"BAZ"}`,
		`{"level":"ERROR","descr":"buz"}`,
	}, lines(buf))
}

func TestLoggerFatal(t *T) {
	buf := new(bytes.Buffer)
	l := NewLogger()
	l.SetHandler(NewTextHandler(buf))
	var code int
	l.exit = func(c int) { code = c }

	l.Fatal("camera gone", mctx.Annotated("frame", 7))
	assert.Equal(t, 1, code)
	assert.Equal(t, []string{`FATAL camera gone "frame"="7"`}, lines(buf))
}

func TestLoggerBrokenHandler(t *T) {
	l := NewLogger()
	l.SetHandler(func(Message) error { return errors.New("disk full") })
	assert.NotPanics(t, func() { l.Error("whatever") })
}

func TestGetSetLogger(t *T) {
	cmp := new(mcmp.Component)
	cmpChild := cmp.Child("child")
	ctx := mctx.Annotated("foo", "bar")

	var msgs []string
	l := NewLogger()
	l.SetHandler(func(msg Message) error {
		msgStr := fmt.Sprintf("%s %q", msg.Level, msg.Description)
		for _, kv := range msgAnnotations(msg).StringSlice(true) {
			msgStr += fmt.Sprintf(" %s=%s", kv[0], kv[1])
		}
		msgs = append(msgs, msgStr)
		return nil
	})
	SetLogger(cmp, l)

	GetLogger(cmp).Info("get-cmp", ctx)
	GetLogger(cmpChild).Info("get-cmpChild", ctx)
	From(cmp).Info("from-cmp", ctx)
	From(cmpChild).Info("from-cmpChild", ctx)
	require.Equal(t, []string{
		`INFO "get-cmp" foo=bar`,
		`INFO "get-cmpChild" foo=bar`,
		`INFO "from-cmp" componentPath=/ foo=bar`,
		`INFO "from-cmpChild" componentPath=/child foo=bar`,
	}, msgs)

	l2 := l.Clone()
	l2.SetHandler(func(msg Message) error {
		msg.Description += " (2)"
		return l.Handler()(msg)
	})
	SetLogger(cmp, l2)

	msgs = msgs[:0]
	From(cmp).Info("from-cmp", ctx)
	From(cmpChild).Info("from-cmpChild", ctx)
	assert.Equal(t, []string{
		`INFO "from-cmp (2)" componentPath=/ foo=bar`,
		`INFO "from-cmpChild (2)" componentPath=/child foo=bar`,
	}, msgs)

	assert.True(t, DefaultLogger == GetLogger(new(mcmp.Component)))
}
