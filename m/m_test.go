package m

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Nick-ccq/k10-base64/mcfg"
	"github.com/Nick-ccq/k10-base64/mlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootComponent(t *testing.T) {
	t.Run("log-level", func(t *testing.T) {
		cmp := RootComponent(nil)

		// pull the Logger out of the component and set the Handler on it, so we
		// can check the log level
		var msgs []mlog.Message
		logger := mlog.GetLogger(cmp)
		logger.SetHandler(func(msg mlog.Message) error {
			msgs = append(msgs, msg)
			return nil
		})
		mlog.SetLogger(cmp, logger)

		// create a child Component before running, and derive its logger, to
		// ensure the change propagates correctly.
		cmpA := cmp.Child("A")
		mlog.From(cmpA).Debug("dropped")

		params := mcfg.ParamValues{{Name: "log-level", Value: json.RawMessage(`"DEBUG"`)}}
		cmp.SetValue(cmpKeyCfgSrc, mcfg.Source(params))
		MustInit(cmp)

		mlog.From(cmpA).Info("foo")
		mlog.From(cmpA).Debug("bar")
		require.Len(t, msgs, 3)
		assert.Equal(t, "DEBUG", msgs[0].Level.String())
		assert.Equal(t, "initialization completed successfully", msgs[0].Description)
		assert.Equal(t, "INFO", msgs[1].Level.String())
		assert.Equal(t, "foo", msgs[1].Description)
		assert.Equal(t, "DEBUG", msgs[2].Level.String())
		assert.Equal(t, "bar", msgs[2].Description)
	})

	t.Run("invalid-log-level", func(t *testing.T) {
		cmp := RootComponent(nil)
		params := mcfg.ParamValues{{Name: "log-level", Value: json.RawMessage(`"LOUD"`)}}
		cmp.SetValue(cmpKeyCfgSrc, mcfg.Source(params))
		err := Init(context.Background(), cmp)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("cli", func(t *testing.T) {
		cmp := RootComponent([]string{"--log-level=warn"})
		require.NoError(t, Init(context.Background(), cmp))
		assert.Equal(t, "WARN", lvlOf(t, mlog.GetLogger(cmp)))
	})
}

// lvlOf returns the name of the highest level which the Logger will log.
func lvlOf(t *testing.T, l *mlog.Logger) string {
	var got []string
	l = l.Clone()
	l.SetHandler(func(msg mlog.Message) error {
		got = append(got, msg.Level.String())
		return nil
	})
	l.Debug("")
	l.Info("")
	l.Warn("")
	require.NotEmpty(t, got)
	return got[len(got)-1]
}
