package mlog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Nick-ccq/k10-base64/mctx"
)

func msgAnnotations(msg Message) mctx.Annotations {
	if len(msg.Contexts) == 0 {
		return nil
	}
	return mctx.EvaluateAnnotations(mctx.MergeAnnotations(msg.Contexts...), nil)
}

// MessageJSON is the type used to encode Messages to JSON in NewJSONHandler.
type MessageJSON struct {
	Level       string `json:"level"`
	Description string `json:"descr"`

	// key -> value
	Annotations map[string]string `json:"annotations,omitempty"`
}

// NewJSONHandler returns a Handler which writes each Message to out as a
// single-line JSON object. It is safe for concurrent use.
func NewJSONHandler(out io.Writer) Handler {
	l := new(sync.Mutex)
	enc := json.NewEncoder(out)
	return func(msg Message) error {
		l.Lock()
		defer l.Unlock()

		msgJSON := MessageJSON{
			Level:       msg.Level.String(),
			Description: msg.Description,
		}
		if aa := msgAnnotations(msg); len(aa) > 0 {
			msgJSON.Annotations = aa.StringMap()
		}
		return enc.Encode(msgJSON)
	}
}

// NewTextHandler returns a Handler which writes each Message to out in a
// human-readable format, e.g.:
//
//	INFO encoded file "chars"="24" "path"="/img/a.png"
//
// It is safe for concurrent use. This is the format used on serial consoles,
// where a JSON object per line is hard to read.
func NewTextHandler(out io.Writer) Handler {
	l := new(sync.Mutex)
	return func(msg Message) error {
		l.Lock()
		defer l.Unlock()

		sb := new(strings.Builder)
		sb.WriteString(msg.Level.String())
		sb.WriteString(" ")
		sb.WriteString(msg.Description)
		for _, kv := range msgAnnotations(msg).StringSlice(true) {
			fmt.Fprintf(sb, " %q=%q", kv[0], kv[1])
		}
		sb.WriteString("\n")
		_, err := io.WriteString(out, sb.String())
		return err
	}
}
