// Package mpipe ties a msrc.Source to a mb64.Encoder, pulling chunks from the
// one and feeding them into the other until the source is exhausted. It
// exposes the two entry points of the encoder, FrameToBase64 and
// FileToBase64, which differ only in the Source they use.
package mpipe

import (
	"context"
	"encoding/hex"
	"io"
	"strings"
	"sync"

	"github.com/Nick-ccq/k10-base64/mb64"
	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/Nick-ccq/k10-base64/merr"
	"github.com/Nick-ccq/k10-base64/mlog"
	"github.com/Nick-ccq/k10-base64/msrc"
	"github.com/zeebo/blake3"
)

// State describes where a Pipeline is in its lifecycle.
type State int

// The possible States of a Pipeline. A Pipeline moves from StateIdle to
// StateReading when Run is called, then to StateFinishing once the source's
// last chunk has been fed, and to StateDone once the encoder has been
// finished. Any failure moves it to StateFailed. StateDone and StateFailed are
// terminal.
const (
	StateIdle State = iota
	StateReading
	StateFinishing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateFinishing:
		return "finishing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes the outcome of a successful Run.
type Result struct {
	// Bytes is the number of raw bytes read from the Source.
	Bytes int64 `json:"bytes"`

	// Chars is the number of base64 characters written.
	Chars int64 `json:"chars"`

	// Digest is the hex encoded blake3-256 digest of the raw bytes.
	Digest string `json:"digest"`
}

// Pipeline encodes everything produced by a Source. A Pipeline may only be
// Run once.
type Pipeline struct {
	Source msrc.Source

	// Logger is used to log the progress of Run. Defaults to
	// mlog.DefaultLogger.
	Logger *mlog.Logger

	l     sync.Mutex
	state State
}

// State returns the current State of the Pipeline.
func (p *Pipeline) State() State {
	p.l.Lock()
	defer p.l.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.l.Lock()
	p.state = s
	p.l.Unlock()
}

func (p *Pipeline) start() bool {
	p.l.Lock()
	defer p.l.Unlock()
	if p.state != StateIdle {
		return false
	}
	p.state = StateReading
	return true
}

func (p *Pipeline) logger() *mlog.Logger {
	if p.Logger == nil {
		return mlog.DefaultLogger
	}
	return p.Logger
}

func (p *Pipeline) fail(ctx context.Context, err error) (Result, error) {
	p.setState(StateFailed)
	err = merr.Wrap(err, ctx)
	p.logger().Debug("pipeline failed", ctx, merr.Context(err))
	return Result{}, err
}

// Run reads chunks from the Source and feeds them into an Encoder writing to
// w, until the Source returns its last chunk. The Encoder is then finished,
// writing out any padding.
//
// If the Source fails then Run stops immediately, without finishing the
// Encoder, and returns the Source's error (which matches
// msrc.ErrSourceUnavailable). If the Source implements io.Closer it is closed
// before Run returns, successful or not.
//
// Calling Run on a Pipeline which has already been Run returns an error
// matching mb64.ErrInvalidUse. ctx is only used for annotating logs and
// errors.
func (p *Pipeline) Run(ctx context.Context, w io.Writer) (Result, error) {
	if !p.start() {
		ctx := mctx.Annotate(ctx, "state", p.State().String())
		return Result{}, merr.Wrap(mb64.ErrInvalidUse, ctx)
	}
	if closer, ok := p.Source.(io.Closer); ok {
		defer closer.Close()
	}

	hasher := blake3.New()
	enc := mb64.NewEncoder(w)
	for {
		chunk, last, err := p.Source.Read()
		if err != nil {
			return p.fail(ctx, err)
		}
		// blake3's Hasher never returns a write error
		_, _ = hasher.Write(chunk)
		if err := enc.Feed(chunk); err != nil {
			return p.fail(ctx, err)
		}
		if last {
			break
		}
	}

	p.setState(StateFinishing)
	if err := enc.Finish(); err != nil {
		return p.fail(ctx, err)
	}
	p.setState(StateDone)

	res := Result{
		Bytes:  enc.Consumed(),
		Chars:  enc.Written(),
		Digest: hex.EncodeToString(hasher.Sum(nil)),
	}
	p.logger().Debug("pipeline done", mctx.Annotate(ctx,
		"bytes", res.Bytes,
		"chars", res.Chars,
		"digest", res.Digest,
	))
	return res, nil
}

func (p *Pipeline) encode(ctx context.Context) (string, Result, error) {
	sb := new(strings.Builder)
	res, err := p.Run(ctx, sb)
	if err != nil {
		return "", Result{}, err
	}
	return sb.String(), res, nil
}

// Encode runs a new Pipeline over the given Source, returning the full base64
// string. On failure the returned string is always empty and the error is
// non-nil, so an empty input (which encodes to "") can be distinguished from
// a failure.
func Encode(ctx context.Context, src msrc.Source) (string, error) {
	str, _, err := (&Pipeline{Source: src}).encode(ctx)
	return str, err
}

// FrameToBase64 captures a single frame from the Camera and returns its base64
// encoding.
func FrameToBase64(ctx context.Context, cam msrc.Camera) (string, error) {
	ctx = mctx.Annotate(ctx, "sourceKind", SourceCamera)
	return Encode(ctx, msrc.NewCameraSource(cam))
}

// FileToBase64 reads the file at the given path and returns its base64
// encoding. The file is read in blocks of msrc.DefaultBlockSize.
func FileToBase64(ctx context.Context, path string) (string, error) {
	ctx = mctx.Annotate(ctx, "sourceKind", SourceFile, "path", path)
	return Encode(ctx, msrc.NewFileSource(path, msrc.DefaultBlockSize))
}
