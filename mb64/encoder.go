// Package mb64 implements a streaming base64 encoder which holds no more than
// two input bytes between calls, so arbitrarily large inputs can be encoded
// with a fixed amount of working memory.
package mb64

import (
	"errors"
	"io"
	"strings"

	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/Nick-ccq/k10-base64/merr"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const pad = '='

// scratchGroups is the number of 4 character groups which are buffered before
// being written to the underlying io.Writer.
const scratchGroups = 256

// ErrInvalidUse is returned when an Encoder (or something built on one) is
// used after it has already been finished.
var ErrInvalidUse = errors.New("encoder used after finish")

// EncodedLen returns the length of the base64 encoding of n bytes, including
// padding.
func EncodedLen(n int) int {
	return (n + 2) / 3 * 4
}

// Encoder encodes a stream of bytes to standard base64 (RFC 4648, with
// padding and no line breaks). Bytes are given to it in chunks of any size
// using Feed, and Finish flushes the trailing partial group.
//
// An Encoder is not safe for concurrent use.
type Encoder struct {
	w io.Writer

	carry  [2]byte
	nCarry int

	scratch [scratchGroups * 4]byte

	consumed int64
	written  int64
	finished bool
}

// NewEncoder returns an Encoder which writes its output to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func encodeGroup(dst []byte, b0, b1, b2 byte) {
	dst[0] = alphabet[b0>>2]
	dst[1] = alphabet[(b0<<4|b1>>4)&0x3f]
	dst[2] = alphabet[(b1<<2|b2>>6)&0x3f]
	dst[3] = alphabet[b2&0x3f]
}

func (e *Encoder) write(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	n, err := e.w.Write(b)
	e.written += int64(n)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return merr.Wrap(err, mctx.Annotated("written", e.written))
	}
	return nil
}

// Feed encodes as many complete 3 byte groups as can be formed from the
// carried over bytes and the given chunk, and writes them out. Any remaining
// one or two bytes are carried over to the next call. The chunk is not
// retained.
//
// Feed returns ErrInvalidUse if called after Finish.
func (e *Encoder) Feed(chunk []byte) error {
	if e.finished {
		return merr.Wrap(ErrInvalidUse, mctx.Annotated("op", "feed"))
	}
	e.consumed += int64(len(chunk))

	// complete the carried group first, if possible
	if e.nCarry > 0 {
		if e.nCarry+len(chunk) < 3 {
			e.nCarry += copy(e.carry[e.nCarry:], chunk)
			return nil
		}
		var b [3]byte
		copy(b[:], e.carry[:e.nCarry])
		used := copy(b[e.nCarry:], chunk)
		chunk = chunk[used:]
		e.nCarry = 0
		encodeGroup(e.scratch[:4], b[0], b[1], b[2])
		if err := e.write(e.scratch[:4]); err != nil {
			return err
		}
	}

	for len(chunk) >= 3 {
		n := 0
		for ; len(chunk) >= 3 && n < len(e.scratch); n += 4 {
			encodeGroup(e.scratch[n:n+4], chunk[0], chunk[1], chunk[2])
			chunk = chunk[3:]
		}
		if err := e.write(e.scratch[:n]); err != nil {
			return err
		}
	}

	e.nCarry = copy(e.carry[:], chunk)
	return nil
}

// Finish encodes any carried over bytes, padding the final group with "=" or
// "==" as needed. It must be called exactly once, after which the Encoder can
// no longer be used. A second call returns ErrInvalidUse.
func (e *Encoder) Finish() error {
	if e.finished {
		return merr.Wrap(ErrInvalidUse, mctx.Annotated("op", "finish"))
	}
	e.finished = true

	out := e.scratch[:4]
	switch e.nCarry {
	case 0:
		return nil
	case 1:
		encodeGroup(out, e.carry[0], 0, 0)
		out[2], out[3] = pad, pad
	case 2:
		encodeGroup(out, e.carry[0], e.carry[1], 0)
		out[3] = pad
	}
	e.nCarry = 0
	return e.write(out)
}

// Consumed returns the total number of bytes given to Feed so far.
func (e *Encoder) Consumed() int64 { return e.consumed }

// Written returns the total number of characters written out so far.
func (e *Encoder) Written() int64 { return e.written }

// Carry returns the number of bytes currently carried over between calls to
// Feed. It is always 0, 1 or 2.
func (e *Encoder) Carry() int { return e.nCarry }

// Finished returns true once Finish has been called.
func (e *Encoder) Finished() bool { return e.finished }

// EncodeToString returns the base64 encoding of b.
func EncodeToString(b []byte) string {
	sb := new(strings.Builder)
	sb.Grow(EncodedLen(len(b)))
	e := NewEncoder(sb)
	// strings.Builder never returns an error
	_ = e.Feed(b)
	_ = e.Finish()
	return sb.String()
}
