// Package msrc implements the sources of raw bytes which get encoded: camera
// frames, files and in-memory buffers. Each is exposed through the Source
// interface, which hands out bytes one chunk at a time.
package msrc

import (
	"errors"

	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/Nick-ccq/k10-base64/merr"
)

// ErrSourceUnavailable is matched (using errors.Is) by every error returned
// from a Source's Read, whether the source couldn't be opened or it failed
// partway through.
var ErrSourceUnavailable = errors.New("source unavailable")

// Source produces a stream of bytes in chunks.
type Source interface {
	// Read returns the next chunk of bytes. last is true when the returned
	// chunk is the final one, and Read should not be called again after that.
	// The chunk may be empty, and is only valid until the next call to Read.
	//
	// If err is non-nil then it matches ErrSourceUnavailable, and the stream
	// is over.
	Read() (chunk []byte, last bool, err error)
}

type unavailableErr struct {
	err error
}

func (e unavailableErr) Error() string {
	return ErrSourceUnavailable.Error() + ": " + e.err.Error()
}

func (e unavailableErr) Is(target error) bool {
	return target == ErrSourceUnavailable
}

func (e unavailableErr) Unwrap() error {
	return e.err
}

// unavailable wraps err such that it matches both ErrSourceUnavailable and
// err itself.
func unavailable(err error, kind string, kvs ...interface{}) error {
	ctx := mctx.Annotated(append([]interface{}{"sourceKind", kind}, kvs...)...)
	return merr.Wrap(unavailableErr{err: err}, ctx)
}
