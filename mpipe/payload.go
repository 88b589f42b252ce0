package mpipe

import (
	"context"

	"github.com/Nick-ccq/k10-base64/mctx"
)

// Kinds of Source which a Payload can describe.
const (
	SourceCamera = "camera"
	SourceFile   = "file"
)

// Payload is the document produced for an encoded frame or file, as it's sent
// over http, published to redis and archived to sql.
type Payload struct {
	Source string `json:"source" db:"source"`
	Name   string `json:"name" db:"name"`
	Size   int64  `json:"size" db:"size"`
	Digest string `json:"digest" db:"digest"`
	Base64 string `json:"base64" db:"base64"`
}

// Sink receives each Payload produced by a long running process (e.g. the http
// server), such as for publishing or archival.
type Sink func(context.Context, Payload) error

// NewPayload returns a Payload for the given Result and its base64 string.
func NewPayload(kind, name string, res Result, b64 string) Payload {
	return Payload{
		Source: kind,
		Name:   name,
		Size:   res.Bytes,
		Digest: res.Digest,
		Base64: b64,
	}
}

// Payload runs the Pipeline into memory and returns the resulting Payload,
// described by the given kind (SourceCamera or SourceFile) and name.
func (p *Pipeline) Payload(ctx context.Context, kind, name string) (Payload, error) {
	ctx = mctx.Annotate(ctx, "sourceKind", kind, "name", name)
	str, res, err := p.encode(ctx)
	if err != nil {
		return Payload{}, err
	}
	return NewPayload(kind, name, res, str), nil
}
