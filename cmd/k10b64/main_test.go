package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	. "testing"

	"github.com/Nick-ccq/k10-base64/mrand"
	"github.com/Nick-ccq/k10-base64/msrc"
	"github.com/Nick-ccq/k10-base64/mtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingSource hands out chunks and then fails.
type failingSource struct {
	chunks [][]byte
}

func (s *failingSource) Read() ([]byte, bool, error) {
	if len(s.chunks) == 0 {
		return nil, false, errors.New("card removed")
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, false, nil
}

func TestEncodeTo(t *T) {
	ctx := context.Background()
	cmp := mtest.Component()

	in := mrand.Bytes(10000)
	out := new(bytes.Buffer)
	require.NoError(t, encodeTo(ctx, cmp, msrc.NewBytesSource(in, 512), out))
	assert.Equal(t, base64.StdEncoding.EncodeToString(in)+"\n", out.String())

	// fails before anything is flushed
	out.Reset()
	err := encodeTo(ctx, cmp, &failingSource{chunks: [][]byte{[]byte("Man")}}, out)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "outputIncomplete")
	assert.Empty(t, out.String())

	// fails after the buffer has been flushed at least once
	out.Reset()
	err = encodeTo(ctx, cmp, &failingSource{chunks: [][]byte{in}}, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outputIncomplete")
	assert.True(t, strings.HasSuffix(out.String(), "\n"))
	assert.True(t, strings.HasPrefix(base64.StdEncoding.EncodeToString(in), strings.TrimSpace(out.String())))
}
