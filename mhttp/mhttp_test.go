package mhttp

import (
	"bytes"
	"io"
	"net/http"
	. "testing"

	"github.com/Nick-ccq/k10-base64/mtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMListenAndServe(t *T) {
	cmp := mtest.Component()
	srv := MListenAndServe(cmp, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		io.Copy(rw, r.Body)
	}))
	mtest.Env(cmp, "HTTP_LISTEN_ADDR", "127.0.0.1:0")

	mtest.Run(cmp, t, func() {
		body := bytes.NewBufferString("HELLO")
		resp, err := http.Post("http://"+srv.Addr, "text/plain", body)
		require.NoError(t, err)
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "HELLO", string(respBody))
	})
}
