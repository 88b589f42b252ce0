// Package mhttp extends the standard package with extra functionality which is
// commonly useful, and implements the http interface for encoding camera
// frames and files.
package mhttp

import (
	"context"
	"net/http"

	"github.com/Nick-ccq/k10-base64/mcmp"
	"github.com/Nick-ccq/k10-base64/merr"
	"github.com/Nick-ccq/k10-base64/mlog"
	"github.com/Nick-ccq/k10-base64/mnet"
	"github.com/Nick-ccq/k10-base64/mrun"
)

// MListenAndServe returns an http.Server which will be initialized and have
// Serve called on it (asynchronously) when the init event is triggered on the
// Component (see mrun.Init). The Server will have Shutdown called on it when
// the shutdown event is triggered on the Component (see mrun.Shutdown).
//
// This function automatically handles setting up configuration parameters via
// mcfg, on a child Component named "http". The default listen address is ":0".
func MListenAndServe(cmp *mcmp.Component, h http.Handler) *http.Server {
	cmp = cmp.Child("http")
	listener := mnet.MListen(cmp, "tcp", "")
	listener.NoCloseOnShutdown = true // http.Server.Shutdown will do this

	srv := &http.Server{Handler: h}
	var serveErrCh chan error

	mrun.InitHook(cmp, func(context.Context) error {
		srv.Addr = listener.Addr().String()
		serveErrCh = make(chan error, 1)
		go func() {
			defer close(serveErrCh)
			if err := srv.Serve(listener); err != http.ErrServerClosed {
				mlog.From(cmp).Error("error serving listener", merr.Context(err))
				serveErrCh <- merr.Wrap(err, cmp.Context())
			}
		}()
		return nil
	})

	mrun.ShutdownHook(cmp, func(ctx context.Context) error {
		if serveErrCh == nil {
			return nil
		}
		mlog.From(cmp).Info("shutting down server")
		if err := srv.Shutdown(ctx); err != nil {
			return merr.Wrap(err, cmp.Context())
		}
		return <-serveErrCh
	})

	return srv
}
