package mhttp

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"time"

	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/Nick-ccq/k10-base64/merr"
	"github.com/Nick-ccq/k10-base64/mlog"
	"github.com/Nick-ccq/k10-base64/mnet"
	"github.com/Nick-ccq/k10-base64/mpipe"
	"github.com/Nick-ccq/k10-base64/msrc"
)

// Handler is an http.Handler which serves base64 encoded camera frames and
// files as JSON mpipe.Payload documents:
//
//	GET /frame             captures and encodes a frame from the Camera
//	GET /file?path=a.png   encodes the file at Root/a.png
//
// Failure to capture a frame results in a 503, and failure to read a file in
// a 404. In both cases the body is a JSON object with a single "error" field,
// and no part of the encoding is sent.
type Handler struct {
	Camera msrc.Camera

	// Root is the directory which the "path" of /file requests is relative
	// to. Requests can't reach outside of it.
	Root string

	// BlockSize is passed into msrc.NewFileSource.
	BlockSize int

	// If false then /file requests are only served to clients connecting from
	// a reserved (loopback, private, etc...) address, see mnet.IsReservedIP.
	PublicFiles bool

	// Sinks are each called with every Payload successfully served. Their
	// errors are logged but don't affect the response.
	Sinks []mpipe.Sink

	// Logger defaults to mlog.DefaultLogger.
	Logger *mlog.Logger

	mux *http.ServeMux
}

// NewHandler initializes and returns a Handler. Fields on the returned Handler
// may be set before it starts serving.
func NewHandler(cam msrc.Camera, root string) *Handler {
	h := &Handler{
		Camera:    cam,
		Root:      root,
		BlockSize: msrc.DefaultBlockSize,
		Logger:    mlog.DefaultLogger,
		mux:       http.NewServeMux(),
	}
	h.mux.HandleFunc("/frame", getOnly(h.serveFrame))
	h.mux.HandleFunc("/file", getOnly(h.serveFile))
	h.mux.HandleFunc("/", func(rw http.ResponseWriter, r *http.Request) {
		writeErr(rw, http.StatusNotFound, "not found")
	})
	return h
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(rw, r)
}

func getOnly(fn http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.Header().Set("Allow", http.MethodGet)
			writeErr(rw, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		fn(rw, r)
	}
}

func reqCtx(r *http.Request) context.Context {
	return mctx.Annotate(r.Context(),
		"method", r.Method,
		"path", r.URL.Path,
		"remoteAddr", r.RemoteAddr,
	)
}

func writeJSON(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(v)
}

func writeErr(rw http.ResponseWriter, status int, errStr string) {
	writeJSON(rw, status, struct {
		Error string `json:"error"`
	}{errStr})
}

func (h *Handler) respond(ctx context.Context, rw http.ResponseWriter, p *mpipe.Pipeline, kind, name string, failStatus int) {
	p.Logger = h.Logger
	payload, err := p.Payload(ctx, kind, name)
	if err != nil {
		h.Logger.Warn("failed to encode source", ctx, merr.Context(err))
		writeErr(rw, failStatus, msrc.ErrSourceUnavailable.Error())
		return
	}

	for _, sink := range h.Sinks {
		if err := sink(ctx, payload); err != nil {
			h.Logger.Error("failed to sink payload", ctx, merr.Context(err))
		}
	}

	h.Logger.Info("served payload", mctx.Annotate(ctx,
		"sourceKind", kind,
		"name", name,
		"size", payload.Size,
	))
	writeJSON(rw, http.StatusOK, payload)
}

func (h *Handler) serveFrame(rw http.ResponseWriter, r *http.Request) {
	ctx := reqCtx(r)
	if h.Camera == nil {
		writeErr(rw, http.StatusServiceUnavailable, "no camera configured")
		return
	}
	name := "frame-" + time.Now().UTC().Format("20060102T150405.000000000Z")
	p := &mpipe.Pipeline{Source: msrc.NewCameraSource(h.Camera)}
	h.respond(ctx, rw, p, mpipe.SourceCamera, name, http.StatusServiceUnavailable)
}

func (h *Handler) fileAllowed(r *http.Request) bool {
	if h.PublicFiles {
		return true
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && mnet.IsReservedIP(ip)
}

func (h *Handler) serveFile(rw http.ResponseWriter, r *http.Request) {
	ctx := reqCtx(r)
	if !h.fileAllowed(r) {
		writeErr(rw, http.StatusForbidden, "files are only served to local clients")
		return
	}

	name := r.URL.Query().Get("path")
	if name == "" {
		writeErr(rw, http.StatusBadRequest, "path parameter is required")
		return
	}
	// cleaning against "/" keeps the path from escaping Root
	name = path.Clean("/" + name)
	fullPath := filepath.Join(h.Root, filepath.FromSlash(name))
	ctx = mctx.Annotate(ctx, "filePath", fullPath)

	p := &mpipe.Pipeline{Source: msrc.NewFileSource(fullPath, h.BlockSize)}
	h.respond(ctx, rw, p, mpipe.SourceFile, name[1:], http.StatusNotFound)
}
