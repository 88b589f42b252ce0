// Package mctx extends the builtin context package with annotations: runtime
// metadata attached to a Context which is picked up by the logging and error
// packages. An annotation might be the path of a file being encoded, the size
// of a captured frame, or the address of a sink being written to.
//
// All functions in this package are thread-safe.
package mctx
