package mb64

import "io"

type writer struct {
	e *Encoder
}

// NewWriter returns an io.WriteCloser which base64 encodes everything written
// to it onto w. Close must be called to flush the final padded group, it does
// not close w.
func NewWriter(w io.Writer) io.WriteCloser {
	return writer{e: NewEncoder(w)}
}

func (w writer) Write(b []byte) (int, error) {
	if err := w.e.Feed(b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (w writer) Close() error {
	return w.e.Finish()
}
