package msrc

// BytesSource is a Source which hands out an in-memory buffer in chunks.
type BytesSource struct {
	b         []byte
	chunkSize int
	done      bool
}

var _ Source = new(BytesSource)

// NewBytesSource returns a BytesSource over b. If chunkSize is not positive
// then all of b is returned as a single chunk.
func NewBytesSource(b []byte, chunkSize int) *BytesSource {
	if chunkSize <= 0 {
		chunkSize = len(b)
	}
	return &BytesSource{b: b, chunkSize: chunkSize}
}

// Read implements the method for the Source interface.
func (bs *BytesSource) Read() ([]byte, bool, error) {
	if bs.done {
		return nil, true, nil
	}
	n := bs.chunkSize
	if n >= len(bs.b) {
		n = len(bs.b)
		bs.done = true
	}
	chunk := bs.b[:n]
	bs.b = bs.b[n:]
	return chunk, bs.done, nil
}
