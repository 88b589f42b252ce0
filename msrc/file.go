package msrc

import (
	"io"
	"os"
)

// DefaultBlockSize is the block size used by NewFileSource when it's given a
// non-positive one. It's a multiple of 3 so that no bytes get carried between
// blocks during encoding.
const DefaultBlockSize = 3 * 1024

// FileSource is a Source which reads a file from disk in fixed-size blocks.
type FileSource struct {
	path      string
	blockSize int

	f    *os.File
	buf  []byte
	done bool

	// the first byte of the next block, read ahead to find the last block
	next    [1]byte
	hasNext bool
}

var _ Source = new(FileSource)

// NewFileSource returns a FileSource for the file at the given path. The file
// isn't opened until the first call to Read.
func NewFileSource(path string, blockSize int) *FileSource {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &FileSource{path: path, blockSize: blockSize}
}

// Path returns the path the FileSource was created with.
func (fs *FileSource) Path() string {
	return fs.path
}

func (fs *FileSource) fail(err error) error {
	fs.done = true
	fs.Close()
	return unavailable(err, "file", "path", fs.path)
}

// Read implements the method for the Source interface. Every chunk but the
// last has exactly the block size. An empty file results in a single empty
// chunk.
func (fs *FileSource) Read() ([]byte, bool, error) {
	if fs.done {
		return nil, true, nil
	}

	if fs.f == nil {
		f, err := os.Open(fs.path)
		if err != nil {
			return nil, false, fs.fail(err)
		}
		fs.f = f
		fs.buf = make([]byte, fs.blockSize)
	}

	var n int
	if fs.hasNext {
		fs.buf[0] = fs.next[0]
		fs.hasNext = false
		n = 1
	}

	nn, err := io.ReadFull(fs.f, fs.buf[n:])
	n += nn
	switch {
	case err == io.EOF, err == io.ErrUnexpectedEOF:
		fs.done = true
		return fs.buf[:n], true, nil
	case err != nil:
		return nil, false, fs.fail(err)
	}

	// a full block was read, read ahead to see if it was the last one
	if _, err := io.ReadFull(fs.f, fs.next[:]); err == io.EOF {
		fs.done = true
		return fs.buf, true, nil
	} else if err != nil {
		return nil, false, fs.fail(err)
	}
	fs.hasNext = true
	return fs.buf, false, nil
}

// Close releases the underlying file handle, if it was ever opened. It's safe
// to call more than once.
func (fs *FileSource) Close() error {
	if fs.f == nil {
		return nil
	}
	err := fs.f.Close()
	fs.f = nil
	return err
}
