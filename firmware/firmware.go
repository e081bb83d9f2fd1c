package firmware

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/moffa90/go-kinectfw/protocol"
)

// Source yields firmware bytes one page at a time.
//
// NextPage returns between 0 and protocol.PageSize bytes. A zero-length
// page with a nil error marks the end of the firmware. The returned slice
// is only valid until the next call.
type Source interface {
	NextPage() ([]byte, error)
}

// Reader is a Source over any io.Reader.
// Pages are filled completely except for the last one.
type Reader struct {
	r    io.Reader
	page []byte
	read int64
	eof  bool
}

// NewReader returns a Reader that splits r into pages of protocol.PageSize bytes.
//
// Example:
//
//	src := firmware.NewReader(bytes.NewReader(image))
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:    r,
		page: make([]byte, protocol.PageSize),
	}
}

// NextPage implements Source.
func (r *Reader) NextPage() ([]byte, error) {
	if r.eof {
		return r.page[:0], nil
	}

	n, err := io.ReadFull(r.r, r.page)
	r.read += int64(n)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		r.eof = true
	default:
		return nil, fmt.Errorf("read firmware at offset %d: %w", r.read-int64(n), err)
	}

	return r.page[:n], nil
}

// BytesRead returns the number of firmware bytes handed out so far.
func (r *Reader) BytesRead() int64 {
	return r.read
}

// File is a Source reading from a firmware file on disk.
type File struct {
	*Reader
	f    *os.File
	path string
	size int64
}

// Open opens the firmware file at path.
// The caller must Close the returned File.
//
// Example:
//
//	fw, err := firmware.Open("firmware.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer fw.Close()
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &OpenError{Path: path, Err: err}
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, &OpenError{Path: path, Err: errors.New("is a directory")}
	}

	return &File{
		Reader: NewReader(f),
		f:      f,
		path:   path,
		size:   info.Size(),
	}, nil
}

// Path returns the path the file was opened with.
func (f *File) Path() string {
	return f.path
}

// Size returns the file size in bytes at open time.
func (f *File) Size() int64 {
	return f.size
}

// Pages returns the number of WRITE commands the file will produce.
func (f *File) Pages() int {
	return int((f.size + protocol.PageSize - 1) / protocol.PageSize)
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}
