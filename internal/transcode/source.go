package transcode

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// Source is an opaque input handle.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// LocalSource is implemented by sources already on the local filesystem so
// they can be read in place.
type LocalSource interface {
	Source
	LocalPath() string
}

// FileSource is a source backed by a file path.
type FileSource struct {
	Path string
}

// NewFileSource returns a source for path, made absolute when possible.
func NewFileSource(path string) FileSource {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return FileSource{Path: path}
}

func (s FileSource) Name() string { return filepath.Base(s.Path) }

func (s FileSource) Open() (io.ReadCloser, error) { return os.Open(s.Path) }

func (s FileSource) LocalPath() string { return s.Path }

// BytesSource is an in-memory source.
type BytesSource struct {
	Filename string
	Data     []byte
}

func (s BytesSource) Name() string { return s.Filename }

func (s BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}
