package backup

import (
	"context"
	"fmt"
	"io"
	"os"
)

// FileSource reads a snapshot document from the local filesystem.
type FileSource struct {
	path string
}

var _ SnapshotSource = (*FileSource)(nil)

// NewFileSource creates a source for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	return f, nil
}
