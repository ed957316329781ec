package backup

import (
	"context"
	"fmt"
	"io"
	"strings"

	"subtrack/internal/config"
)

// SnapshotSource supplies the raw bytes of a snapshot document.
type SnapshotSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// ResolveSource maps a location string to a source: "s3://bucket/key" to the
// S3 backend, anything else to a local file path.
func ResolveSource(location string, cfg config.BackupConfig) (SnapshotSource, error) {
	if strings.HasPrefix(location, "s3://") {
		rest := strings.TrimPrefix(location, "s3://")
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return nil, fmt.Errorf("invalid s3 location %q, want s3://bucket/key", location)
		}
		return NewS3Source(bucket, key, cfg), nil
	}
	return NewFileSource(location), nil
}
