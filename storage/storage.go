package storage

import (
	"context"
	"io"
)

// Storage is the read-only byte source a table root is inspected through.
// List returns artifact names relative to the table root, ordered by name;
// Read returns the raw bytes of a single artifact. Implementations never
// write.
type Storage interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Read(ctx context.Context, filepath string) (io.ReadCloser, error)
}

// ReadAll reads one artifact fully into memory.
func ReadAll(ctx context.Context, s Storage, filepath string) ([]byte, error) {
	rc, err := s.Read(ctx, filepath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
