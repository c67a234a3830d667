// internal/storage/archive/interface.go
package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/newthinker/binsig/internal/config"
)

// Storage keeps exported signal files beyond the batch lifetime.
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// New builds the archive backend named by cfg.Type.
// Type "none" or "" disables archiving and returns a nil Storage.
func New(cfg config.ArchiveStorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}

// cleanPath rejects absolute paths and parent references so that every
// archive path stays below the backend root.
func cleanPath(path string) (string, error) {
	p := strings.TrimPrefix(path, "/")
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", fmt.Errorf("archive path %q escapes root", path)
		}
	}
	if p == "" {
		return "", fmt.Errorf("empty archive path")
	}
	return p, nil
}
