// Package artifact persists synthesized audio blobs behind a small
// storage interface with filesystem and MinIO backends.
package artifact

import (
	"context"
	"fmt"
	"io"
)

// Store is the blob storage used by the audio cache. Put returns the
// location that Open and Remove accept later; for both built-in
// backends the location is simply the object name.
type Store interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (location string, err error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Remove(ctx context.Context, location string) error
	Healthy(ctx context.Context) bool
}

// Config selects and configures a storage backend.
type Config struct {
	Backend string // "fs" (default) or "minio"

	// Filesystem backend.
	AudioDir string

	// MinIO backend.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// New creates the store named by cfg.Backend.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "fs":
		return NewFSStore(cfg.AudioDir)
	case "minio":
		return NewMinioStore(cfg)
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", cfg.Backend)
	}
}
