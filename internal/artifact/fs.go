package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mantradev/mantra/internal/logger"
)

// FSStore keeps audio files in a local directory.
type FSStore struct {
	root string
}

// NewFSStore creates the directory if needed and returns a store rooted there.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		root = "audio"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir %s: %w", root, err)
	}
	return &FSStore{root: root}, nil
}

// Put writes the blob and returns its name as the location.
func (s *FSStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	path := filepath.Join(s.root, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	logger.Debug("audio written", "name", name, "size", len(data))
	return name, nil
}

// Open opens a previously stored blob for reading.
func (s *FSStore) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, location))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	return f, nil
}

// Remove deletes a stored blob.
func (s *FSStore) Remove(ctx context.Context, location string) error {
	if err := os.Remove(filepath.Join(s.root, location)); err != nil {
		return fmt.Errorf("remove %s: %w", location, err)
	}
	return nil
}

// Healthy reports whether the root directory is still accessible.
func (s *FSStore) Healthy(ctx context.Context) bool {
	_, err := os.Stat(s.root)
	return err == nil
}
