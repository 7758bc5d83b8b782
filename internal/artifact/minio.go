package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mantradev/mantra/internal/logger"
)

// MinioStore keeps audio objects in a single MinIO bucket.
type MinioStore struct {
	mc     *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and creates the bucket if it doesn't exist.
func NewMinioStore(cfg Config) (*MinioStore, error) {
	mc, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	s := &MinioStore{mc: mc, bucket: cfg.MinioBucket}
	if s.bucket == "" {
		s.bucket = "mantra-audio"
	}

	ctx := context.Background()
	exists, err := mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
		logger.Info("bucket created", "bucket", s.bucket)
	}

	return s, nil
}

// Put uploads the blob and returns its object name as the location.
func (s *MinioStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.mc.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", s.bucket, name, err)
	}

	logger.Debug("audio uploaded", "bucket", s.bucket, "name", name, "size", len(data))
	return name, nil
}

// Open returns a reader over a stored object.
func (s *MinioStore) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	obj, err := s.mc.GetObject(ctx, s.bucket, location, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", s.bucket, location, err)
	}
	// GetObject is lazy; Stat makes a missing object fail here instead
	// of on first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("stat %s/%s: %w", s.bucket, location, err)
	}
	return obj, nil
}

// Remove deletes a stored object.
func (s *MinioStore) Remove(ctx context.Context, location string) error {
	if err := s.mc.RemoveObject(ctx, s.bucket, location, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", s.bucket, location, err)
	}
	return nil
}

// Healthy checks if MinIO is reachable.
func (s *MinioStore) Healthy(ctx context.Context) bool {
	_, err := s.mc.BucketExists(ctx, s.bucket)
	return err == nil
}
