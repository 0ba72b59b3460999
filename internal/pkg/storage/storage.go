// Package storage provides object storage behind one interface with
// S3, Google Cloud Storage, and MinIO implementations.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrSignerNotConfigured indicates signed URL support is not configured.
var ErrSignerNotConfigured = errors.New("storage: signed url signer not configured")

// Storage defines object storage operations.
type Storage interface {
	io.Closer

	// Put stores data under bucket/key and returns object metadata.
	Put(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	// Get retrieves the object contents and metadata.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	// Stat returns object metadata without reading its contents.
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	// Delete removes the object.
	Delete(ctx context.Context, bucket, key string) error
	// List lists up to limit objects under a prefix; limit <= 0 lists all.
	List(ctx context.Context, bucket, prefix string, limit int32) ([]ObjectInfo, error)
	// PresignGet returns a signed URL for downloading.
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
	// PresignPut returns a signed URL for uploading.
	PresignPut(ctx context.Context, bucket, key string, opts PutOptions, expiry time.Duration) (string, error)
}

// PutOptions configures upload behavior.
type PutOptions struct {
	// Size is the expected content length, when known.
	Size int64
	// ContentType is the MIME type for the object.
	ContentType string
	// Metadata holds user-defined key/value metadata.
	Metadata map[string]string
}

// ObjectInfo describes object metadata.
type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
	Metadata    map[string]string
	UpdatedAt   time.Time
}
