package storage

import (
	"context"
	"errors"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSOptions configures GCS client initialization.
type GCSOptions struct {
	// CredentialsJSON is an optional service account key. When empty the
	// client falls back to ambient credentials (ADC).
	CredentialsJSON []byte
	// GoogleAccessID is the service account access ID for URL signing.
	GoogleAccessID string
	// PrivateKey is the service account private key for URL signing.
	PrivateKey []byte
}

// GCS implements Storage on Google Cloud Storage.
type GCS struct {
	client         *gcs.Client
	googleAccessID string
	privateKey     []byte
}

// NewGCS constructs a GCS storage backend.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCS, error) {
	var clientOpts []option.ClientOption
	if len(opts.CredentialsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, opts.CredentialsJSON, gcs.ScopeFullControl)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	}

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}
	return &GCS{
		client:         client,
		googleAccessID: opts.GoogleAccessID,
		privateKey:     opts.PrivateKey,
	}, nil
}

func (g *GCS) Put(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	if len(opts.Metadata) > 0 {
		w.Metadata = opts.Metadata
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return ObjectInfo{}, err
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, err
	}
	return gcsInfo(w.Attrs()), nil
}

func (g *GCS) Get(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	obj := g.client.Bucket(bucket).Object(key)

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	return reader, gcsInfo(attrs), nil
}

func (g *GCS) Stat(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	attrs, err := g.client.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, err
	}
	return gcsInfo(attrs), nil
}

func (g *GCS) Delete(ctx context.Context, bucket, key string) error {
	return g.client.Bucket(bucket).Object(key).Delete(ctx)
}

func (g *GCS) List(ctx context.Context, bucket, prefix string, limit int32) ([]ObjectInfo, error) {
	it := g.client.Bucket(bucket).Objects(ctx, &gcs.Query{Prefix: prefix})

	objects := make([]ObjectInfo, 0)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		objects = append(objects, gcsInfo(attrs))
		if limit > 0 && int32(len(objects)) >= limit {
			break
		}
	}
	return objects, nil
}

func (g *GCS) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	return g.signURL("GET", bucket, key, "", expiry)
}

func (g *GCS) PresignPut(_ context.Context, bucket, key string, opts PutOptions, expiry time.Duration) (string, error) {
	return g.signURL("PUT", bucket, key, opts.ContentType, expiry)
}

func (g *GCS) Close() error { return g.client.Close() }

func gcsInfo(attrs *gcs.ObjectAttrs) ObjectInfo {
	if attrs == nil {
		return ObjectInfo{}
	}
	return ObjectInfo{
		Bucket:      attrs.Bucket,
		Key:         attrs.Name,
		Size:        attrs.Size,
		ETag:        attrs.Etag,
		ContentType: attrs.ContentType,
		Metadata:    attrs.Metadata,
		UpdatedAt:   attrs.Updated,
	}
}

func (g *GCS) signURL(method, bucket, key, contentType string, expiry time.Duration) (string, error) {
	if g.googleAccessID == "" || len(g.privateKey) == 0 {
		return "", ErrSignerNotConfigured
	}
	return gcs.SignedURL(bucket, key, &gcs.SignedURLOptions{
		Method:         method,
		Expires:        time.Now().Add(expiry),
		GoogleAccessID: g.googleAccessID,
		PrivateKey:     g.privateKey,
		ContentType:    contentType,
	})
}
