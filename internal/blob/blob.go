// Package blob abstracts the object store holding file content. Two
// backends exist: MinIO/S3 and Azure Blob Storage. The metadata layer only
// sees opaque keys.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrPresignUnsupported is returned by backends that cannot mint
// client-side upload URLs.
var ErrPresignUnsupported = errors.New("blob: presigned uploads not supported by this provider")

// Object is a readable blob plus the metadata needed to serve it.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Storage is the gateway the item service uses for file bytes. Delete must
// tolerate missing keys so subtree deletion stays idempotent.
type Storage interface {
	Provider() string
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error)
}
