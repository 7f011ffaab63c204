// Package storage defines the object-storage contract used for offer images
// and user avatars. The S3 implementation lives under infra/storage.
package storage

import (
	"context"
	"io"
)

// ObjectStorage stores uploaded media under opaque keys and resolves keys to
// browser-fetchable URLs. Keys are stored on the owning record; URLs are
// resolved at read time and never persisted.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	// ResolveURL returns a URL for the object. Depending on bucket policy
	// this is either a public URL or a time-limited presigned one.
	ResolveURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
