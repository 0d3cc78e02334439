package model

import (
	"context"
	"io"
)

// Storage is an object store for account media.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

var avatarContentTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/gif":  {},
	"image/webp": {},
}

// IsAvatarContentType reports whether contentType is an accepted avatar image type.
func IsAvatarContentType(contentType string) bool {
	_, ok := avatarContentTypes[contentType]
	return ok
}
