// Package photostore defines where listing photos live. Keys are opaque to
// callers and unique per saved photo.
package photostore

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	// ErrNotFound indicates no photo is stored under the key.
	ErrNotFound = errors.New("photo not found")
	// ErrInvalidKey indicates an empty key or one with a path traversal segment.
	ErrInvalidKey = errors.New("invalid photo key")
)

type PhotoStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}

// ValidateKey rejects keys no backend should ever resolve.
func ValidateKey(key string) error {
	if key == "" || strings.Contains(key, "..") || strings.ContainsAny(key, `/\`) {
		return ErrInvalidKey
	}
	return nil
}

func MIMEToExt(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func ExtToMIME(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
