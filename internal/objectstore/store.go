// Package objectstore uploads article images under stable keys.
package objectstore

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrEmptyData is returned when asked to upload nothing.
	ErrEmptyData = errors.New("objectstore: empty data")
	// ErrInvalidKey is returned for keys that cannot be used as object names.
	ErrInvalidKey = errors.New("objectstore: invalid key")
	// ErrNoStore is returned by a Publisher built without a store.
	ErrNoStore = errors.New("objectstore: no store configured")
)

// Store uploads bytes under key and returns a public URL. Uploading the same
// key twice overwrites the first object.
type Store interface {
	Name() string
	Upload(ctx context.Context, data []byte, key string) (string, error)
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return ErrInvalidKey
	}
	return nil
}

// extension sniffs the image format for file naming.
func extension(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
