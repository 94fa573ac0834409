// Package storage persists image bytes: dataset pictures and generated error
// images. Keys are slash-separated relative paths such as
// "errors/hugging/3fa2c1.png".
package storage

import (
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

// Info describes a stored object.
type Info struct {
	ContentType string
	Size        int64
}

// cleanKey rejects keys that could escape the storage root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", domain.NewValidationError("key", "invalid object key")
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", domain.NewValidationError("key", "invalid object key")
	}
	return cleaned, nil
}

func contentTypeFor(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func notFound(key string) error {
	return fmt.Errorf("object %q: %w", key, domain.ErrNotFound)
}
