// Package media stores uploaded images and inspects them before they are kept.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
var ErrNotFound = errors.New("media: blob not found")

// ErrInvalidName is returned for blob names that are empty or escape the namespace.
var ErrInvalidName = errors.New("media: invalid blob name")

// Storage is a flat namespace of blobs addressed by slash-separated names such
// as "uploads/recipe/<uuid>.png".
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
	// URL returns the public address of name.
	URL(name string) string
}

// CleanName validates name and returns it in canonical form.
func CleanName(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, '\\') || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean, nil
}

// joinURL appends name to prefix with exactly one slash between them.
func joinURL(prefix, name string) string {
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(name, "/")
}
