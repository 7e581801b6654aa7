// Package blobstore holds the bytes of uploaded assets. Metadata lives in
// Mongo (see store/assets); a blob is addressed only by its key.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when no blob exists under the key.
var ErrNotFound = errors.New("blob not found")

// Store is a flat key/value blob store.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// NewKey returns a fresh key of the form prefix/YYYY/MM/<uuid><ext>.
// ext is taken from fileName and lower-cased.
func NewKey(prefix, fileName string, now time.Time) string {
	ext := strings.ToLower(path.Ext(fileName))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("%s/%04d/%02d/%s%s",
		strings.Trim(prefix, "/"), now.Year(), int(now.Month()), uuid.NewString(), ext)
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid blob key %q", key)
	}
	return nil
}
