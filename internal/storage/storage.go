package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ErrObjectNotFound is returned when no object exists at a key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the subset of object storage the image lifecycle needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ImageKey builds the storage key <ownerID>/<projectID>/<token>-<filename>.
// The token keeps two uploads of the same name from sharing an object.
func ImageKey(ownerID string, projectID int64, token, filename string) string {
	return fmt.Sprintf("%s/%d/%s-%s", ownerID, projectID, token, filename)
}

// CleanFilename reduces an uploaded name to a safe base name, or "" if
// nothing usable remains.
func CleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	switch name {
	case ".", "/", "..":
		return ""
	}
	return name
}
