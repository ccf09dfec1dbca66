// Package storage keeps tenant assets, currently logos, on the local
// filesystem or in an S3 bucket. Objects are addressed by slash-separated
// keys below a per-tenant prefix.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
)

// LogoContentType is the media type of every stored logo; logos are
// normalized to PNG before upload.
const LogoContentType = "image/png"

// ErrInvalidKey is returned for keys that are empty, absolute or escape the
// storage root.
var ErrInvalidKey = errors.New("invalid storage key")

// StorageDriver is implemented by every storage backend.
type StorageDriver interface {
	// Put writes data under key and returns its public URL.
	Put(ctx context.Context, key string, data []byte) (string, error)

	// Delete removes key. Removing a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every object below prefix and reports how many
	// were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// URL is relative for local storage and absolute for S3.
	URL(key string) string
}

// TenantPrefix is the key prefix owning every asset of tenantID.
func TenantPrefix(tenantID string) string {
	return path.Join("tenants", tenantID) + "/"
}

// LogoKey is the key of logo name of tenantID.
func LogoKey(tenantID, name string) string {
	return path.Join("tenants", tenantID, "logo", name+".png")
}

func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
