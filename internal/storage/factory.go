package storage

import (
	"fmt"

	"github.com/identity-tenancy-api/internal/config"
)

// NewStorageDriver selects the backend named by cfg.Driver.
func NewStorageDriver(cfg *config.StorageConfig) (StorageDriver, error) {
	switch cfg.Driver {
	case "local", "":
		uploadsPath := cfg.UploadsPath
		if uploadsPath == "" {
			uploadsPath = "./uploads"
		}
		return NewLocalStorage(uploadsPath), nil

	case "s3":
		return NewS3Storage(cfg)

	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
	}
}
