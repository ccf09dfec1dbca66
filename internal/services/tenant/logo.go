package tenant

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/storage"
)

// LogoSize is the edge length of stored tenant logos.
const LogoSize = 144

// MaxLogoBytes bounds the raw upload.
const MaxLogoBytes = 2 << 20

// LogoProcessor normalizes tenant logos to square PNGs and stores them.
type LogoProcessor struct {
	storageDriver storage.StorageDriver
}

func NewLogoProcessor(storageDriver storage.StorageDriver) *LogoProcessor {
	return &LogoProcessor{storageDriver: storageDriver}
}

// Normalize decodes src and crops it to a LogoSize square PNG.
func Normalize(src io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(src, MaxLogoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read logo: %w", err)
	}
	if len(raw) > MaxLogoBytes {
		return nil, models.NewValidationError("logo", fmt.Sprintf("exceeds %d bytes", MaxLogoBytes), nil)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, models.NewValidationError("logo", "is not a supported image", err)
	}

	resized := imaging.Fill(img, LogoSize, LogoSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode logo: %w", err)
	}
	return buf.Bytes(), nil
}

// Store normalizes src and uploads it under the tenant's logo prefix. It
// returns the storage key and the public URL.
func (p *LogoProcessor) Store(ctx context.Context, tenantID string, src io.Reader) (string, string, error) {
	data, err := Normalize(src)
	if err != nil {
		return "", "", err
	}

	key := storage.LogoKey(tenantID, uuid.NewString())
	publicURL, err := p.storageDriver.Put(ctx, key, data)
	if err != nil {
		return "", "", fmt.Errorf("failed to upload logo: %w", err)
	}
	return key, publicURL, nil
}

// Remove deletes a stored logo.
func (p *LogoProcessor) Remove(ctx context.Context, key string) error {
	return p.storageDriver.Delete(ctx, key)
}

// PurgeTenant deletes every stored asset of tenantID.
func (p *LogoProcessor) PurgeTenant(ctx context.Context, tenantID string) (int, error) {
	return p.storageDriver.DeletePrefix(ctx, storage.TenantPrefix(tenantID))
}
