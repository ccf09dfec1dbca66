package tenant

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/repository"
	"github.com/identity-tenancy-api/internal/services/passwordrule"
)

var tenantIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,30}[a-z0-9]$`)

// ReservedTenantIDs can never be used by CreateTenantByCommand or
// CreateTenantByAPI; they belong to the bootstrap tenant.
var ReservedTenantIDs = map[string]bool{"system": true, "default": true}

// ValidateTenantID checks the id grammar: 3 to 32 lowercase letters, digits
// and hyphens, no leading, trailing or doubled hyphen.
func ValidateTenantID(id string) error {
	if !tenantIDPattern.MatchString(id) || strings.Contains(id, "--") {
		return models.NewValidationError("tenant_id",
			"must be 3-32 lowercase letters, digits or hyphens, without leading, trailing or consecutive hyphens", nil)
	}
	return nil
}

// ValidateCreate rejects a malformed, reserved or taken tenant id and a
// password failing the default rule. An empty password is not checked.
func (s *Service) ValidateCreate(ctx context.Context, tenantID, password string) error {
	if err := ValidateTenantID(tenantID); err != nil {
		return err
	}
	if ReservedTenantIDs[tenantID] {
		return models.NewValidationError("tenant_id", tenantID+" is reserved", models.ErrReserved)
	}

	err := s.store.View(ctx, func(tx repository.Tx) error {
		_, err := tx.GetTenant(ctx, tenantID)
		return err
	})
	switch {
	case err == nil:
		return models.NewValidationError("tenant_id", "tenant "+tenantID+" already exists", models.ErrAlreadyExists)
	case !errors.Is(err, models.ErrNotFound):
		return err
	}

	if password == "" {
		return nil
	}
	if err := passwordrule.Default().Validate(password); err != nil {
		return models.NewValidationError("password", err.Error(), err)
	}
	return nil
}
