// Package idgen allocates tenant user ids. An id, once handed out for a
// (tenant, data source, user code) triple, is recorded and reused.
package idgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/models/shared"
	"github.com/identity-tenancy-api/internal/repository"
	"github.com/identity-tenancy-api/internal/utils"
)

const maxAttempts = 5

// Generator hands out random user codes, retrying on collision up to
// maxAttempts times.
type Generator struct {
	newCode func() (string, error)
}

func New() *Generator {
	return &Generator{newCode: func() (string, error) {
		return utils.GenerateCode(utils.TenantUserCodeLength)
	}}
}

// Gen returns the tenant user id of user as seen from tenantID.
func (g *Generator) Gen(ctx context.Context, tx repository.Tx, tenantID string, ds *models.DataSource, user *models.DataSourceUser) (string, error) {
	record, err := tx.GetTenantUserIDRecord(ctx, tenantID, ds.ID, user.Code)
	if err == nil {
		return record.TenantUserID, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return "", err
	}

	strategy := shared.TenantUserIDStrategyRandomCode
	var domain string
	conf, err := tx.GetTenantUserIDGenerateConfig(ctx, tenantID, ds.ID)
	switch {
	case err == nil:
		strategy, domain = conf.Strategy, conf.Domain
	case !errors.Is(err, models.ErrNotFound):
		return "", err
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		id, err := g.derive(strategy, domain, user)
		if err != nil {
			return "", err
		}
		taken, err := idTaken(ctx, tx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, g.Pin(ctx, tx, tenantID, ds, user, id)
		}
		if !isRandom(strategy) {
			return "", models.NewValidationError("tenant_user_id",
				fmt.Sprintf("id %s derived by %s is already taken", id, strategy), models.ErrAlreadyExists)
		}
	}
	return "", fmt.Errorf("failed to allocate a free tenant user id after %d attempts", maxAttempts)
}

// Pin records id as the tenant user id of user.
func (g *Generator) Pin(ctx context.Context, tx repository.Tx, tenantID string, ds *models.DataSource, user *models.DataSourceUser, id string) error {
	return tx.CreateTenantUserIDRecord(ctx, &models.TenantUserIDRecord{
		TenantID:     tenantID,
		DataSourceID: ds.ID,
		Code:         user.Code,
		TenantUserID: id,
	})
}

func (g *Generator) derive(strategy shared.TenantUserIDStrategy, domain string, user *models.DataSourceUser) (string, error) {
	switch strategy {
	case shared.TenantUserIDStrategyUUID4Hex:
		return strings.ReplaceAll(uuid.NewString(), "-", ""), nil
	case shared.TenantUserIDStrategyUsername:
		return user.Username, nil
	case shared.TenantUserIDStrategyUsernameWithDomain:
		if domain == "" {
			return "", models.NewValidationError("domain", "is required by the username_with_domain strategy", nil)
		}
		return user.Username + "@" + domain, nil
	case shared.TenantUserIDStrategyRandomCode, "":
		return g.newCode()
	}
	return "", models.NewValidationError("strategy", fmt.Sprintf("unknown id strategy %q", strategy), nil)
}

func isRandom(strategy shared.TenantUserIDStrategy) bool {
	return strategy == shared.TenantUserIDStrategyRandomCode || strategy == shared.TenantUserIDStrategyUUID4Hex || strategy == ""
}

func idTaken(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	_, err := tx.GetTenantUser(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
