// Package repository defines the persistence contract shared by the Postgres
// and in-memory stores.
package repository

import (
	"context"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/models/shared"
	"github.com/identity-tenancy-api/internal/query"
)

// Store runs units of work. Update commits only when fn returns nil; any
// error rolls every write of fn back.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of operations available inside a unit of work. Lookups
// return models.ErrNotFound, unique violations models.ErrAlreadyExists.
type Tx interface {
	CreateTenant(ctx context.Context, t *models.Tenant) error
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	GetDefaultTenant(ctx context.Context) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]*models.Tenant, error)

	// GetOrCreate* return the stored row and whether it was created by this call.
	GetOrCreateValidityPeriodConfig(ctx context.Context, cfg *models.TenantUserValidityPeriodConfig) (*models.TenantUserValidityPeriodConfig, bool, error)
	GetOrCreateDisplayNameConfig(ctx context.Context, cfg *models.TenantUserDisplayNameExpressionConfig) (*models.TenantUserDisplayNameExpressionConfig, bool, error)
	GetDisplayNameConfig(ctx context.Context, tenantID string) (*models.TenantUserDisplayNameExpressionConfig, error)
	SaveDisplayNameConfig(ctx context.Context, cfg *models.TenantUserDisplayNameExpressionConfig) error

	ListBuiltinFields(ctx context.Context) ([]*models.UserBuiltinField, error)
	ListCustomFields(ctx context.Context, tenantID string) ([]*models.TenantUserCustomField, error)
	CreateCustomField(ctx context.Context, f *models.TenantUserCustomField) error

	CreateDataSource(ctx context.Context, ds *models.DataSource) error
	GetDataSource(ctx context.Context, id int64) (*models.DataSource, error)
	ListDataSources(ctx context.Context, ownerTenantID string) ([]*models.DataSource, error)
	FindDataSource(ctx context.Context, ownerTenantID string, typ shared.DataSourceType) (*models.DataSource, error)

	CreateDataSourceUser(ctx context.Context, u *models.DataSourceUser) error
	FindDataSourceUser(ctx context.Context, dataSourceID int64, username string) (*models.DataSourceUser, error)
	CreateLocalIdentity(ctx context.Context, info *models.LocalDataSourceIdentityInfo) error
	GetLocalIdentity(ctx context.Context, dataSourceID, userID int64) (*models.LocalDataSourceIdentityInfo, error)

	// Tenant user reads return rows with DataSourceUser and DataSource populated.
	CreateTenantUser(ctx context.Context, u *models.TenantUser) error
	GetTenantUser(ctx context.Context, id string) (*models.TenantUser, error)
	FindTenantUser(ctx context.Context, tenantID string, dataSourceUserID int64) (*models.TenantUser, error)
	ListTenantUsersByIDs(ctx context.Context, ids []string) ([]*models.TenantUser, error)
	UpdateTenantUserContacts(ctx context.Context, u *models.TenantUser) error
	SearchTenantUsers(ctx context.Context, pred query.Predicate) ([]*models.TenantUser, error)

	GetOrCreateTenantManager(ctx context.Context, m *models.TenantManager) (*models.TenantManager, bool, error)
	ListTenantManagers(ctx context.Context, tenantID string) ([]*models.TenantManager, error)

	GetTenantUserIDRecord(ctx context.Context, tenantID string, dataSourceID int64, code string) (*models.TenantUserIDRecord, error)
	CreateTenantUserIDRecord(ctx context.Context, r *models.TenantUserIDRecord) error
	GetTenantUserIDGenerateConfig(ctx context.Context, targetTenantID string, dataSourceID int64) (*models.TenantUserIDGenerateConfig, error)

	GetOrCreateIdp(ctx context.Context, idp *models.Idp) (*models.Idp, bool, error)
	ListIdps(ctx context.Context, ownerTenantID string) ([]*models.Idp, error)

	ListLegacyUsers(ctx context.Context, usernames []string) ([]*models.LegacyUser, error)

	// Purge deletes rows of table whose column equals any of values and
	// returns the number of deleted rows.
	Purge(ctx context.Context, table, column string, values ...any) (int64, error)
}
