package tenant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/query"
	"github.com/identity-tenancy-api/internal/repository"
)

type purge struct {
	table  string
	column string
	values []any
}

// DeleteTenant removes the tenant and everything it owns in one unit of work.
func (s *Service) DeleteTenant(ctx context.Context, tenantID string) error {
	var deleted int64
	err := s.store.Update(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetTenant(ctx, tenantID); err != nil {
			return err
		}
		n, err := teardown(ctx, tx, tenantID)
		deleted = n
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete tenant %s: %w", tenantID, err)
	}

	s.log.Info("tenant deleted", zap.String("tenant_id", tenantID), zap.Int64("rows", deleted))
	if s.logos != nil {
		// Rows are gone; leftover files only cost space, so this never fails the delete.
		n, err := s.logos.PurgeTenant(ctx, tenantID)
		if err != nil {
			s.log.Warn("failed to purge tenant logos", zap.String("tenant_id", tenantID), zap.Error(err))
		} else if n > 0 {
			s.log.Debug("tenant logos purged", zap.String("tenant_id", tenantID), zap.Int("files", n))
		}
	}
	if s.cache != nil {
		if err := s.cache.InvalidateTenantCache(ctx, tenantID); err != nil {
			s.log.Warn("failed to invalidate tenant cache", zap.String("tenant_id", tenantID), zap.Error(err))
		}
	}
	s.publish(ctx, EventTenantDeleted, tenantID)
	return nil
}

// teardown deletes dependents before the rows they reference.
func teardown(ctx context.Context, tx repository.Tx, tenantID string) (int64, error) {
	// Collect the ids that relation tables reference instead of tenant_id.
	users, err := tx.SearchTenantUsers(ctx, query.Eq{Field: query.TenantField, Value: tenantID})
	if err != nil {
		return 0, err
	}
	userIDs := make([]any, 0, len(users))
	for _, u := range users {
		userIDs = append(userIDs, u.ID)
	}

	idps, err := tx.ListIdps(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	idpIDs := make([]any, 0, len(idps))
	for _, idp := range idps {
		idpIDs = append(idpIDs, idp.ID)
	}

	sources, err := tx.ListDataSources(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	// Tenant-scoped relations and settings first.
	tenant := []any{tenantID}
	steps := []purge{
		{models.TableVirtualUserAppRelations, models.ColumnTenantUserID, userIDs},
		{models.TableVirtualUserOwnerRelations, models.ColumnTenantUserID, userIDs},
		{models.TableVirtualUserOwnerRelations, models.ColumnOwnerID, userIDs},
		{models.TableCustomFields, models.ColumnTenantID, tenant},
		{models.TableValidityPeriodConfigs, models.ColumnTenantID, tenant},
		{models.TableDisplayNameConfigs, models.ColumnTenantID, tenant},
		{models.TableTenantManagers, models.ColumnTenantID, tenant},
		{models.TableCollaborationStrategies, models.ColumnSourceTenantID, tenant},
		{models.TableCollaborationStrategies, models.ColumnTargetTenantID, tenant},
		{models.TableIdpSensitiveInfos, models.ColumnIdpID, idpIDs},
		{models.TableIdps, models.ColumnOwnerTenantID, tenant},
	}
	// Every row imported through one of the tenant's own data sources.
	for _, ds := range sources {
		steps = append(steps, dataSourceSteps(ds.ID)...)
	}
	steps = append(steps,
		// Users and departments of this tenant that come from other tenants' sources.
		purge{models.TableTenantDepartments, models.ColumnTenantID, tenant},
		purge{models.TableTenantUsers, models.ColumnTenantID, tenant},
		purge{models.TableTenantUserIDRecords, models.ColumnTenantID, tenant},
		purge{models.TableTenantDepartmentIDRecords, models.ColumnTenantID, tenant},
		purge{models.TableTenantUserIDGenerateConfs, models.ColumnTargetTenantID, tenant},
		purge{models.TableTenantCommonVariables, models.ColumnTenantID, tenant},
		purge{models.TableTenants, models.ColumnID, tenant},
	)

	// Steps run in order; the tenants row is the final step.
	var total int64
	for _, step := range steps {
		n, err := tx.Purge(ctx, step.table, step.column, step.values...)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func dataSourceSteps(id int64) []purge {
	ds := []any{id}
	return []purge{
		{models.TableTenantDepartments, models.ColumnDataSourceID, ds},
		{models.TableTenantUsers, models.ColumnDataSourceID, ds},
		{models.TableTenantUserIDGenerateConfs, models.ColumnDataSourceID, ds},
		{models.TableTenantUserIDRecords, models.ColumnDataSourceID, ds},
		{models.TableTenantDepartmentIDRecords, models.ColumnDataSourceID, ds},
		{models.TableDepartmentUserRelations, models.ColumnDataSourceID, ds},
		{models.TableDepartmentRelations, models.ColumnDataSourceID, ds},
		{models.TableDataSourceDepartments, models.ColumnDataSourceID, ds},
		{models.TableUserLeaderRelations, models.ColumnDataSourceID, ds},
		{models.TableLocalIdentityInfos, models.ColumnDataSourceID, ds},
		{models.TableDataSourceUsers, models.ColumnDataSourceID, ds},
		{models.TableDataSourceSensitiveInfos, models.ColumnDataSourceID, ds},
		{models.TableDataSources, models.ColumnID, ds},
	}
}
