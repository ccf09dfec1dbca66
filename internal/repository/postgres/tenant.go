package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/models/shared"
)

const tenantColumns = `id, name, logo, status, is_default, created_at, updated_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	t := &models.Tenant{}
	var status string
	if err := row.Scan(&t.ID, &t.Name, &t.Logo, &status, &t.IsDefault, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = shared.TenantStatus(status)
	return t, nil
}

func (t *tx) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, logo, status, is_default)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := t.tx.QueryRow(ctx, query,
		tenant.ID, tenant.Name, tenant.Logo, string(tenant.Status), tenant.IsDefault,
	).Scan(&tenant.CreatedAt, &tenant.UpdatedAt)
	return mapErr(err, "failed to create tenant "+tenant.ID)
}

func (t *tx) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	tenant, err := scanTenant(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapErr(err, "failed to get tenant "+id)
	}
	return tenant, nil
}

func (t *tx) GetDefaultTenant(ctx context.Context) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE is_default ORDER BY id LIMIT 1`
	tenant, err := scanTenant(t.tx.QueryRow(ctx, query))
	if err != nil {
		return nil, mapErr(err, "failed to get default tenant")
	}
	return tenant, nil
}

func (t *tx) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

func (t *tx) GetOrCreateValidityPeriodConfig(ctx context.Context, cfg *models.TenantUserValidityPeriodConfig) (*models.TenantUserValidityPeriodConfig, bool, error) {
	methods := make([]string, len(cfg.EnabledNotificationMethods))
	for i, m := range cfg.EnabledNotificationMethods {
		methods[i] = string(m)
	}
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO tenant_user_validity_period_configs
			(tenant_id, enabled, validity_period, remind_before_expire, enabled_notification_methods)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id) DO NOTHING
	`, cfg.TenantID, cfg.Enabled, cfg.ValidityPeriod, cfg.RemindBeforeExpire, methods)
	if err != nil {
		return nil, false, mapErr(err, "failed to create validity period config")
	}

	out := &models.TenantUserValidityPeriodConfig{}
	var stored []string
	err = t.tx.QueryRow(ctx, `
		SELECT id, tenant_id, enabled, validity_period, remind_before_expire,
			enabled_notification_methods, created_at, updated_at
		FROM tenant_user_validity_period_configs
		WHERE tenant_id = $1
	`, cfg.TenantID).Scan(
		&out.ID, &out.TenantID, &out.Enabled, &out.ValidityPeriod, &out.RemindBeforeExpire,
		&stored, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, false, mapErr(err, "failed to get validity period config")
	}
	for _, m := range stored {
		out.EnabledNotificationMethods = append(out.EnabledNotificationMethods, shared.NotificationMethod(m))
	}
	return out, tag.RowsAffected() == 1, nil
}

func (t *tx) GetOrCreateDisplayNameConfig(ctx context.Context, cfg *models.TenantUserDisplayNameExpressionConfig) (*models.TenantUserDisplayNameExpressionConfig, bool, error) {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO tenant_user_display_name_expression_configs
			(tenant_id, expression, builtin_fields, custom_fields, extra_fields)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id) DO NOTHING
	`, cfg.TenantID, cfg.Expression, nonNil(cfg.BuiltinFields), nonNil(cfg.CustomFields), nonNil(cfg.ExtraFields))
	if err != nil {
		return nil, false, mapErr(err, "failed to create display name config")
	}
	out, err := t.GetDisplayNameConfig(ctx, cfg.TenantID)
	if err != nil {
		return nil, false, err
	}
	return out, tag.RowsAffected() == 1, nil
}

func (t *tx) GetDisplayNameConfig(ctx context.Context, tenantID string) (*models.TenantUserDisplayNameExpressionConfig, error) {
	out := &models.TenantUserDisplayNameExpressionConfig{}
	err := t.tx.QueryRow(ctx, `
		SELECT id, tenant_id, expression, builtin_fields, custom_fields, extra_fields, updated_at
		FROM tenant_user_display_name_expression_configs
		WHERE tenant_id = $1
	`, tenantID).Scan(
		&out.ID, &out.TenantID, &out.Expression, &out.BuiltinFields, &out.CustomFields, &out.ExtraFields, &out.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err, "failed to get display name config of "+tenantID)
	}
	return out, nil
}

func (t *tx) SaveDisplayNameConfig(ctx context.Context, cfg *models.TenantUserDisplayNameExpressionConfig) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO tenant_user_display_name_expression_configs
			(tenant_id, expression, builtin_fields, custom_fields, extra_fields)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id) DO UPDATE SET
			expression = EXCLUDED.expression,
			builtin_fields = EXCLUDED.builtin_fields,
			custom_fields = EXCLUDED.custom_fields,
			extra_fields = EXCLUDED.extra_fields,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, updated_at
	`, cfg.TenantID, cfg.Expression, nonNil(cfg.BuiltinFields), nonNil(cfg.CustomFields), nonNil(cfg.ExtraFields),
	).Scan(&cfg.ID, &cfg.UpdatedAt)
	return mapErr(err, "failed to save display name config")
}

func (t *tx) ListBuiltinFields(ctx context.Context) ([]*models.UserBuiltinField, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, name, display_name, data_type, required, "unique"
		FROM user_builtin_fields ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list builtin fields: %w", err)
	}
	defer rows.Close()

	var fields []*models.UserBuiltinField
	for rows.Next() {
		f := &models.UserBuiltinField{}
		if err := rows.Scan(&f.ID, &f.Name, &f.DisplayName, &f.DataType, &f.Required, &f.Unique); err != nil {
			return nil, fmt.Errorf("failed to scan builtin field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (t *tx) ListCustomFields(ctx context.Context, tenantID string) ([]*models.TenantUserCustomField, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, tenant_id, name, display_name, data_type, required
		FROM tenant_user_custom_fields WHERE tenant_id = $1 ORDER BY id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom fields: %w", err)
	}
	defer rows.Close()

	var fields []*models.TenantUserCustomField
	for rows.Next() {
		f := &models.TenantUserCustomField{}
		if err := rows.Scan(&f.ID, &f.TenantID, &f.Name, &f.DisplayName, &f.DataType, &f.Required); err != nil {
			return nil, fmt.Errorf("failed to scan custom field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (t *tx) CreateCustomField(ctx context.Context, f *models.TenantUserCustomField) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO tenant_user_custom_fields (tenant_id, name, display_name, data_type, required)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, f.TenantID, f.Name, f.DisplayName, f.DataType, f.Required).Scan(&f.ID)
	return mapErr(err, "failed to create custom field "+f.Name)
}

func (t *tx) GetOrCreateTenantManager(ctx context.Context, m *models.TenantManager) (*models.TenantManager, bool, error) {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO tenant_managers (tenant_id, tenant_user_id)
		VALUES ($1, $2)
		ON CONFLICT (tenant_id, tenant_user_id) DO NOTHING
	`, m.TenantID, m.TenantUserID)
	if err != nil {
		return nil, false, mapErr(err, "failed to create tenant manager")
	}

	out := &models.TenantManager{}
	err = t.tx.QueryRow(ctx, `
		SELECT id, tenant_id, tenant_user_id, created_at
		FROM tenant_managers WHERE tenant_id = $1 AND tenant_user_id = $2
	`, m.TenantID, m.TenantUserID).Scan(&out.ID, &out.TenantID, &out.TenantUserID, &out.CreatedAt)
	if err != nil {
		return nil, false, mapErr(err, "failed to get tenant manager")
	}
	return out, tag.RowsAffected() == 1, nil
}

func (t *tx) ListTenantManagers(ctx context.Context, tenantID string) ([]*models.TenantManager, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, tenant_id, tenant_user_id, created_at
		FROM tenant_managers WHERE tenant_id = $1 ORDER BY id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant managers: %w", err)
	}
	defer rows.Close()

	var managers []*models.TenantManager
	for rows.Next() {
		m := &models.TenantManager{}
		if err := rows.Scan(&m.ID, &m.TenantID, &m.TenantUserID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant manager: %w", err)
		}
		managers = append(managers, m)
	}
	return managers, rows.Err()
}

func (t *tx) ListLegacyUsers(ctx context.Context, usernames []string) ([]*models.LegacyUser, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	rows, err := t.tx.Query(ctx, `
		SELECT username, display_name FROM legacy_users WHERE username = ANY($1)
	`, usernames)
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy users: %w", err)
	}
	defer rows.Close()

	var users []*models.LegacyUser
	for rows.Next() {
		u := &models.LegacyUser{}
		if err := rows.Scan(&u.Username, &u.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan legacy user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
