package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/models/shared"
	"github.com/identity-tenancy-api/internal/plugins"
	"github.com/identity-tenancy-api/internal/query"
)

// tenantUserSelect joins every tenant user with its directory user and data
// source so callers can render and filter without extra lookups.
func tenantUserSelect() sq.SelectBuilder {
	return psql.Select(
		"tu.id", "tu.tenant_id", "tu.data_source_id", "tu.data_source_user_id",
		"tu.is_inherited_email", "tu.custom_email",
		"tu.is_inherited_phone", "tu.custom_phone", "tu.custom_phone_country_code",
		"tu.account_expired_at", "tu.created_at", "tu.updated_at",
		"dsu.code", "dsu.username", "dsu.full_name", "dsu.email", "dsu.phone", "dsu.phone_country_code",
		"dsu.extras", "dsu.created_at", "dsu.updated_at",
		"ds.owner_tenant_id", "ds.type", "ds.plugin_id", "ds.plugin_config", "ds.created_at", "ds.updated_at",
	).
		From("tenant_users tu").
		Join("data_source_users dsu ON dsu.id = tu.data_source_user_id").
		Join("data_sources ds ON ds.id = tu.data_source_id")
}

func scanTenantUser(row pgx.Row) (*models.TenantUser, error) {
	u := &models.TenantUser{}
	dsu := &models.DataSourceUser{}
	ds := &models.DataSource{}
	var extras, pluginConfig []byte
	var dsType, pluginID string

	err := row.Scan(
		&u.ID, &u.TenantID, &u.DataSourceID, &u.DataSourceUserID,
		&u.Email.Inherited, &u.Email.Value,
		&u.Phone.Inherited, &u.Phone.Value.Number, &u.Phone.Value.CountryCode,
		&u.AccountExpiredAt, &u.CreatedAt, &u.UpdatedAt,
		&dsu.Code, &dsu.Username, &dsu.FullName, &dsu.Email, &dsu.Phone, &dsu.PhoneCountryCode,
		&extras, &dsu.CreatedAt, &dsu.UpdatedAt,
		&ds.OwnerTenantID, &dsType, &pluginID, &pluginConfig, &ds.CreatedAt, &ds.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	dsu.ID, dsu.DataSourceID = u.DataSourceUserID, u.DataSourceID
	if err := json.Unmarshal(extras, &dsu.Extras); err != nil {
		return nil, fmt.Errorf("failed to decode extras of user %d: %w", dsu.ID, err)
	}

	ds.ID = u.DataSourceID
	ds.Type = shared.DataSourceType(dsType)
	ds.PluginID = shared.PluginID(pluginID)
	if ds.PluginConfig, err = plugins.Decode(ds.PluginID, pluginConfig); err != nil {
		return nil, fmt.Errorf("data source %d: %w", ds.ID, err)
	}

	u.DataSourceUser, u.DataSource = dsu, ds
	return u, nil
}

func (t *tx) queryTenantUsers(ctx context.Context, b sq.SelectBuilder) ([]*models.TenantUser, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build tenant user query: %w", err)
	}
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenant users: %w", err)
	}
	defer rows.Close()

	var users []*models.TenantUser
	for rows.Next() {
		u, err := scanTenantUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (t *tx) getTenantUser(ctx context.Context, b sq.SelectBuilder, what string) (*models.TenantUser, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build tenant user query: %w", err)
	}
	u, err := scanTenantUser(t.tx.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapErr(err, "failed to get tenant user "+what)
	}
	return u, nil
}

func (t *tx) CreateTenantUser(ctx context.Context, u *models.TenantUser) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO tenant_users (
			id, tenant_id, data_source_id, data_source_user_id,
			is_inherited_email, custom_email,
			is_inherited_phone, custom_phone, custom_phone_country_code,
			account_expired_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, u.ID, u.TenantID, u.DataSourceID, u.DataSourceUserID,
		u.Email.Inherited, u.Email.Value,
		u.Phone.Inherited, u.Phone.Value.Number, u.Phone.Value.CountryCode,
		u.AccountExpiredAt,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return mapErr(err, "failed to create tenant user "+u.ID)
}

func (t *tx) GetTenantUser(ctx context.Context, id string) (*models.TenantUser, error) {
	return t.getTenantUser(ctx, tenantUserSelect().Where(sq.Eq{"tu.id": id}), id)
}

func (t *tx) FindTenantUser(ctx context.Context, tenantID string, dataSourceUserID int64) (*models.TenantUser, error) {
	b := tenantUserSelect().Where(sq.Eq{"tu.tenant_id": tenantID, "tu.data_source_user_id": dataSourceUserID})
	return t.getTenantUser(ctx, b, fmt.Sprintf("%s/%d", tenantID, dataSourceUserID))
}

func (t *tx) ListTenantUsersByIDs(ctx context.Context, ids []string) ([]*models.TenantUser, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return t.queryTenantUsers(ctx, tenantUserSelect().Where(sq.Eq{"tu.id": ids}).OrderBy("tu.id"))
}

func (t *tx) UpdateTenantUserContacts(ctx context.Context, u *models.TenantUser) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE tenant_users SET
			is_inherited_email = $2, custom_email = $3,
			is_inherited_phone = $4, custom_phone = $5, custom_phone_country_code = $6,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`, u.ID, u.Email.Inherited, u.Email.Value, u.Phone.Inherited, u.Phone.Value.Number, u.Phone.Value.CountryCode)
	if err != nil {
		return mapErr(err, "failed to update tenant user "+u.ID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenant user %s: %w", u.ID, models.ErrNotFound)
	}
	return nil
}

func (t *tx) SearchTenantUsers(ctx context.Context, pred query.Predicate) ([]*models.TenantUser, error) {
	if query.IsNever(pred) {
		return nil, nil
	}
	return t.queryTenantUsers(ctx, tenantUserSelect().Where(pred).OrderBy("tu.id"))
}
