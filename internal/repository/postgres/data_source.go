package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/models/shared"
	"github.com/identity-tenancy-api/internal/plugins"
)

const dataSourceColumns = `id, owner_tenant_id, type, plugin_id, plugin_config, created_at, updated_at`

func scanDataSource(row pgx.Row) (*models.DataSource, error) {
	ds := &models.DataSource{}
	var typ, pluginID string
	var raw []byte
	if err := row.Scan(&ds.ID, &ds.OwnerTenantID, &typ, &pluginID, &raw, &ds.CreatedAt, &ds.UpdatedAt); err != nil {
		return nil, err
	}
	ds.Type = shared.DataSourceType(typ)
	ds.PluginID = shared.PluginID(pluginID)

	cfg, err := plugins.Decode(ds.PluginID, raw)
	if err != nil {
		return nil, fmt.Errorf("data source %d: %w", ds.ID, err)
	}
	ds.PluginConfig = cfg
	return ds, nil
}

func (t *tx) CreateDataSource(ctx context.Context, ds *models.DataSource) error {
	raw, err := plugins.Encode(ds.PluginConfig)
	if err != nil {
		return err
	}
	err = t.tx.QueryRow(ctx, `
		INSERT INTO data_sources (owner_tenant_id, type, plugin_id, plugin_config)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, ds.OwnerTenantID, string(ds.Type), string(ds.PluginID), raw).Scan(&ds.ID, &ds.CreatedAt, &ds.UpdatedAt)
	return mapErr(err, "failed to create data source")
}

func (t *tx) GetDataSource(ctx context.Context, id int64) (*models.DataSource, error) {
	ds, err := scanDataSource(t.tx.QueryRow(ctx, `SELECT `+dataSourceColumns+` FROM data_sources WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, fmt.Sprintf("failed to get data source %d", id))
	}
	return ds, nil
}

func (t *tx) ListDataSources(ctx context.Context, ownerTenantID string) ([]*models.DataSource, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+dataSourceColumns+` FROM data_sources WHERE owner_tenant_id = $1 ORDER BY id
	`, ownerTenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list data sources: %w", err)
	}
	defer rows.Close()

	var sources []*models.DataSource
	for rows.Next() {
		ds, err := scanDataSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan data source: %w", err)
		}
		sources = append(sources, ds)
	}
	return sources, rows.Err()
}

func (t *tx) FindDataSource(ctx context.Context, ownerTenantID string, typ shared.DataSourceType) (*models.DataSource, error) {
	ds, err := scanDataSource(t.tx.QueryRow(ctx, `
		SELECT `+dataSourceColumns+` FROM data_sources
		WHERE owner_tenant_id = $1 AND type = $2
		ORDER BY id LIMIT 1
	`, ownerTenantID, string(typ)))
	if err != nil {
		return nil, mapErr(err, fmt.Sprintf("failed to find %s data source of %s", typ, ownerTenantID))
	}
	return ds, nil
}

const dataSourceUserColumns = `id, data_source_id, code, username, full_name, email, phone, phone_country_code, extras, created_at, updated_at`

func scanDataSourceUser(row pgx.Row) (*models.DataSourceUser, error) {
	u := &models.DataSourceUser{}
	var extras []byte
	err := row.Scan(&u.ID, &u.DataSourceID, &u.Code, &u.Username, &u.FullName, &u.Email, &u.Phone,
		&u.PhoneCountryCode, &extras, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(extras, &u.Extras); err != nil {
		return nil, fmt.Errorf("failed to decode extras of user %d: %w", u.ID, err)
	}
	return u, nil
}

func (t *tx) CreateDataSourceUser(ctx context.Context, u *models.DataSourceUser) error {
	extras := u.Extras
	if extras == nil {
		extras = map[string]any{}
	}
	raw, err := json.Marshal(extras)
	if err != nil {
		return fmt.Errorf("failed to encode extras: %w", err)
	}
	err = t.tx.QueryRow(ctx, `
		INSERT INTO data_source_users
			(data_source_id, code, username, full_name, email, phone, phone_country_code, extras)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, u.DataSourceID, u.Code, u.Username, u.FullName, u.Email, u.Phone, u.PhoneCountryCode, raw,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return mapErr(err, "failed to create data source user "+u.Username)
}

func (t *tx) FindDataSourceUser(ctx context.Context, dataSourceID int64, username string) (*models.DataSourceUser, error) {
	u, err := scanDataSourceUser(t.tx.QueryRow(ctx, `
		SELECT `+dataSourceUserColumns+` FROM data_source_users
		WHERE data_source_id = $1 AND username = $2
	`, dataSourceID, username))
	if err != nil {
		return nil, mapErr(err, "failed to find data source user "+username)
	}
	return u, nil
}

func (t *tx) CreateLocalIdentity(ctx context.Context, info *models.LocalDataSourceIdentityInfo) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO local_data_source_identity_infos
			(user_id, data_source_id, username, password, password_updated_at, password_expired_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, info.UserID, info.DataSourceID, info.Username, info.Password, info.PasswordUpdatedAt, info.PasswordExpiredAt,
	).Scan(&info.ID)
	return mapErr(err, "failed to create local identity of "+info.Username)
}

func (t *tx) GetLocalIdentity(ctx context.Context, dataSourceID, userID int64) (*models.LocalDataSourceIdentityInfo, error) {
	info := &models.LocalDataSourceIdentityInfo{}
	err := t.tx.QueryRow(ctx, `
		SELECT id, user_id, data_source_id, username, password, password_updated_at, password_expired_at
		FROM local_data_source_identity_infos
		WHERE data_source_id = $1 AND user_id = $2
	`, dataSourceID, userID).Scan(
		&info.ID, &info.UserID, &info.DataSourceID, &info.Username, &info.Password,
		&info.PasswordUpdatedAt, &info.PasswordExpiredAt,
	)
	if err != nil {
		return nil, mapErr(err, fmt.Sprintf("failed to get local identity of user %d", userID))
	}
	return info, nil
}

func (t *tx) GetTenantUserIDRecord(ctx context.Context, tenantID string, dataSourceID int64, code string) (*models.TenantUserIDRecord, error) {
	r := &models.TenantUserIDRecord{}
	err := t.tx.QueryRow(ctx, `
		SELECT id, tenant_id, data_source_id, code, tenant_user_id
		FROM tenant_user_id_records
		WHERE tenant_id = $1 AND data_source_id = $2 AND code = $3
	`, tenantID, dataSourceID, code).Scan(&r.ID, &r.TenantID, &r.DataSourceID, &r.Code, &r.TenantUserID)
	if err != nil {
		return nil, mapErr(err, "failed to get id record of "+code)
	}
	return r, nil
}

func (t *tx) CreateTenantUserIDRecord(ctx context.Context, r *models.TenantUserIDRecord) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO tenant_user_id_records (tenant_id, data_source_id, code, tenant_user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, r.TenantID, r.DataSourceID, r.Code, r.TenantUserID).Scan(&r.ID)
	return mapErr(err, "failed to create id record of "+r.Code)
}

func (t *tx) GetTenantUserIDGenerateConfig(ctx context.Context, targetTenantID string, dataSourceID int64) (*models.TenantUserIDGenerateConfig, error) {
	c := &models.TenantUserIDGenerateConfig{}
	var strategy string
	err := t.tx.QueryRow(ctx, `
		SELECT id, target_tenant_id, data_source_id, strategy, domain
		FROM tenant_user_id_generate_configs
		WHERE target_tenant_id = $1 AND data_source_id = $2
	`, targetTenantID, dataSourceID).Scan(&c.ID, &c.TargetTenantID, &c.DataSourceID, &strategy, &c.Domain)
	if err != nil {
		return nil, mapErr(err, "failed to get id generate config")
	}
	c.Strategy = shared.TenantUserIDStrategy(strategy)
	return c, nil
}

func (t *tx) GetOrCreateIdp(ctx context.Context, idp *models.Idp) (*models.Idp, bool, error) {
	pluginConfig, err := json.Marshal(idp.PluginConfig)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode idp plugin config: %w", err)
	}
	rules, err := json.Marshal(idp.DataSourceMatchRules)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode match rules: %w", err)
	}
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO idps (id, name, owner_tenant_id, status, plugin_id, plugin_config, data_source_match_rules, data_source_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner_tenant_id, name) DO NOTHING
	`, idp.ID, idp.Name, idp.OwnerTenantID, string(idp.Status), string(idp.PluginID), pluginConfig, rules, idp.DataSourceID)
	if err != nil {
		return nil, false, mapErr(err, "failed to create idp "+idp.Name)
	}

	out, err := scanIdp(t.tx.QueryRow(ctx, `
		SELECT `+idpColumns+` FROM idps WHERE owner_tenant_id = $1 AND name = $2
	`, idp.OwnerTenantID, idp.Name))
	if err != nil {
		return nil, false, mapErr(err, "failed to get idp "+idp.Name)
	}
	return out, tag.RowsAffected() == 1, nil
}

func (t *tx) ListIdps(ctx context.Context, ownerTenantID string) ([]*models.Idp, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+idpColumns+` FROM idps WHERE owner_tenant_id = $1 ORDER BY created_at`, ownerTenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list idps: %w", err)
	}
	defer rows.Close()

	var idps []*models.Idp
	for rows.Next() {
		idp, err := scanIdp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan idp: %w", err)
		}
		idps = append(idps, idp)
	}
	return idps, rows.Err()
}

const idpColumns = `id, name, owner_tenant_id, status, plugin_id, plugin_config, data_source_match_rules, data_source_id, created_at, updated_at`

func scanIdp(row pgx.Row) (*models.Idp, error) {
	idp := &models.Idp{}
	var status, pluginID string
	var pluginConfig, rules []byte
	err := row.Scan(&idp.ID, &idp.Name, &idp.OwnerTenantID, &status, &pluginID, &pluginConfig, &rules,
		&idp.DataSourceID, &idp.CreatedAt, &idp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	idp.Status = shared.IdpStatus(status)
	idp.PluginID = shared.PluginID(pluginID)
	if err := json.Unmarshal(pluginConfig, &idp.PluginConfig); err != nil {
		return nil, fmt.Errorf("failed to decode idp plugin config: %w", err)
	}
	if err := json.Unmarshal(rules, &idp.DataSourceMatchRules); err != nil {
		return nil, fmt.Errorf("failed to decode match rules: %w", err)
	}
	return idp, nil
}
