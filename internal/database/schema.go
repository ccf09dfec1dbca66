package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/models"
)

// Migrate applies the schema and seeds the builtin user fields. It is safe to
// run repeatedly.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	for _, f := range models.DefaultBuiltinFields {
		_, err := tx.Exec(ctx,
			`INSERT INTO user_builtin_fields (id, name, display_name, data_type, required, "unique")
			 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (name) DO NOTHING`,
			f.ID, f.Name, f.DisplayName, f.DataType, f.Required, f.Unique,
		)
		if err != nil {
			return fmt.Errorf("failed to seed builtin field %s: %w", f.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	log.Info("schema migrated")
	return nil
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS tenants (
		id VARCHAR(32) PRIMARY KEY,
		name VARCHAR(128) NOT NULL,
		logo TEXT NOT NULL DEFAULT '',
		status VARCHAR(32) NOT NULL DEFAULT 'enabled',
		is_default BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS tenant_user_validity_period_configs (
		id BIGSERIAL PRIMARY KEY,
		tenant_id VARCHAR(32) NOT NULL UNIQUE REFERENCES tenants(id),
		enabled BOOLEAN NOT NULL DEFAULT true,
		validity_period INTEGER NOT NULL,
		remind_before_expire INTEGER[] NOT NULL DEFAULT '{}',
		enabled_notification_methods TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS tenant_user_display_name_expression_configs (
		id BIGSERIAL PRIMARY KEY,
		tenant_id VARCHAR(32) NOT NULL UNIQUE REFERENCES tenants(id),
		expression TEXT NOT NULL,
		builtin_fields TEXT[] NOT NULL DEFAULT '{}',
		custom_fields TEXT[] NOT NULL DEFAULT '{}',
		extra_fields TEXT[] NOT NULL DEFAULT '{}',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS user_builtin_fields (
		id BIGINT PRIMARY KEY,
		name VARCHAR(128) NOT NULL UNIQUE,
		display_name VARCHAR(128) NOT NULL,
		data_type VARCHAR(32) NOT NULL,
		required BOOLEAN NOT NULL DEFAULT false,
		"unique" BOOLEAN NOT NULL DEFAULT false
	);

	CREATE TABLE IF NOT EXISTS tenant_user_custom_fields (
		id BIGSERIAL PRIMARY KEY,
		tenant_id VARCHAR(32) NOT NULL REFERENCES tenants(id),
		name VARCHAR(128) NOT NULL,
		display_name VARCHAR(128) NOT NULL,
		data_type VARCHAR(32) NOT NULL,
		required BOOLEAN NOT NULL DEFAULT false,
		UNIQUE (tenant_id, name)
	);

	CREATE TABLE IF NOT EXISTS data_sources (
		id BIGSERIAL PRIMARY KEY,
		owner_tenant_id VARCHAR(32) NOT NULL REFERENCES tenants(id),
		type VARCHAR(32) NOT NULL,
		plugin_id VARCHAR(64) NOT NULL,
		plugin_config JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS data_source_users (
		id BIGSERIAL PRIMARY KEY,
		data_source_id BIGINT NOT NULL REFERENCES data_sources(id),
		code VARCHAR(128) NOT NULL,
		username VARCHAR(128) NOT NULL,
		full_name VARCHAR(128) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(32) NOT NULL DEFAULT '',
		phone_country_code VARCHAR(16) NOT NULL DEFAULT '',
		extras JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (data_source_id, username),
		UNIQUE (data_source_id, code)
	);

	CREATE TABLE IF NOT EXISTS local_data_source_identity_infos (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES data_source_users(id),
		data_source_id BIGINT NOT NULL REFERENCES data_sources(id),
		username VARCHAR(128) NOT NULL,
		password TEXT NOT NULL DEFAULT '',
		password_updated_at TIMESTAMPTZ,
		password_expired_at TIMESTAMPTZ,
		UNIQUE (data_source_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS data_source_departments (
		id BIGSERIAL PRIMARY KEY,
		data_source_id BIGINT NOT NULL REFERENCES data_sources(id),
		code VARCHAR(128) NOT NULL,
		name VARCHAR(255) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS data_source_department_relations (
		id BIGSERIAL PRIMARY KEY,
		data_source_id BIGINT NOT NULL REFERENCES data_sources(id),
		department_id BIGINT NOT NULL REFERENCES data_source_departments(id),
		parent_id BIGINT
	);

	CREATE TABLE IF NOT EXISTS data_source_department_user_relations (
		id BIGSERIAL PRIMARY KEY,
		data_source_id BIGINT NOT NULL REFERENCES data_sources(id),
		department_id BIGINT NOT NULL REFERENCES data_source_departments(id),
		user_id BIGINT NOT NULL REFERENCES data_source_users(id)
	);

	CREATE TABLE IF NOT EXISTS data_source_user_leader_relations (
		id BIGSERIAL PRIMARY KEY,
		data_source_id BIGINT NOT NULL REFERENCES data_sources(id),
		user_id BIGINT NOT NULL REFERENCES data_source_users(id),
		leader_id BIGINT NOT NULL REFERENCES data_source_users(id)
	);

	CREATE TABLE IF NOT EXISTS data_source_sensitive_infos (
		id BIGSERIAL PRIMARY KEY,
		data_source_id BIGINT NOT NULL REFERENCES data_sources(id),
		key VARCHAR(255) NOT NULL,
		value TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS tenant_users (
		id VARCHAR(64) PRIMARY KEY,
		tenant_id VARCHAR(32) NOT NULL REFERENCES tenants(id),
		data_source_id BIGINT NOT NULL REFERENCES data_sources(id),
		data_source_user_id BIGINT NOT NULL REFERENCES data_source_users(id),
		is_inherited_email BOOLEAN NOT NULL DEFAULT true,
		custom_email VARCHAR(255) NOT NULL DEFAULT '',
		is_inherited_phone BOOLEAN NOT NULL DEFAULT true,
		custom_phone VARCHAR(32) NOT NULL DEFAULT '',
		custom_phone_country_code VARCHAR(16) NOT NULL DEFAULT '',
		account_expired_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (tenant_id, data_source_user_id)
	);

	CREATE TABLE IF NOT EXISTS tenant_managers (
		id BIGSERIAL PRIMARY KEY,
		tenant_id VARCHAR(32) NOT NULL REFERENCES tenants(id),
		tenant_user_id VARCHAR(64) NOT NULL REFERENCES tenant_users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (tenant_id, tenant_user_id)
	);

	CREATE TABLE IF NOT EXISTS tenant_departments (
		id BIGSERIAL PRIMARY KEY,
		tenant_id VARCHAR(32) NOT NULL REFERENCES tenants(id),
		data_source_id BIGINT NOT NULL REFERENCES data_sources(id),
		data_source_department_id BIGINT NOT NULL REFERENCES data_source_departments(id)
	);

	CREATE TABLE IF NOT EXISTS tenant_user_id_records (
		id BIGSERIAL PRIMARY KEY,
		tenant_id VARCHAR(32) NOT NULL REFERENCES tenants(id),
		data_source_id BIGINT NOT NULL REFERENCES data_sources(id),
		code VARCHAR(128) NOT NULL,
		tenant_user_id VARCHAR(64) NOT NULL,
		UNIQUE (tenant_id, data_source_id, code)
	);

	CREATE TABLE IF NOT EXISTS tenant_department_id_records (
		id BIGSERIAL PRIMARY KEY,
		tenant_id VARCHAR(32) NOT NULL REFERENCES tenants(id),
		data_source_id BIGINT NOT NULL REFERENCES data_sources(id),
		code VARCHAR(128) NOT NULL,
		tenant_department_id BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tenant_user_id_generate_configs (
		id BIGSERIAL PRIMARY KEY,
		target_tenant_id VARCHAR(32) NOT NULL REFERENCES tenants(id),
		data_source_id BIGINT NOT NULL REFERENCES data_sources(id),
		strategy VARCHAR(32) NOT NULL,
		domain VARCHAR(255) NOT NULL DEFAULT '',
		UNIQUE (target_tenant_id, data_source_id)
	);

	CREATE TABLE IF NOT EXISTS collaboration_strategies (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(128) NOT NULL,
		source_tenant_id VARCHAR(32) NOT NULL REFERENCES tenants(id),
		target_tenant_id VARCHAR(32) NOT NULL REFERENCES tenants(id)
	);

	CREATE TABLE IF NOT EXISTS tenant_common_variables (
		id BIGSERIAL PRIMARY KEY,
		tenant_id VARCHAR(32) NOT NULL REFERENCES tenants(id),
		name VARCHAR(128) NOT NULL,
		value TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS idps (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(128) NOT NULL,
		owner_tenant_id VARCHAR(32) NOT NULL REFERENCES tenants(id),
		status VARCHAR(32) NOT NULL DEFAULT 'enabled',
		plugin_id VARCHAR(64) NOT NULL,
		plugin_config JSONB NOT NULL DEFAULT '{}',
		data_source_match_rules JSONB NOT NULL DEFAULT '[]',
		data_source_id BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (owner_tenant_id, name)
	);

	CREATE TABLE IF NOT EXISTS idp_sensitive_infos (
		id BIGSERIAL PRIMARY KEY,
		idp_id VARCHAR(64) NOT NULL REFERENCES idps(id),
		key VARCHAR(255) NOT NULL,
		value TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS virtual_user_app_relations (
		id BIGSERIAL PRIMARY KEY,
		tenant_id VARCHAR(32) NOT NULL REFERENCES tenants(id),
		tenant_user_id VARCHAR(64) NOT NULL REFERENCES tenant_users(id),
		app_code VARCHAR(128) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS virtual_user_owner_relations (
		id BIGSERIAL PRIMARY KEY,
		tenant_id VARCHAR(32) NOT NULL REFERENCES tenants(id),
		tenant_user_id VARCHAR(64) NOT NULL REFERENCES tenant_users(id),
		owner_id VARCHAR(64) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS legacy_users (
		username VARCHAR(128) PRIMARY KEY,
		display_name VARCHAR(255) NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_data_sources_owner ON data_sources(owner_tenant_id);
	CREATE INDEX IF NOT EXISTS idx_tenant_users_tenant ON tenant_users(tenant_id);
	CREATE INDEX IF NOT EXISTS idx_tenant_users_data_source ON tenant_users(data_source_id);
	CREATE INDEX IF NOT EXISTS idx_idps_owner ON idps(owner_tenant_id);
`
