package models

import (
	"time"

	"github.com/identity-tenancy-api/internal/models/shared"
)

// FieldCompareRule maps an IdP attribute onto a data source user field.
type FieldCompareRule struct {
	SourceField string `json:"source_field"`
	TargetField string `json:"target_field"`
}

// DataSourceMatchRule binds an IdP to a data source.
type DataSourceMatchRule struct {
	DataSourceID      int64              `json:"data_source_id"`
	FieldCompareRules []FieldCompareRule `json:"field_compare_rules"`
}

// LocalMatchRule is the rule a local credential IdP uses for dataSourceID.
func LocalMatchRule(dataSourceID int64) DataSourceMatchRule {
	return DataSourceMatchRule{
		DataSourceID:      dataSourceID,
		FieldCompareRules: []FieldCompareRule{{SourceField: "username", TargetField: "username"}},
	}
}

// IdpPluginConfig is the configuration of the local credential IdP plugin.
type IdpPluginConfig struct {
	DataSourceIDs []int64 `json:"data_source_ids"`
}

type Idp struct {
	ID                   string                `json:"id"`
	Name                 string                `json:"name"`
	OwnerTenantID        string                `json:"owner_tenant_id"`
	Status               shared.IdpStatus      `json:"status"`
	PluginID             shared.PluginID       `json:"plugin_id"`
	PluginConfig         IdpPluginConfig       `json:"plugin_config"`
	DataSourceMatchRules []DataSourceMatchRule `json:"data_source_match_rules"`
	DataSourceID         int64                 `json:"data_source_id"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

const BuiltinIdpName = "Administrator"

type IdpSensitiveInfo struct {
	ID    int64  `json:"id"`
	IdpID string `json:"idp_id"`
	Key   string `json:"key"`
	Value string `json:"-"`
}
