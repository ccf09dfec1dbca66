package models

import (
	"time"

	"github.com/identity-tenancy-api/internal/models/shared"
)

type Tenant struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Logo      string              `json:"logo"`
	Status    shared.TenantStatus `json:"status"`
	IsDefault bool                `json:"is_default"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// TenantUserValidityPeriodConfig holds the account validity defaults of a tenant.
type TenantUserValidityPeriodConfig struct {
	ID                         int64                       `json:"id"`
	TenantID                   string                      `json:"tenant_id"`
	Enabled                    bool                        `json:"enabled"`
	ValidityPeriod             int                         `json:"validity_period"` // days, -1 = permanent
	RemindBeforeExpire         []int                       `json:"remind_before_expire"`
	EnabledNotificationMethods []shared.NotificationMethod `json:"enabled_notification_methods"`
	CreatedAt                  time.Time                   `json:"created_at"`
	UpdatedAt                  time.Time                   `json:"updated_at"`
}

// DefaultValidityPeriodConfig returns the settings every new tenant starts with.
func DefaultValidityPeriodConfig(tenantID string) *TenantUserValidityPeriodConfig {
	return &TenantUserValidityPeriodConfig{
		TenantID:                   tenantID,
		Enabled:                    true,
		ValidityPeriod:             365,
		RemindBeforeExpire:         []int{7},
		EnabledNotificationMethods: []shared.NotificationMethod{shared.NotificationMethodEmail},
	}
}

// TenantUserDisplayNameExpressionConfig is the per-tenant display name template
// together with the placeholders it references, partitioned by field kind.
type TenantUserDisplayNameExpressionConfig struct {
	ID            int64     `json:"id"`
	TenantID      string    `json:"tenant_id"`
	Expression    string    `json:"expression"`
	BuiltinFields []string  `json:"builtin_fields"`
	CustomFields  []string  `json:"custom_fields"`
	ExtraFields   []string  `json:"extra_fields"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const DefaultDisplayNameExpression = "{username}({full_name})"

func DefaultDisplayNameConfig(tenantID string) *TenantUserDisplayNameExpressionConfig {
	return &TenantUserDisplayNameExpressionConfig{
		TenantID:      tenantID,
		Expression:    DefaultDisplayNameExpression,
		BuiltinFields: []string{"username", "full_name"},
		CustomFields:  []string{},
		ExtraFields:   []string{},
	}
}

// UserBuiltinField describes a system-defined user attribute.
type UserBuiltinField struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	DataType    string `json:"data_type"`
	Required    bool   `json:"required"`
	Unique      bool   `json:"unique"`
}

// DefaultBuiltinFields are seeded by the schema migration.
var DefaultBuiltinFields = []*UserBuiltinField{
	{ID: 1, Name: "username", DisplayName: "Username", DataType: "string", Required: true, Unique: true},
	{ID: 2, Name: "full_name", DisplayName: "Full name", DataType: "string", Required: true},
	{ID: 3, Name: "email", DisplayName: "Email", DataType: "string"},
	{ID: 4, Name: "phone", DisplayName: "Phone", DataType: "string"},
	{ID: 5, Name: "phone_country_code", DisplayName: "Phone country code", DataType: "string"},
}

type TenantUserCustomField struct {
	ID          int64  `json:"id"`
	TenantID    string `json:"tenant_id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	DataType    string `json:"data_type"`
	Required    bool   `json:"required"`
}

// TenantManager marks a tenant user as administrator of the tenant.
type TenantManager struct {
	ID           int64     `json:"id"`
	TenantID     string    `json:"tenant_id"`
	TenantUserID string    `json:"tenant_user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// CollaborationStrategy shares users of SourceTenantID with TargetTenantID.
type CollaborationStrategy struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	SourceTenantID string `json:"source_tenant_id"`
	TargetTenantID string `json:"target_tenant_id"`
}

type TenantCommonVariable struct {
	ID       int64  `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}

type TenantDepartment struct {
	ID                     int64  `json:"id"`
	TenantID               string `json:"tenant_id"`
	DataSourceID           int64  `json:"data_source_id"`
	DataSourceDepartmentID int64  `json:"data_source_department_id"`
}

// TenantUserIDRecord pins the tenant user id allocated for a data source user code.
type TenantUserIDRecord struct {
	ID           int64  `json:"id"`
	TenantID     string `json:"tenant_id"`
	DataSourceID int64  `json:"data_source_id"`
	Code         string `json:"code"`
	TenantUserID string `json:"tenant_user_id"`
}

type TenantDepartmentIDRecord struct {
	ID                 int64  `json:"id"`
	TenantID           string `json:"tenant_id"`
	DataSourceID       int64  `json:"data_source_id"`
	Code               string `json:"code"`
	TenantDepartmentID int64  `json:"tenant_department_id"`
}

// TenantUserIDGenerateConfig overrides the id strategy for users of a data
// source as seen from TargetTenantID.
type TenantUserIDGenerateConfig struct {
	ID             int64                       `json:"id"`
	TargetTenantID string                      `json:"target_tenant_id"`
	DataSourceID   int64                       `json:"data_source_id"`
	Strategy       shared.TenantUserIDStrategy `json:"strategy"`
	Domain         string                      `json:"domain,omitempty"`
}

// VirtualUserAppRelation binds a virtual user to the app that operates it.
type VirtualUserAppRelation struct {
	ID           int64  `json:"id"`
	TenantID     string `json:"tenant_id"`
	TenantUserID string `json:"tenant_user_id"`
	AppCode      string `json:"app_code"`
}

type VirtualUserOwnerRelation struct {
	ID           int64  `json:"id"`
	TenantID     string `json:"tenant_id"`
	TenantUserID string `json:"tenant_user_id"`
	OwnerID      string `json:"owner_id"`
}

// LegacyUser is the account record written on login; its display name is the
// fallback for tenant users that no longer exist.
type LegacyUser struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}
