package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/identity-tenancy-api/internal/models/shared"
)

// PluginConfig is the per-plugin configuration carried by a data source.
// Concrete variants live under internal/plugins.
type PluginConfig interface {
	PluginID() shared.PluginID
	Validate() error
}

type DataSource struct {
	ID            int64                 `json:"id"`
	OwnerTenantID string                `json:"owner_tenant_id"`
	Type          shared.DataSourceType `json:"type"`
	PluginID      shared.PluginID       `json:"plugin_id"`
	PluginConfig  PluginConfig          `json:"plugin_config"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func (d *DataSource) IsLocal() bool {
	return d.PluginID == shared.PluginLocal
}

func (d *DataSource) IsReal() bool {
	return d.Type == shared.DataSourceTypeReal
}

type DataSourceUser struct {
	ID               int64          `json:"id"`
	DataSourceID     int64          `json:"data_source_id"`
	Code             string         `json:"code"`
	Username         string         `json:"username"`
	FullName         string         `json:"full_name"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone"`
	PhoneCountryCode string         `json:"phone_country_code"`
	Extras           map[string]any `json:"extras"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Field returns the builtin attribute called name.
func (u *DataSourceUser) Field(name string) (string, bool) {
	switch name {
	case "username":
		return u.Username, true
	case "full_name":
		return u.FullName, true
	case "email":
		return u.Email, true
	case "phone":
		return u.Phone, true
	case "phone_country_code":
		return u.PhoneCountryCode, true
	}
	return "", false
}

// Extra returns the stringified custom field value.
func (u *DataSourceUser) Extra(name string) (string, bool) {
	v, ok := u.Extras[name]
	if !ok || v == nil {
		return "", false
	}
	return formatExtra(v), true
}

// formatExtra renders a custom field value the way directory exports show
// it: booleans as True/False, lists and objects with quoted string items.
func formatExtra(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return extraRepr(v)
}

func extraRepr(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "\\'") + "'"
	case bool:
		if val {
			return "True"
		}
		return "False"
	case []any:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = extraRepr(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case []string:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = extraRepr(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]string, len(keys))
		for i, k := range keys {
			items[i] = extraRepr(k) + ": " + extraRepr(val[k])
		}
		return "{" + strings.Join(items, ", ") + "}"
	}
	return fmt.Sprint(v)
}

// LocalDataSourceIdentityInfo stores credentials of a local data source user.
type LocalDataSourceIdentityInfo struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"user_id"`
	DataSourceID      int64     `json:"data_source_id"`
	Username          string    `json:"username"`
	Password          string    `json:"-"`
	PasswordUpdatedAt time.Time `json:"password_updated_at"`
	PasswordExpiredAt time.Time `json:"password_expired_at"`
}

// PermanentTime marks credentials and accounts that never expire.
var PermanentTime = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)

type DataSourceDepartment struct {
	ID           int64  `json:"id"`
	DataSourceID int64  `json:"data_source_id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
}

// DataSourceDepartmentRelation is one node of the department tree.
type DataSourceDepartmentRelation struct {
	ID           int64 `json:"id"`
	DataSourceID int64 `json:"data_source_id"`
	DepartmentID int64 `json:"department_id"`
	ParentID     int64 `json:"parent_id"`
}

type DataSourceDepartmentUserRelation struct {
	ID           int64 `json:"id"`
	DataSourceID int64 `json:"data_source_id"`
	DepartmentID int64 `json:"department_id"`
	UserID       int64 `json:"user_id"`
}

type DataSourceUserLeaderRelation struct {
	ID           int64 `json:"id"`
	DataSourceID int64 `json:"data_source_id"`
	UserID       int64 `json:"user_id"`
	LeaderID     int64 `json:"leader_id"`
}

// DataSourceSensitiveInfo keeps secret plugin config values out of the main row.
type DataSourceSensitiveInfo struct {
	ID           int64  `json:"id"`
	DataSourceID int64  `json:"data_source_id"`
	Key          string `json:"key"`
	Value        string `json:"-"`
}
