package tenant

import (
	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/models/shared"
)

// TenantInfo describes the tenant row to create.
type TenantInfo struct {
	ID        string
	Name      string
	Logo      string
	Status    shared.TenantStatus
	IsDefault bool
}

// AdminInfo is the first administrator of a tenant. An empty Password skips
// the local identity record.
type AdminInfo struct {
	Username         string
	Password         string
	FullName         string
	Email            string
	Phone            string
	PhoneCountryCode string
}

// BuiltinDataSourcePolicy overrides the local plugin defaults of the builtin
// management data source.
type BuiltinDataSourcePolicy struct {
	SendPasswordNotification bool
	FixedPassword            string
	NotificationMethods      []shared.NotificationMethod
}

// VirtualUserInfo is a virtual user with an optional pinned tenant user id.
type VirtualUserInfo struct {
	Username     string
	TenantUserID string
}

type VirtualUserPolicy struct {
	Create bool
	// Username of the default virtual user, used when Users is empty.
	Username string
	Users    []VirtualUserInfo
}

// DefaultVirtualUsername is the bot identity created alongside default tenants.
const DefaultVirtualUsername = "bk_admin"

// LegacyAdminUsername is registered as a virtual user with the same tenant
// user id in single tenant deployments.
const LegacyAdminUsername = "admin"

func (p VirtualUserPolicy) users() []VirtualUserInfo {
	if !p.Create {
		return nil
	}
	if len(p.Users) > 0 {
		return p.Users
	}
	name := p.Username
	if name == "" {
		name = DefaultVirtualUsername
	}
	return []VirtualUserInfo{{Username: name}}
}

// CreatePlan is everything CreateTenant needs.
type CreatePlan struct {
	Tenant      TenantInfo
	Admin       AdminInfo
	DataSource  BuiltinDataSourcePolicy
	VirtualUser VirtualUserPolicy

	passwordGenerated bool
}

func (p *CreatePlan) applyDefaults() {
	if p.Tenant.Name == "" {
		p.Tenant.Name = p.Tenant.ID
	}
	if p.Tenant.Status == "" {
		p.Tenant.Status = shared.TenantStatusEnabled
	}
	if p.Admin.Username == "" {
		p.Admin.Username = LegacyAdminUsername
	}
	if p.Admin.FullName == "" {
		p.Admin.FullName = p.Admin.Username
	}
	if p.Admin.PhoneCountryCode == "" {
		p.Admin.PhoneCountryCode = models.DefaultPhoneCountryCode
	}
}

// Result reports what CreateTenant stored.
type Result struct {
	Tenant        *models.Tenant
	AdminUser     *models.TenantUser
	BuiltinSource *models.DataSource
	VirtualSource *models.DataSource
	Idp           *models.Idp
}
