package shared

// TenantStatus representa os status possíveis de um tenant
type TenantStatus string

const (
	TenantStatusEnabled  TenantStatus = "enabled"
	TenantStatusDisabled TenantStatus = "disabled"
)

// DataSourceType distinguishes the builtin management source, the virtual
// source holding bot identities and regular (real) directories.
type DataSourceType string

const (
	DataSourceTypeBuiltinManagement DataSourceType = "builtin_management"
	DataSourceTypeVirtual           DataSourceType = "virtual"
	DataSourceTypeReal              DataSourceType = "real"
)

// PluginID identifies a data source or IdP plugin.
type PluginID string

const (
	PluginLocal   PluginID = "local"
	PluginGeneral PluginID = "general"
)

type IdpStatus string

const (
	IdpStatusEnabled  IdpStatus = "enabled"
	IdpStatusDisabled IdpStatus = "disabled"
)

type NotificationMethod string

const (
	NotificationMethodEmail NotificationMethod = "email"
	NotificationMethodSMS   NotificationMethod = "sms"
)

// Valid reports whether m is a known delivery channel.
func (m NotificationMethod) Valid() bool {
	return m == NotificationMethodEmail || m == NotificationMethodSMS
}

type PasswordGenerateMethod string

const (
	PasswordGenerateMethodRandom PasswordGenerateMethod = "random"
	PasswordGenerateMethodFixed  PasswordGenerateMethod = "fixed"
)

// TenantUserIDStrategy selects how tenant user ids are derived for a data source.
type TenantUserIDStrategy string

const (
	TenantUserIDStrategyRandomCode         TenantUserIDStrategy = "random_code"
	TenantUserIDStrategyUUID4Hex           TenantUserIDStrategy = "uuid4_hex"
	TenantUserIDStrategyUsername           TenantUserIDStrategy = "username"
	TenantUserIDStrategyUsernameWithDomain TenantUserIDStrategy = "username_with_domain"
)
