package models

import "time"

// TenantUser links a data source user into a tenant. DataSourceUser and
// DataSource are populated by repository reads so batch callers never have
// to fetch them per user.
type TenantUser struct {
	ID               string              `json:"id"`
	TenantID         string              `json:"tenant_id"`
	DataSourceID     int64               `json:"data_source_id"`
	DataSourceUserID int64               `json:"data_source_user_id"`
	Email            Overridable[string] `json:"email"`
	Phone            Overridable[Phone]  `json:"phone"`
	AccountExpiredAt time.Time           `json:"account_expired_at"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`

	DataSourceUser *DataSourceUser `json:"-"`
	DataSource     *DataSource     `json:"-"`
}

// NewTenantUser returns a tenant user that inherits every contact value.
func NewTenantUser(id, tenantID string, ds *DataSource, dsUser *DataSourceUser) *TenantUser {
	return &TenantUser{
		ID:               id,
		TenantID:         tenantID,
		DataSourceID:     ds.ID,
		DataSourceUserID: dsUser.ID,
		Email:            Inherit[string](),
		Phone:            Inherit[Phone](),
		AccountExpiredAt: PermanentTime,
		DataSourceUser:   dsUser,
		DataSource:       ds,
	}
}

// EffectiveEmail resolves the email shown for this tenant user.
func (u *TenantUser) EffectiveEmail() string {
	var fallback string
	if u.DataSourceUser != nil {
		fallback = u.DataSourceUser.Email
	}
	return Effective(u.Email, fallback)
}

// EffectivePhone resolves phone number and country code together.
func (u *TenantUser) EffectivePhone() Phone {
	var fallback Phone
	if u.DataSourceUser != nil {
		fallback = Phone{Number: u.DataSourceUser.Phone, CountryCode: u.DataSourceUser.PhoneCountryCode}
	}
	return Effective(u.Phone, fallback)
}

// OwnerTenantID is the tenant owning the user's data source, empty when the
// data source was not loaded.
func (u *TenantUser) OwnerTenantID() string {
	if u.DataSource == nil {
		return ""
	}
	return u.DataSource.OwnerTenantID
}
