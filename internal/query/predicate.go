// Package query builds tenant user filters that compile to SQL through
// squirrel and can be evaluated against loaded rows.
package query

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/identity-tenancy-api/internal/models"
)

// Predicate is a filter over pre-joined tenant users.
type Predicate interface {
	sq.Sqlizer
	Match(u *models.TenantUser) bool
}

// Field is a column of the tenant user search join together with its
// in-memory accessor.
type Field struct {
	Column string
	value  func(u *models.TenantUser) any
}

// UserField addresses a builtin attribute of the directory user.
func UserField(name string) Field {
	return Field{
		Column: "dsu." + name,
		value: func(u *models.TenantUser) any {
			if u.DataSourceUser == nil {
				return ""
			}
			v, _ := u.DataSourceUser.Field(name)
			return v
		},
	}
}

// CustomContactField addresses the tenant-level override of a contact field
// (email, phone or phone_country_code).
func CustomContactField(name string) Field {
	return Field{
		Column: "tu.custom_" + name,
		value: func(u *models.TenantUser) any {
			switch name {
			case "email":
				return u.Email.Value
			case "phone":
				return u.Phone.Value.Number
			case "phone_country_code":
				return u.Phone.Value.CountryCode
			}
			return ""
		},
	}
}

// InheritFlag addresses is_inherited_email or is_inherited_phone.
func InheritFlag(group string) Field {
	return Field{
		Column: "tu.is_inherited_" + group,
		value: func(u *models.TenantUser) any {
			if group == "email" {
				return u.Email.Inherited
			}
			return u.Phone.Inherited
		},
	}
}

var (
	TenantField = Field{
		Column: "tu.tenant_id",
		value:  func(u *models.TenantUser) any { return u.TenantID },
	}
	OwnerTenantField = Field{
		Column: "ds.owner_tenant_id",
		value:  func(u *models.TenantUser) any { return u.OwnerTenantID() },
	}
)

// Contains matches rows whose field contains Value, ignoring case.
type Contains struct {
	Field Field
	Value string
}

func (c Contains) ToSql() (string, []interface{}, error) {
	return sq.ILike{c.Field.Column: "%" + escapeLike(c.Value) + "%"}.ToSql()
}

func (c Contains) Match(u *models.TenantUser) bool {
	s, _ := c.Field.value(u).(string)
	return strings.Contains(strings.ToLower(s), strings.ToLower(c.Value))
}

// Eq matches rows whose field equals Value.
type Eq struct {
	Field Field
	Value any
}

func (e Eq) ToSql() (string, []interface{}, error) {
	return sq.Eq{e.Field.Column: e.Value}.ToSql()
}

func (e Eq) Match(u *models.TenantUser) bool {
	return e.Field.value(u) == e.Value
}

// And matches when every member matches. An empty And matches everything.
type And []Predicate

func (a And) ToSql() (string, []interface{}, error) {
	return sq.And(sqlizers(a)).ToSql()
}

func (a And) Match(u *models.TenantUser) bool {
	for _, p := range a {
		if !p.Match(u) {
			return false
		}
	}
	return true
}

// Or matches when any member matches. An empty Or matches nothing.
type Or []Predicate

func (o Or) ToSql() (string, []interface{}, error) {
	return sq.Or(sqlizers(o)).ToSql()
}

func (o Or) Match(u *models.TenantUser) bool {
	for _, p := range o {
		if p.Match(u) {
			return true
		}
	}
	return false
}

type never struct{}

// Never matches no row.
func Never() Predicate {
	return never{}
}

func (never) ToSql() (string, []interface{}, error) {
	return "(1=0)", nil, nil
}

func (never) Match(*models.TenantUser) bool {
	return false
}

// IsNever reports whether p can be skipped without querying.
func IsNever(p Predicate) bool {
	switch v := p.(type) {
	case never:
		return true
	case And:
		for _, member := range v {
			if IsNever(member) {
				return true
			}
		}
	}
	return false
}

func sqlizers(ps []Predicate) []sq.Sqlizer {
	out := make([]sq.Sqlizer, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
