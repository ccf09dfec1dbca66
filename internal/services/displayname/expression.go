// Package displayname renders tenant user display names from the per-tenant
// expression config and builds keyword filters over the same fields.
package displayname

import (
	"regexp"

	"github.com/identity-tenancy-api/internal/models"
)

// Dash replaces every placeholder that has no value.
const Dash = "-"

// Field names may hold any Unicode letter or digit.
var fieldPattern = regexp.MustCompile(`\{([\p{L}\p{N}_]+)\}`)

// Fields partitions the placeholders of an expression.
type Fields struct {
	Builtin []string `json:"builtin"`
	Custom  []string `json:"custom"`
	Extra   []string `json:"extra"`
}

// Placeholders returns the distinct field names of expression in order of
// first appearance.
func Placeholders(expression string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range fieldPattern.FindAllStringSubmatch(expression, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Partition classifies each placeholder as builtin, custom or extra. A name
// known as both builtin and custom is builtin.
func Partition(expression string, builtin, custom map[string]bool) Fields {
	out := Fields{Builtin: []string{}, Custom: []string{}, Extra: []string{}}
	for _, name := range Placeholders(expression) {
		switch {
		case builtin[name]:
			out.Builtin = append(out.Builtin, name)
		case custom[name]:
			out.Custom = append(out.Custom, name)
		default:
			out.Extra = append(out.Extra, name)
		}
	}
	return out
}

// Render evaluates cfg.Expression for u. Only fields declared by cfg are
// resolved; anything else, and every empty value, becomes Dash.
func Render(u *models.TenantUser, cfg *models.TenantUserDisplayNameExpressionConfig) string {
	values := make(map[string]string, len(cfg.BuiltinFields)+len(cfg.CustomFields))
	for _, f := range cfg.BuiltinFields {
		values[f] = builtinValue(u, f)
	}
	for _, f := range cfg.CustomFields {
		if _, isBuiltin := values[f]; isBuiltin {
			continue
		}
		values[f] = customValue(u, f)
	}

	return fieldPattern.ReplaceAllStringFunc(cfg.Expression, func(match string) string {
		name := match[1 : len(match)-1]
		if v, ok := values[name]; ok && v != "" {
			return v
		}
		return Dash
	})
}

func builtinValue(u *models.TenantUser, field string) string {
	switch field {
	case "email":
		return u.EffectiveEmail()
	case "phone":
		return u.EffectivePhone().Number
	case "phone_country_code":
		return u.EffectivePhone().CountryCode
	}
	if u.DataSourceUser == nil {
		return ""
	}
	v, _ := u.DataSourceUser.Field(field)
	return v
}

func customValue(u *models.TenantUser, field string) string {
	if u.DataSourceUser == nil {
		return ""
	}
	v, _ := u.DataSourceUser.Extra(field)
	return v
}
