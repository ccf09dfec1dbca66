package displayname

import "github.com/identity-tenancy-api/internal/query"

// inheritGroup maps contact fields to the flag that says whether the tenant
// user inherits them.
var inheritGroup = map[string]string{
	"email":              "email",
	"phone":              "phone",
	"phone_country_code": "phone",
}

// SearchPredicate matches tenant users owned by tenantID whose builtin
// display name fields contain keyword. Custom fields are never searched.
// Without builtin fields the predicate matches nothing.
func SearchPredicate(tenantID, keyword string, builtinFields []string) query.Predicate {
	if len(builtinFields) == 0 {
		return query.Never()
	}

	var matches query.Or
	for _, field := range builtinFields {
		group, isContact := inheritGroup[field]
		if !isContact {
			matches = append(matches, query.Contains{Field: query.UserField(field), Value: keyword})
			continue
		}
		flag := query.InheritFlag(group)
		matches = append(matches, query.Or{
			query.And{
				query.Eq{Field: flag, Value: false},
				query.Contains{Field: query.CustomContactField(field), Value: keyword},
			},
			query.And{
				query.Eq{Field: flag, Value: true},
				query.Contains{Field: query.UserField(field), Value: keyword},
			},
		})
	}

	return query.And{
		matches,
		query.Eq{Field: query.OwnerTenantField, Value: tenantID},
	}
}
