package query

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/identity-tenancy-api/internal/models"
)

func sampleUser() *models.TenantUser {
	ds := &models.DataSource{ID: 1, OwnerTenantID: "acme"}
	dsu := &models.DataSourceUser{
		ID:       10,
		Username: "ZhangSan",
		FullName: "Zhang San",
		Email:    "zhangsan@source.com",
		Phone:    "13512345671",
	}
	u := models.NewTenantUser("u1", "acme", ds, dsu)
	u.Email = models.Override("zs@custom.com")
	return u
}

func TestContainsMatchIgnoresCase(t *testing.T) {
	u := sampleUser()
	assert.True(t, Contains{Field: UserField("username"), Value: "zhang"}.Match(u))
	assert.False(t, Contains{Field: UserField("full_name"), Value: "li"}.Match(u))
	assert.True(t, Contains{Field: CustomContactField("email"), Value: "CUSTOM"}.Match(u))
}

func TestInheritanceAwareMatch(t *testing.T) {
	u := sampleUser()
	emailMatches := func(keyword string) Predicate {
		return Or{
			And{Eq{Field: InheritFlag("email"), Value: false}, Contains{Field: CustomContactField("email"), Value: keyword}},
			And{Eq{Field: InheritFlag("email"), Value: true}, Contains{Field: UserField("email"), Value: keyword}},
		}
	}

	assert.True(t, emailMatches("custom").Match(u))
	assert.False(t, emailMatches("source").Match(u))

	u.Email = models.Inherit[string]()
	assert.True(t, emailMatches("source").Match(u))
	assert.False(t, emailMatches("custom").Match(u))
}

func TestToSql(t *testing.T) {
	p := And{
		Or{
			Contains{Field: UserField("username"), Value: "50%_off"},
			Contains{Field: UserField("full_name"), Value: "zhang"},
		},
		Eq{Field: OwnerTenantField, Value: "acme"},
	}

	sql, args, err := p.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "((dsu.username ILIKE ? OR dsu.full_name ILIKE ?) AND ds.owner_tenant_id = ?)", sql)
	assert.Equal(t, []interface{}{`%50\%\_off%`, "%zhang%", "acme"}, args)

	sql, _, err = sq.Select("tu.id").From("tenant_users tu").Where(p).PlaceholderFormat(sq.Dollar).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "dsu.username ILIKE $1")
	assert.Contains(t, sql, "ds.owner_tenant_id = $3")
}

func TestNever(t *testing.T) {
	p := And{Never(), Eq{Field: TenantField, Value: "acme"}}
	assert.True(t, IsNever(p))
	assert.False(t, p.Match(sampleUser()))

	sql, args, err := Never().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(1=0)", sql)
	assert.Empty(t, args)

	assert.False(t, IsNever(Or{}))
	assert.False(t, Or{}.Match(sampleUser()))
}
