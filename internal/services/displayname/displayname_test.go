package displayname

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/cache"
	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/models/shared"
	"github.com/identity-tenancy-api/internal/plugins/local"
	"github.com/identity-tenancy-api/internal/query"
	"github.com/identity-tenancy-api/internal/repository"
	"github.com/identity-tenancy-api/internal/repository/memory"
)

type fixture struct {
	store *memory.Store
	ds    *models.DataSource
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := memory.New()
	require.NoError(t, err)
	ctx := context.Background()

	ds := &models.DataSource{OwnerTenantID: "acme", Type: shared.DataSourceTypeReal, PluginID: shared.PluginLocal, PluginConfig: local.DefaultConfig()}
	require.NoError(t, store.Update(ctx, func(tx repository.Tx) error {
		if err := tx.CreateTenant(ctx, &models.Tenant{ID: "acme", Name: "Acme"}); err != nil {
			return err
		}
		if err := tx.CreateCustomField(ctx, &models.TenantUserCustomField{TenantID: "acme", Name: "nickname", DataType: "string"}); err != nil {
			return err
		}
		return tx.CreateDataSource(ctx, ds)
	}))
	return &fixture{store: store, ds: ds}
}

func (f *fixture) addUser(t *testing.T, id string, dsu *models.DataSourceUser, mutate func(u *models.TenantUser)) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Update(ctx, func(tx repository.Tx) error {
		dsu.DataSourceID = f.ds.ID
		if dsu.Code == "" {
			dsu.Code = dsu.Username
		}
		if err := tx.CreateDataSourceUser(ctx, dsu); err != nil {
			return err
		}
		u := models.NewTenantUser(id, "acme", f.ds, dsu)
		if mutate != nil {
			mutate(u)
		}
		return tx.CreateTenantUser(ctx, u)
	}))
}

func (f *fixture) setExpression(t *testing.T, h *Handler, expression string) {
	t.Helper()
	_, err := h.UpdateConfig(context.Background(), "acme", expression)
	require.NoError(t, err)
}

func TestPartition(t *testing.T) {
	builtin := map[string]bool{"username": true, "full_name": true, "email": true}
	custom := map[string]bool{"nickname": true, "email": true}

	got := Partition("{username}/{nickname}/{email}/{age}/{username}", builtin, custom)
	assert.Equal(t, []string{"username", "email"}, got.Builtin)
	assert.Equal(t, []string{"nickname"}, got.Custom)
	assert.Equal(t, []string{"age"}, got.Extra)

	empty := Partition("no placeholders", builtin, custom)
	assert.Empty(t, empty.Builtin)
	assert.Empty(t, empty.Custom)
	assert.Empty(t, empty.Extra)
}

func TestRenderSubstitutesDash(t *testing.T) {
	u := models.NewTenantUser("u1", "acme", &models.DataSource{}, &models.DataSourceUser{Username: "zhangsan"})
	cfg := &models.TenantUserDisplayNameExpressionConfig{
		Expression:    "{username}-{email}",
		BuiltinFields: []string{"username", "email"},
	}
	assert.Equal(t, "zhangsan--", Render(u, cfg))
}

func TestRenderResolvesEveryFieldKind(t *testing.T) {
	dsu := &models.DataSourceUser{
		Username:         "lisi",
		FullName:         "Li Si",
		Email:            "lisi@dir.com",
		Phone:            "13000000000",
		PhoneCountryCode: "86",
		Extras:           map[string]any{"nickname": "ls", "level": 3, "empty": nil},
	}
	u := models.NewTenantUser("u2", "acme", &models.DataSource{}, dsu)
	u.Email = models.Override("lisi@tenant.com")
	u.Phone = models.Override(models.Phone{Number: "13111111111", CountryCode: "1"})

	cfg := &models.TenantUserDisplayNameExpressionConfig{
		Expression:    "{full_name} <{email}> +{phone_country_code} {phone} [{nickname}|{level}|{empty}|{unknown}]",
		BuiltinFields: []string{"full_name", "email", "phone_country_code", "phone"},
		CustomFields:  []string{"nickname", "level", "empty"},
		ExtraFields:   []string{"unknown"},
	}
	assert.Equal(t, "Li Si <lisi@tenant.com> +1 13111111111 [ls|3|-|-]", Render(u, cfg))

	u.Email = models.Inherit[string]()
	u.Phone = models.Inherit[models.Phone]()
	assert.Equal(t, "Li Si <lisi@dir.com> +86 13000000000 [ls|3|-|-]", Render(u, cfg))
}

func TestRenderToleratesMissingDirectoryUser(t *testing.T) {
	u := &models.TenantUser{ID: "ghost", Email: models.Inherit[string](), Phone: models.Inherit[models.Phone]()}
	cfg := models.DefaultDisplayNameConfig("acme")
	assert.Equal(t, "-(-)", Render(u, cfg))
}

func TestGetConfigFallsBackToDefault(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.store, nil, zap.NewNop())

	cfg, err := h.GetConfig(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDisplayNameExpression, cfg.Expression)
}

func TestGetDisplayNameMapByIDs(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.store, nil, zap.NewNop())
	f.addUser(t, "u1", &models.DataSourceUser{Username: "zhangsan", FullName: "Zhang San"}, nil)
	require.NoError(t, f.store.Seed(models.TableLegacyUsers,
		&models.LegacyUser{Username: "old", DisplayName: "Old Timer"},
		&models.LegacyUser{Username: "bare"},
	))

	ids := []string{"u1", "old", "bare", "nobody", "u1"}
	got, err := h.GetDisplayNameMapByIDs(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"u1":     "zhangsan(Zhang San)",
		"old":    "Old Timer",
		"bare":   "bare",
		"nobody": "nobody",
	}, got)
}

func TestBatchRenderUsesTenantExpression(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.store, nil, zap.NewNop())
	f.setExpression(t, h, "{full_name}@{nickname}")
	f.addUser(t, "u1", &models.DataSourceUser{Username: "a", FullName: "A", Extras: map[string]any{"nickname": "aa"}}, nil)
	f.addUser(t, "u2", &models.DataSourceUser{Username: "b", FullName: "B"}, nil)

	var users []*models.TenantUser
	require.NoError(t, f.store.View(context.Background(), func(tx repository.Tx) error {
		var err error
		users, err = tx.ListTenantUsersByIDs(context.Background(), []string{"u1", "u2"})
		return err
	}))

	got, err := h.BatchRender(context.Background(), users)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"u1": "A@aa", "u2": "B@-"}, got)

	empty, err := h.BatchRender(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateConfigValidation(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.store, nil, zap.NewNop())
	ctx := context.Background()

	_, err := h.UpdateConfig(ctx, "acme", "  ")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = h.UpdateConfig(ctx, "acme", "{age}")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = h.UpdateConfig(ctx, "missing", "{username}")
	assert.ErrorIs(t, err, models.ErrNotFound)

	cfg, err := h.UpdateConfig(ctx, "acme", "{nickname}:{username}:{age}")
	require.NoError(t, err)
	assert.Equal(t, []string{"username"}, cfg.BuiltinFields)
	assert.Equal(t, []string{"nickname"}, cfg.CustomFields)
	assert.Equal(t, []string{"age"}, cfg.ExtraFields)
}

func TestUpdateConfigInvalidatesCache(t *testing.T) {
	f := newFixture(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	h := NewHandler(f.store, cache.Wrap(rdb, time.Minute), zap.NewNop())
	ctx := context.Background()

	f.setExpression(t, h, "{username}")
	cfg, err := h.GetConfig(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "{username}", cfg.Expression)
	assert.True(t, mr.Exists("tenant:acme:display_name_config"))

	f.setExpression(t, h, "{full_name}")
	assert.False(t, mr.Exists("tenant:acme:display_name_config"))

	cfg, err = h.GetConfig(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "{full_name}", cfg.Expression)
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.store, nil, zap.NewNop())

	got, err := h.Preview(context.Background(), "acme", "{username}({full_name}) {email} +{phone_country_code}{phone} {nickname}")
	require.NoError(t, err)
	assert.Equal(t, "zhangsan(张三) zhangsan@m.com +8613512345671 -", got)
}

func TestUpdateContactOverrides(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.store, nil, zap.NewNop())
	ctx := context.Background()
	f.addUser(t, "u1", &models.DataSourceUser{Username: "a", Email: "a@dir.com", Phone: "100"}, nil)

	require.NoError(t, h.UpdateTenantUserEmail(ctx, "u1", false, "a@tenant.com"))
	require.NoError(t, h.UpdateTenantUserPhone(ctx, "u1", false, models.Phone{Number: "200"}))

	var u *models.TenantUser
	load := func() {
		require.NoError(t, f.store.View(ctx, func(tx repository.Tx) error {
			var err error
			u, err = tx.GetTenantUser(ctx, "u1")
			return err
		}))
	}
	load()
	assert.Equal(t, "a@tenant.com", u.EffectiveEmail())
	assert.Equal(t, models.Phone{Number: "200", CountryCode: models.DefaultPhoneCountryCode}, u.EffectivePhone())

	require.NoError(t, h.UpdateTenantUserEmail(ctx, "u1", true, "ignored@x.com"))
	load()
	assert.Equal(t, "a@dir.com", u.EffectiveEmail())
	assert.Equal(t, "a@tenant.com", u.Email.Value)

	assert.ErrorIs(t, h.UpdateTenantUserEmail(ctx, "nope", true, ""), models.ErrNotFound)
}

func TestSearchPredicate(t *testing.T) {
	assert.True(t, query.IsNever(SearchPredicate("acme", "x", nil)))

	sql, args, err := SearchPredicate("acme", "zh", []string{"username", "email"}).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"((dsu.username ILIKE ? OR ((tu.is_inherited_email = ? AND tu.custom_email ILIKE ?) OR (tu.is_inherited_email = ? AND dsu.email ILIKE ?))) AND ds.owner_tenant_id = ?)",
		sql)
	assert.Equal(t, []interface{}{"%zh%", false, "%zh%", true, "%zh%", "acme"}, args)
}

func TestSearchTenantUsers(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.store, nil, zap.NewNop())
	ctx := context.Background()
	f.setExpression(t, h, "{username}<{email}>")

	f.addUser(t, "u1", &models.DataSourceUser{Username: "zhangsan", Email: "z@dir.com"}, nil)
	f.addUser(t, "u2", &models.DataSourceUser{Username: "lisi", Email: "l@dir.com"}, func(u *models.TenantUser) {
		u.Email = models.Override("ZHANG@tenant.com")
	})
	f.addUser(t, "u3", &models.DataSourceUser{Username: "wangwu", Email: "zhang@dir.com"}, func(u *models.TenantUser) {
		u.Email = models.Override("w@tenant.com")
	})

	users, err := h.SearchTenantUsers(ctx, "acme", "zhang")
	require.NoError(t, err)
	var ids []string
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{"u1", "u2"}, ids)

	users, err = h.SearchTenantUsers(ctx, "other", "zhang")
	require.NoError(t, err)
	assert.Empty(t, users)
}

// countingCache is an in-process ConfigCache that records its traffic.
type countingCache struct {
	configs map[string]*models.TenantUserDisplayNameExpressionConfig
	gets    map[string]int
	sets    map[string]int
}

func newCountingCache() *countingCache {
	c := &countingCache{configs: map[string]*models.TenantUserDisplayNameExpressionConfig{}}
	c.reset()
	return c
}

func (c *countingCache) reset() {
	c.gets = map[string]int{}
	c.sets = map[string]int{}
}

func (c *countingCache) GetDisplayNameConfig(_ context.Context, tenantID string) (*models.TenantUserDisplayNameExpressionConfig, error) {
	c.gets[tenantID]++
	return c.configs[tenantID], nil
}

func (c *countingCache) SetDisplayNameConfig(_ context.Context, cfg *models.TenantUserDisplayNameExpressionConfig) error {
	c.sets[cfg.TenantID]++
	c.configs[cfg.TenantID] = cfg
	return nil
}

func (c *countingCache) InvalidateTenantCache(_ context.Context, tenantID string) error {
	delete(c.configs, tenantID)
	return nil
}

// twoTenantUsers spreads six users over two tenants and two data sources,
// giving four distinct (tenant, data source) pairs.
func twoTenantUsers(t *testing.T, f *fixture, h *Handler) []string {
	t.Helper()
	ctx := context.Background()

	globexDS := &models.DataSource{OwnerTenantID: "globex", Type: shared.DataSourceTypeReal, PluginID: shared.PluginLocal, PluginConfig: local.DefaultConfig()}
	require.NoError(t, f.store.Update(ctx, func(tx repository.Tx) error {
		if err := tx.CreateTenant(ctx, &models.Tenant{ID: "globex", Name: "Globex"}); err != nil {
			return err
		}
		return tx.CreateDataSource(ctx, globexDS)
	}))

	_, err := h.UpdateConfig(ctx, "acme", "{username}")
	require.NoError(t, err)
	_, err = h.UpdateConfig(ctx, "globex", "{full_name}")
	require.NoError(t, err)

	users := []struct {
		id, tenantID string
		ds           *models.DataSource
	}{
		{"u1", "acme", f.ds},
		{"u2", "acme", f.ds},
		{"u3", "acme", globexDS},
		{"u4", "globex", globexDS},
		{"u5", "globex", globexDS},
		{"u6", "globex", f.ds},
	}
	ids := make([]string, 0, len(users))
	require.NoError(t, f.store.Update(ctx, func(tx repository.Tx) error {
		for _, u := range users {
			dsu := &models.DataSourceUser{DataSourceID: u.ds.ID, Code: u.id, Username: "user-" + u.id, FullName: "Full " + u.id}
			if err := tx.CreateDataSourceUser(ctx, dsu); err != nil {
				return err
			}
			if err := tx.CreateTenantUser(ctx, models.NewTenantUser(u.id, u.tenantID, u.ds, dsu)); err != nil {
				return err
			}
			ids = append(ids, u.id)
		}
		return nil
	}))
	return ids
}

func TestBatchRenderResolvesConfigOncePerTenantDataSourcePair(t *testing.T) {
	f := newFixture(t)
	c := newCountingCache()
	h := NewHandler(f.store, c, zap.NewNop())
	ctx := context.Background()
	ids := twoTenantUsers(t, f, h)

	var users []*models.TenantUser
	require.NoError(t, f.store.View(ctx, func(tx repository.Tx) error {
		var err error
		users, err = tx.ListTenantUsersByIDs(ctx, ids)
		return err
	}))
	require.Len(t, users, 6)

	c.reset()
	got, err := h.BatchRender(ctx, users)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"u1": "user-u1", "u2": "user-u2", "u3": "user-u3",
		"u4": "Full u4", "u5": "Full u5", "u6": "Full u6",
	}, got)
	// One lookup per pair; the second pair of each tenant is served from cache.
	assert.Equal(t, map[string]int{"acme": 2, "globex": 2}, c.gets)
	assert.Equal(t, map[string]int{"acme": 1, "globex": 1}, c.sets)

	c.reset()
	_, err = h.BatchRender(ctx, users)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"acme": 2, "globex": 2}, c.gets)
	assert.Empty(t, c.sets)
}

func TestGetDisplayNameMapByIDsResolvesConfigOncePerPair(t *testing.T) {
	f := newFixture(t)
	c := newCountingCache()
	h := NewHandler(f.store, c, zap.NewNop())
	ids := twoTenantUsers(t, f, h)

	c.reset()
	got, err := h.GetDisplayNameMapByIDs(context.Background(), append(ids, "u1", "u4"))
	require.NoError(t, err)
	assert.Len(t, got, 6)
	assert.Equal(t, "user-u3", got["u3"])
	assert.Equal(t, "Full u6", got["u6"])
	assert.Equal(t, map[string]int{"acme": 2, "globex": 2}, c.gets)
	assert.Equal(t, map[string]int{"acme": 1, "globex": 1}, c.sets)
}

func TestUnicodeFieldNames(t *testing.T) {
	builtin := map[string]bool{"username": true}
	custom := map[string]bool{"昵称": true, "niveau_é2": true}

	got := Partition("{username}/{昵称}/{niveau_é2}/{职位}", builtin, custom)
	assert.Equal(t, []string{"username"}, got.Builtin)
	assert.Equal(t, []string{"昵称", "niveau_é2"}, got.Custom)
	assert.Equal(t, []string{"职位"}, got.Extra)

	dsu := &models.DataSourceUser{Username: "wangwu", Extras: map[string]any{"昵称": "小王", "niveau_é2": true}}
	u := models.NewTenantUser("u1", "acme", &models.DataSource{}, dsu)
	cfg := &models.TenantUserDisplayNameExpressionConfig{
		Expression:    "{username}({昵称}, {niveau_é2}, {职位})",
		BuiltinFields: got.Builtin,
		CustomFields:  got.Custom,
		ExtraFields:   got.Extra,
	}
	assert.Equal(t, "wangwu(小王, True, -)", Render(u, cfg))
}
