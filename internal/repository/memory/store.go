// Package memory is a repository.Store backed by go-memdb. Write
// transactions are serialized and either fully committed or aborted.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-memdb"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/models/shared"
	"github.com/identity-tenancy-api/internal/query"
	"github.com/identity-tenancy-api/internal/repository"
)

type Store struct {
	db  *memdb.MemDB
	seq atomic.Int64
}

// New returns an empty store seeded with the builtin user fields.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(Schema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb: %w", err)
	}
	s := &Store{db: db}
	s.seq.Store(1000)

	txn := db.Txn(true)
	defer txn.Abort()
	for _, f := range models.DefaultBuiltinFields {
		cp := *f
		if err := txn.Insert(models.TableBuiltinFields, &cp); err != nil {
			return nil, fmt.Errorf("failed to seed builtin fields: %w", err)
		}
	}
	txn.Commit()
	return s, nil
}

func (s *Store) Update(_ context.Context, fn func(tx repository.Tx) error) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := fn(&tx{txn: txn, store: s}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (s *Store) View(_ context.Context, fn func(tx repository.Tx) error) error {
	txn := s.db.Txn(false)
	defer txn.Abort()
	return fn(&tx{txn: txn, store: s})
}

// Seed inserts raw rows, for fixtures of tables without a dedicated writer.
func (s *Store) Seed(table string, rows ...any) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	for _, row := range rows {
		if err := txn.Insert(table, row); err != nil {
			return fmt.Errorf("failed to seed %s: %w", table, err)
		}
	}
	txn.Commit()
	return nil
}

// Count returns the number of rows in table.
func (s *Store) Count(table string) (int, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(table, models.ColumnID)
	if err != nil {
		return 0, fmt.Errorf("failed to scan %s: %w", table, err)
	}
	n := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n++
	}
	return n, nil
}

func (s *Store) nextID() int64 {
	return s.seq.Add(1)
}

type tx struct {
	txn   *memdb.Txn
	store *Store
}

func first[T any](txn *memdb.Txn, table, index string, args ...any) (*T, error) {
	raw, err := txn.First(table, index, args...)
	if err != nil {
		return nil, fmt.Errorf("memdb %s.%s: %w", table, index, err)
	}
	if raw == nil {
		return nil, models.ErrNotFound
	}
	cp := *(raw.(*T))
	return &cp, nil
}

func list[T any](txn *memdb.Txn, table, index string, args ...any) ([]*T, error) {
	it, err := txn.Get(table, index, args...)
	if err != nil {
		return nil, fmt.Errorf("memdb %s.%s: %w", table, index, err)
	}
	var out []*T
	for obj := it.Next(); obj != nil; obj = it.Next() {
		cp := *(obj.(*T))
		out = append(out, &cp)
	}
	return out, nil
}

func exists(txn *memdb.Txn, table, index string, args ...any) (bool, error) {
	raw, err := txn.First(table, index, args...)
	if err != nil {
		return false, fmt.Errorf("memdb %s.%s: %w", table, index, err)
	}
	return raw != nil, nil
}

func (t *tx) insert(table string, row any) error {
	if err := t.txn.Insert(table, row); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (t *tx) CreateTenant(_ context.Context, tenant *models.Tenant) error {
	found, err := exists(t.txn, models.TableTenants, models.ColumnID, tenant.ID)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("tenant %s: %w", tenant.ID, models.ErrAlreadyExists)
	}
	now := time.Now()
	tenant.CreatedAt, tenant.UpdatedAt = now, now
	cp := *tenant
	return t.insert(models.TableTenants, &cp)
}

func (t *tx) GetTenant(_ context.Context, id string) (*models.Tenant, error) {
	return first[models.Tenant](t.txn, models.TableTenants, models.ColumnID, id)
}

func (t *tx) GetDefaultTenant(ctx context.Context) (*models.Tenant, error) {
	tenants, err := t.ListTenants(ctx)
	if err != nil {
		return nil, err
	}
	for _, tenant := range tenants {
		if tenant.IsDefault {
			return tenant, nil
		}
	}
	return nil, models.ErrNotFound
}

func (t *tx) ListTenants(_ context.Context) ([]*models.Tenant, error) {
	tenants, err := list[models.Tenant](t.txn, models.TableTenants, models.ColumnID)
	if err != nil {
		return nil, err
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i].ID < tenants[j].ID })
	return tenants, nil
}

func (t *tx) GetOrCreateValidityPeriodConfig(_ context.Context, cfg *models.TenantUserValidityPeriodConfig) (*models.TenantUserValidityPeriodConfig, bool, error) {
	existing, err := first[models.TenantUserValidityPeriodConfig](t.txn, models.TableValidityPeriodConfigs, models.ColumnTenantID, cfg.TenantID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}
	cp := *cfg
	cp.ID = t.store.nextID()
	cp.CreatedAt, cp.UpdatedAt = time.Now(), time.Now()
	if err := t.insert(models.TableValidityPeriodConfigs, &cp); err != nil {
		return nil, false, err
	}
	out := cp
	return &out, true, nil
}

func (t *tx) GetOrCreateDisplayNameConfig(_ context.Context, cfg *models.TenantUserDisplayNameExpressionConfig) (*models.TenantUserDisplayNameExpressionConfig, bool, error) {
	existing, err := first[models.TenantUserDisplayNameExpressionConfig](t.txn, models.TableDisplayNameConfigs, models.ColumnTenantID, cfg.TenantID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}
	cp := *cfg
	cp.ID = t.store.nextID()
	cp.UpdatedAt = time.Now()
	if err := t.insert(models.TableDisplayNameConfigs, &cp); err != nil {
		return nil, false, err
	}
	out := cp
	return &out, true, nil
}

func (t *tx) GetDisplayNameConfig(_ context.Context, tenantID string) (*models.TenantUserDisplayNameExpressionConfig, error) {
	return first[models.TenantUserDisplayNameExpressionConfig](t.txn, models.TableDisplayNameConfigs, models.ColumnTenantID, tenantID)
}

func (t *tx) SaveDisplayNameConfig(_ context.Context, cfg *models.TenantUserDisplayNameExpressionConfig) error {
	existing, err := first[models.TenantUserDisplayNameExpressionConfig](t.txn, models.TableDisplayNameConfigs, models.ColumnTenantID, cfg.TenantID)
	switch {
	case err == nil:
		cfg.ID = existing.ID
	case errors.Is(err, models.ErrNotFound):
		cfg.ID = t.store.nextID()
	default:
		return err
	}
	cfg.UpdatedAt = time.Now()
	cp := *cfg
	return t.insert(models.TableDisplayNameConfigs, &cp)
}

func (t *tx) ListBuiltinFields(_ context.Context) ([]*models.UserBuiltinField, error) {
	fields, err := list[models.UserBuiltinField](t.txn, models.TableBuiltinFields, models.ColumnID)
	if err != nil {
		return nil, err
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].ID < fields[j].ID })
	return fields, nil
}

func (t *tx) ListCustomFields(_ context.Context, tenantID string) ([]*models.TenantUserCustomField, error) {
	return list[models.TenantUserCustomField](t.txn, models.TableCustomFields, models.ColumnTenantID, tenantID)
}

func (t *tx) CreateCustomField(_ context.Context, f *models.TenantUserCustomField) error {
	fields, err := list[models.TenantUserCustomField](t.txn, models.TableCustomFields, models.ColumnTenantID, f.TenantID)
	if err != nil {
		return err
	}
	for _, existing := range fields {
		if existing.Name == f.Name {
			return fmt.Errorf("custom field %s: %w", f.Name, models.ErrAlreadyExists)
		}
	}
	f.ID = t.store.nextID()
	cp := *f
	return t.insert(models.TableCustomFields, &cp)
}

func (t *tx) CreateDataSource(_ context.Context, ds *models.DataSource) error {
	ds.ID = t.store.nextID()
	now := time.Now()
	ds.CreatedAt, ds.UpdatedAt = now, now
	cp := *ds
	cp.PluginConfig = clonePluginConfig(ds.PluginConfig)
	return t.insert(models.TableDataSources, &cp)
}

func (t *tx) GetDataSource(_ context.Context, id int64) (*models.DataSource, error) {
	ds, err := first[models.DataSource](t.txn, models.TableDataSources, models.ColumnID, id)
	if err != nil {
		return nil, err
	}
	ds.PluginConfig = clonePluginConfig(ds.PluginConfig)
	return ds, nil
}

func (t *tx) ListDataSources(_ context.Context, ownerTenantID string) ([]*models.DataSource, error) {
	sources, err := list[models.DataSource](t.txn, models.TableDataSources, models.ColumnOwnerTenantID, ownerTenantID)
	if err != nil {
		return nil, err
	}
	for _, ds := range sources {
		ds.PluginConfig = clonePluginConfig(ds.PluginConfig)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
	return sources, nil
}

func (t *tx) FindDataSource(ctx context.Context, ownerTenantID string, typ shared.DataSourceType) (*models.DataSource, error) {
	sources, err := t.ListDataSources(ctx, ownerTenantID)
	if err != nil {
		return nil, err
	}
	for _, ds := range sources {
		if ds.Type == typ {
			return ds, nil
		}
	}
	return nil, models.ErrNotFound
}

func (t *tx) CreateDataSourceUser(_ context.Context, u *models.DataSourceUser) error {
	found, err := exists(t.txn, models.TableDataSourceUsers, indexUsername, u.DataSourceID, u.Username)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("data source user %s: %w", u.Username, models.ErrAlreadyExists)
	}
	u.ID = t.store.nextID()
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	return t.insert(models.TableDataSourceUsers, &cp)
}

func (t *tx) FindDataSourceUser(_ context.Context, dataSourceID int64, username string) (*models.DataSourceUser, error) {
	return first[models.DataSourceUser](t.txn, models.TableDataSourceUsers, indexUsername, dataSourceID, username)
}

func (t *tx) CreateLocalIdentity(_ context.Context, info *models.LocalDataSourceIdentityInfo) error {
	found, err := exists(t.txn, models.TableLocalIdentityInfos, indexUser, info.DataSourceID, info.UserID)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("identity of user %d: %w", info.UserID, models.ErrAlreadyExists)
	}
	info.ID = t.store.nextID()
	cp := *info
	return t.insert(models.TableLocalIdentityInfos, &cp)
}

func (t *tx) GetLocalIdentity(_ context.Context, dataSourceID, userID int64) (*models.LocalDataSourceIdentityInfo, error) {
	return first[models.LocalDataSourceIdentityInfo](t.txn, models.TableLocalIdentityInfos, indexUser, dataSourceID, userID)
}

func (t *tx) CreateTenantUser(_ context.Context, u *models.TenantUser) error {
	found, err := exists(t.txn, models.TableTenantUsers, models.ColumnID, u.ID)
	if err != nil {
		return err
	}
	if !found {
		found, err = exists(t.txn, models.TableTenantUsers, indexTenantDSUser, u.TenantID, u.DataSourceUserID)
		if err != nil {
			return err
		}
	}
	if found {
		return fmt.Errorf("tenant user %s: %w", u.ID, models.ErrAlreadyExists)
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	cp.DataSourceUser, cp.DataSource = nil, nil
	return t.insert(models.TableTenantUsers, &cp)
}

// join attaches the directory user and data source to a tenant user row.
func (t *tx) join(u *models.TenantUser) error {
	dsu, err := first[models.DataSourceUser](t.txn, models.TableDataSourceUsers, models.ColumnID, u.DataSourceUserID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	ds, err := first[models.DataSource](t.txn, models.TableDataSources, models.ColumnID, u.DataSourceID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	u.DataSourceUser, u.DataSource = dsu, ds
	return nil
}

func (t *tx) GetTenantUser(_ context.Context, id string) (*models.TenantUser, error) {
	u, err := first[models.TenantUser](t.txn, models.TableTenantUsers, models.ColumnID, id)
	if err != nil {
		return nil, err
	}
	return u, t.join(u)
}

func (t *tx) FindTenantUser(_ context.Context, tenantID string, dataSourceUserID int64) (*models.TenantUser, error) {
	u, err := first[models.TenantUser](t.txn, models.TableTenantUsers, indexTenantDSUser, tenantID, dataSourceUserID)
	if err != nil {
		return nil, err
	}
	return u, t.join(u)
}

func (t *tx) ListTenantUsersByIDs(ctx context.Context, ids []string) ([]*models.TenantUser, error) {
	var out []*models.TenantUser
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		u, err := t.GetTenantUser(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (t *tx) UpdateTenantUserContacts(_ context.Context, u *models.TenantUser) error {
	stored, err := first[models.TenantUser](t.txn, models.TableTenantUsers, models.ColumnID, u.ID)
	if err != nil {
		return err
	}
	stored.Email = u.Email
	stored.Phone = u.Phone
	stored.UpdatedAt = time.Now()
	return t.insert(models.TableTenantUsers, stored)
}

func (t *tx) SearchTenantUsers(_ context.Context, pred query.Predicate) ([]*models.TenantUser, error) {
	if query.IsNever(pred) {
		return nil, nil
	}
	users, err := list[models.TenantUser](t.txn, models.TableTenantUsers, models.ColumnID)
	if err != nil {
		return nil, err
	}
	var out []*models.TenantUser
	for _, u := range users {
		if err := t.join(u); err != nil {
			return nil, err
		}
		if pred.Match(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) GetOrCreateTenantManager(_ context.Context, m *models.TenantManager) (*models.TenantManager, bool, error) {
	existing, err := first[models.TenantManager](t.txn, models.TableTenantManagers, indexTenantUser, m.TenantID, m.TenantUserID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}
	cp := *m
	cp.ID = t.store.nextID()
	cp.CreatedAt = time.Now()
	if err := t.insert(models.TableTenantManagers, &cp); err != nil {
		return nil, false, err
	}
	out := cp
	return &out, true, nil
}

func (t *tx) ListTenantManagers(_ context.Context, tenantID string) ([]*models.TenantManager, error) {
	return list[models.TenantManager](t.txn, models.TableTenantManagers, models.ColumnTenantID, tenantID)
}

func (t *tx) GetTenantUserIDRecord(_ context.Context, tenantID string, dataSourceID int64, code string) (*models.TenantUserIDRecord, error) {
	return first[models.TenantUserIDRecord](t.txn, models.TableTenantUserIDRecords, indexCode, tenantID, dataSourceID, code)
}

func (t *tx) CreateTenantUserIDRecord(_ context.Context, r *models.TenantUserIDRecord) error {
	found, err := exists(t.txn, models.TableTenantUserIDRecords, indexCode, r.TenantID, r.DataSourceID, r.Code)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("id record %s: %w", r.Code, models.ErrAlreadyExists)
	}
	r.ID = t.store.nextID()
	cp := *r
	return t.insert(models.TableTenantUserIDRecords, &cp)
}

func (t *tx) GetTenantUserIDGenerateConfig(_ context.Context, targetTenantID string, dataSourceID int64) (*models.TenantUserIDGenerateConfig, error) {
	return first[models.TenantUserIDGenerateConfig](t.txn, models.TableTenantUserIDGenerateConfs, indexTarget, targetTenantID, dataSourceID)
}

func (t *tx) GetOrCreateIdp(_ context.Context, idp *models.Idp) (*models.Idp, bool, error) {
	existing, err := first[models.Idp](t.txn, models.TableIdps, indexOwnerName, idp.OwnerTenantID, idp.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}
	cp := *idp
	now := time.Now()
	cp.CreatedAt, cp.UpdatedAt = now, now
	if err := t.insert(models.TableIdps, &cp); err != nil {
		return nil, false, err
	}
	out := cp
	return &out, true, nil
}

func (t *tx) ListIdps(_ context.Context, ownerTenantID string) ([]*models.Idp, error) {
	return list[models.Idp](t.txn, models.TableIdps, models.ColumnOwnerTenantID, ownerTenantID)
}

func (t *tx) ListLegacyUsers(_ context.Context, usernames []string) ([]*models.LegacyUser, error) {
	var out []*models.LegacyUser
	for _, name := range usernames {
		u, err := first[models.LegacyUser](t.txn, models.TableLegacyUsers, models.ColumnID, name)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (t *tx) Purge(_ context.Context, table, column string, values ...any) (int64, error) {
	var total int64
	for _, v := range values {
		n, err := t.txn.DeleteAll(table, column, v)
		if err != nil {
			return total, fmt.Errorf("failed to purge %s by %s: %w", table, column, err)
		}
		total += int64(n)
	}
	return total, nil
}

// clonePluginConfig isolates stored plugin configs from caller mutation.
func clonePluginConfig(cfg models.PluginConfig) models.PluginConfig {
	if cfg == nil {
		return nil
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return cfg
	}
	v := reflect.New(reflect.TypeOf(cfg).Elem())
	if err := json.Unmarshal(data, v.Interface()); err != nil {
		return cfg
	}
	return v.Interface().(models.PluginConfig)
}
