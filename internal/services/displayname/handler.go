package displayname

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/query"
	"github.com/identity-tenancy-api/internal/repository"
)

// ConfigCache stores resolved configs between requests. Implemented by
// cache.Client.
type ConfigCache interface {
	GetDisplayNameConfig(ctx context.Context, tenantID string) (*models.TenantUserDisplayNameExpressionConfig, error)
	SetDisplayNameConfig(ctx context.Context, cfg *models.TenantUserDisplayNameExpressionConfig) error
	InvalidateTenantCache(ctx context.Context, tenantID string) error
}

// Handler renders user display names from the per-tenant expression config.
// Configs are read through the optional ConfigCache.
type Handler struct {
	store repository.Store
	cache ConfigCache
	log   *zap.Logger
}

// NewHandler returns a Handler. cache may be nil.
func NewHandler(store repository.Store, cache ConfigCache, log *zap.Logger) *Handler {
	return &Handler{store: store, cache: cache, log: log}
}

// GetConfig resolves the expression config of tenantID, falling back to the
// default expression when the tenant has none.
func (h *Handler) GetConfig(ctx context.Context, tenantID string) (*models.TenantUserDisplayNameExpressionConfig, error) {
	if h.cache != nil {
		cfg, err := h.cache.GetDisplayNameConfig(ctx, tenantID)
		if err != nil {
			h.log.Warn("display name cache read failed", zap.String("tenant_id", tenantID), zap.Error(err))
		} else if cfg != nil {
			return cfg, nil
		}
	}

	var cfg *models.TenantUserDisplayNameExpressionConfig
	err := h.store.View(ctx, func(tx repository.Tx) error {
		var err error
		cfg, err = tx.GetDisplayNameConfig(ctx, tenantID)
		return err
	})
	if errors.Is(err, models.ErrNotFound) {
		return models.DefaultDisplayNameConfig(tenantID), nil
	}
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.SetDisplayNameConfig(ctx, cfg); err != nil {
			h.log.Warn("display name cache write failed", zap.String("tenant_id", tenantID), zap.Error(err))
		}
	}
	return cfg, nil
}

// RenderOne renders the display name of a single pre-joined tenant user.
func (h *Handler) RenderOne(ctx context.Context, u *models.TenantUser) (string, error) {
	cfg, err := h.GetConfig(ctx, u.TenantID)
	if err != nil {
		return "", err
	}
	return Render(u, cfg), nil
}

type configKey struct {
	tenantID     string
	dataSourceID int64
}

// BatchRender renders every user. Users must come pre-joined with their data
// source user; the config is resolved once per (tenant, data source) pair.
func (h *Handler) BatchRender(ctx context.Context, users []*models.TenantUser) (map[string]string, error) {
	out := make(map[string]string, len(users))
	configs := map[configKey]*models.TenantUserDisplayNameExpressionConfig{}

	for _, u := range users {
		key := configKey{tenantID: u.TenantID, dataSourceID: u.DataSourceID}
		cfg, ok := configs[key]
		if !ok {
			var err error
			if cfg, err = h.GetConfig(ctx, u.TenantID); err != nil {
				return nil, fmt.Errorf("failed to resolve display name config of %s: %w", u.TenantID, err)
			}
			configs[key] = cfg
		}
		out[u.ID] = Render(u, cfg)
	}
	return out, nil
}

// GetDisplayNameMapByIDs returns exactly one entry per distinct id. Ids with
// no tenant user fall back to the legacy account display name, then to the
// id itself.
func (h *Handler) GetDisplayNameMapByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	var users []*models.TenantUser
	var legacy []*models.LegacyUser
	err := h.store.View(ctx, func(tx repository.Tx) error {
		var err error
		if users, err = tx.ListTenantUsersByIDs(ctx, ids); err != nil {
			return err
		}
		missing := missingIDs(ids, users)
		if len(missing) == 0 {
			return nil
		}
		legacy, err = tx.ListLegacyUsers(ctx, missing)
		return err
	})
	if err != nil {
		return nil, err
	}

	out, err := h.BatchRender(ctx, users)
	if err != nil {
		return nil, err
	}

	if missing := missingFromMap(ids, out); len(missing) > 0 {
		h.log.Warn("tenant user ids not found, falling back to legacy accounts", zap.Strings("ids", missing))
	}
	for _, u := range legacy {
		if _, ok := out[u.Username]; ok {
			continue
		}
		if u.DisplayName != "" {
			out[u.Username] = u.DisplayName
		} else {
			out[u.Username] = u.Username
		}
	}

	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = id
		}
	}
	return out, nil
}

func missingIDs(ids []string, users []*models.TenantUser) []string {
	found := make(map[string]bool, len(users))
	for _, u := range users {
		found[u.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !found[id] {
			found[id] = true
			missing = append(missing, id)
		}
	}
	return missing
}

func missingFromMap(ids []string, m map[string]string) []string {
	var missing []string
	for _, id := range ids {
		if _, ok := m[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// ParseExpression partitions the placeholders of expression against the
// builtin fields and the custom fields of tenantID.
func (h *Handler) ParseExpression(ctx context.Context, tenantID, expression string) (Fields, error) {
	builtin := map[string]bool{}
	custom := map[string]bool{}
	err := h.store.View(ctx, func(tx repository.Tx) error {
		builtinFields, err := tx.ListBuiltinFields(ctx)
		if err != nil {
			return err
		}
		for _, f := range builtinFields {
			builtin[f.Name] = true
		}
		customFields, err := tx.ListCustomFields(ctx, tenantID)
		if err != nil {
			return err
		}
		for _, f := range customFields {
			custom[f.Name] = true
		}
		return nil
	})
	if err != nil {
		return Fields{}, err
	}
	return Partition(expression, builtin, custom), nil
}

// UpdateConfig stores a new expression for tenantID.
func (h *Handler) UpdateConfig(ctx context.Context, tenantID, expression string) (*models.TenantUserDisplayNameExpressionConfig, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, models.NewValidationError("expression", "must not be empty", nil)
	}
	fields, err := h.ParseExpression(ctx, tenantID, expression)
	if err != nil {
		return nil, err
	}
	if len(fields.Builtin)+len(fields.Custom) == 0 {
		return nil, models.NewValidationError("expression", "must reference at least one user field", nil)
	}

	cfg := &models.TenantUserDisplayNameExpressionConfig{
		TenantID:      tenantID,
		Expression:    expression,
		BuiltinFields: fields.Builtin,
		CustomFields:  fields.Custom,
		ExtraFields:   fields.Extra,
	}
	err = h.store.Update(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetTenant(ctx, tenantID); err != nil {
			return err
		}
		return tx.SaveDisplayNameConfig(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}

	h.invalidate(ctx, tenantID)
	return cfg, nil
}

func (h *Handler) invalidate(ctx context.Context, tenantID string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.InvalidateTenantCache(ctx, tenantID); err != nil {
		h.log.Warn("display name cache invalidation failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}
}

// PreviewUser is the sample user shown while editing an expression.
func PreviewUser(tenantID string) *models.TenantUser {
	ds := &models.DataSource{OwnerTenantID: tenantID}
	dsu := &models.DataSourceUser{
		Username:         "zhangsan",
		FullName:         "张三",
		Phone:            "13512345671",
		PhoneCountryCode: models.DefaultPhoneCountryCode,
		Email:            "zhangsan@m.com",
		Extras:           map[string]any{},
	}
	return models.NewTenantUser("517hMkqnSBqF9Mv9", tenantID, ds, dsu)
}

// Preview renders expression against PreviewUser without storing it.
func (h *Handler) Preview(ctx context.Context, tenantID, expression string) (string, error) {
	fields, err := h.ParseExpression(ctx, tenantID, expression)
	if err != nil {
		return "", err
	}
	cfg := &models.TenantUserDisplayNameExpressionConfig{
		TenantID:      tenantID,
		Expression:    expression,
		BuiltinFields: fields.Builtin,
		CustomFields:  fields.Custom,
		ExtraFields:   fields.Extra,
	}
	return Render(PreviewUser(tenantID), cfg), nil
}

// UpdateTenantUserPhone switches the phone of a tenant user between the
// directory value and a tenant-level override.
func (h *Handler) UpdateTenantUserPhone(ctx context.Context, tenantUserID string, inherited bool, phone models.Phone) error {
	return h.store.Update(ctx, func(tx repository.Tx) error {
		u, err := tx.GetTenantUser(ctx, tenantUserID)
		if err != nil {
			return err
		}
		u.Phone.Inherited = inherited
		if !inherited {
			if phone.CountryCode == "" {
				phone.CountryCode = models.DefaultPhoneCountryCode
			}
			u.Phone.Value = phone
		}
		return tx.UpdateTenantUserContacts(ctx, u)
	})
}

func (h *Handler) UpdateTenantUserEmail(ctx context.Context, tenantUserID string, inherited bool, email string) error {
	return h.store.Update(ctx, func(tx repository.Tx) error {
		u, err := tx.GetTenantUser(ctx, tenantUserID)
		if err != nil {
			return err
		}
		u.Email.Inherited = inherited
		if !inherited {
			u.Email.Value = email
		}
		return tx.UpdateTenantUserContacts(ctx, u)
	})
}

// BuildSearchPredicate loads the tenant config and builds its keyword filter.
func (h *Handler) BuildSearchPredicate(ctx context.Context, tenantID, keyword string) (query.Predicate, error) {
	cfg, err := h.GetConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return SearchPredicate(tenantID, keyword, cfg.BuiltinFields), nil
}

// SearchTenantUsers returns the users of tenantID whose display name fields
// contain keyword.
func (h *Handler) SearchTenantUsers(ctx context.Context, tenantID, keyword string) ([]*models.TenantUser, error) {
	pred, err := h.BuildSearchPredicate(ctx, tenantID, keyword)
	if err != nil {
		return nil, err
	}
	var users []*models.TenantUser
	err = h.store.View(ctx, func(tx repository.Tx) error {
		var err error
		users, err = tx.SearchTenantUsers(ctx, pred)
		return err
	})
	return users, err
}
