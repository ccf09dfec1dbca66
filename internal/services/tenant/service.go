// Package tenant provisions and tears down tenants together with the graph of
// records a tenant owns.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/models/shared"
	"github.com/identity-tenancy-api/internal/passwd"
	"github.com/identity-tenancy-api/internal/plugins/local"
	"github.com/identity-tenancy-api/internal/repository"
	"github.com/identity-tenancy-api/internal/services/idgen"
)

// EventPublisher queues lifecycle events for the worker. Implemented by
// cache.Client.
type EventPublisher interface {
	Enqueue(ctx context.Context, queue string, payload any) error
}

// CacheInvalidator drops everything cached for a tenant.
type CacheInvalidator interface {
	InvalidateTenantCache(ctx context.Context, tenantID string) error
}

// Options carries deployment settings.
type Options struct {
	LoginURL          string
	MultiTenantMode   bool
	DefaultTenantName string
	AdminUsername     string
	AdminPassword     string
}

// DefaultTenantID is the id of the bootstrap tenant.
func (o Options) DefaultTenantID() string {
	if o.MultiTenantMode {
		return "system"
	}
	return "default"
}

// Service owns the tenant lifecycle. Every create or delete runs in a single
// store transaction; events, cache invalidation and logo cleanup follow the
// commit and never fail the call.
type Service struct {
	store    repository.Store
	hasher   passwd.Hasher
	ids      *idgen.Generator
	opts     Options
	log      *zap.Logger
	events   EventPublisher
	cache    CacheInvalidator
	notifier Notifier
	logos    *LogoProcessor
}

// NewService wires the required collaborators. Optional ones are attached
// with the With methods.
func NewService(store repository.Store, hasher passwd.Hasher, ids *idgen.Generator, opts Options, log *zap.Logger) *Service {
	return &Service{
		store:    store,
		hasher:   hasher,
		ids:      ids,
		opts:     opts,
		log:      log,
		notifier: NewLogNotifier(log),
	}
}

func (s *Service) WithEvents(p EventPublisher) *Service {
	s.events = p
	return s
}

func (s *Service) WithCache(c CacheInvalidator) *Service {
	s.cache = c
	return s
}

func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

func (s *Service) WithLogos(p *LogoProcessor) *Service {
	s.logos = p
	return s
}

// CreateTenant provisions the tenant described by plan in one unit of work.
// Callers validate the plan first, see ValidateCreate.
func (s *Service) CreateTenant(ctx context.Context, plan CreatePlan) (*Result, error) {
	plan.applyDefaults()

	var res *Result
	err := s.store.Update(ctx, func(tx repository.Tx) error {
		var err error
		res, err = s.provision(ctx, tx, &plan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant %s: %w", plan.Tenant.ID, err)
	}

	s.log.Info("tenant created",
		zap.String("tenant_id", res.Tenant.ID),
		zap.Int64("builtin_data_source_id", res.BuiltinSource.ID),
		zap.String("idp_id", res.Idp.ID),
	)
	s.publish(ctx, EventTenantCreated, res.Tenant.ID)

	cfg, _ := res.BuiltinSource.PluginConfig.(*local.Config)
	if plan.passwordGenerated && cfg != nil && cfg.NotificationEnabled() {
		err := s.notifier.NotifyInitialPassword(ctx, InitialPasswordNotice{
			TenantID: res.Tenant.ID,
			Admin:    plan.Admin,
			Methods:  cfg.PasswordInitial.Notification.EnabledMethods,
		})
		if err != nil {
			s.log.Error("failed to notify initial password", zap.String("tenant_id", res.Tenant.ID), zap.Error(err))
		}
	}
	return res, nil
}

func (s *Service) provision(ctx context.Context, tx repository.Tx, plan *CreatePlan) (*Result, error) {
	// Tenant row and its per-tenant settings.
	tenant := &models.Tenant{
		ID:        plan.Tenant.ID,
		Name:      plan.Tenant.Name,
		Logo:      plan.Tenant.Logo,
		Status:    plan.Tenant.Status,
		IsDefault: plan.Tenant.IsDefault,
	}
	if err := tx.CreateTenant(ctx, tenant); err != nil {
		return nil, err
	}

	if _, _, err := tx.GetOrCreateValidityPeriodConfig(ctx, models.DefaultValidityPeriodConfig(tenant.ID)); err != nil {
		return nil, fmt.Errorf("validity period config: %w", err)
	}
	if _, _, err := tx.GetOrCreateDisplayNameConfig(ctx, models.DefaultDisplayNameConfig(tenant.ID)); err != nil {
		return nil, fmt.Errorf("display name config: %w", err)
	}

	// Builtin management source holds admins; the virtual source holds
	// service accounts.
	builtin := &models.DataSource{
		OwnerTenantID: tenant.ID,
		Type:          shared.DataSourceTypeBuiltinManagement,
		PluginID:      shared.PluginLocal,
		PluginConfig:  builtinPluginConfig(plan.DataSource),
	}
	if err := tx.CreateDataSource(ctx, builtin); err != nil {
		return nil, fmt.Errorf("builtin data source: %w", err)
	}

	virtual := &models.DataSource{
		OwnerTenantID: tenant.ID,
		Type:          shared.DataSourceTypeVirtual,
		PluginID:      shared.PluginLocal,
		PluginConfig:  local.DisabledConfig(),
	}
	if err := tx.CreateDataSource(ctx, virtual); err != nil {
		return nil, fmt.Errorf("virtual data source: %w", err)
	}

	// Accounts.
	admin, err := s.createManager(ctx, tx, tenant, builtin, plan.Admin)
	if err != nil {
		return nil, fmt.Errorf("builtin manager: %w", err)
	}

	for _, vu := range plan.VirtualUser.users() {
		if _, err := s.getOrCreateVirtualUser(ctx, tx, tenant, virtual, vu); err != nil {
			return nil, fmt.Errorf("virtual user %s: %w", vu.Username, err)
		}
	}

	// Local idp that logs users in against the builtin source.
	idp, _, err := tx.GetOrCreateIdp(ctx, &models.Idp{
		ID:                   strings.ReplaceAll(uuid.NewString(), "-", ""),
		Name:                 models.BuiltinIdpName,
		OwnerTenantID:        tenant.ID,
		Status:               shared.IdpStatusEnabled,
		PluginID:             shared.PluginLocal,
		PluginConfig:         models.IdpPluginConfig{DataSourceIDs: []int64{builtin.ID}},
		DataSourceMatchRules: []models.DataSourceMatchRule{models.LocalMatchRule(builtin.ID)},
		DataSourceID:         builtin.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("builtin idp: %w", err)
	}

	return &Result{
		Tenant:        tenant,
		AdminUser:     admin,
		BuiltinSource: builtin,
		VirtualSource: virtual,
		Idp:           idp,
	}, nil
}

func builtinPluginConfig(policy BuiltinDataSourcePolicy) *local.Config {
	cfg := local.DefaultConfig()
	cfg.EnablePassword = true
	cfg.PasswordExpire.ValidTime = local.NeverExpire

	if policy.FixedPassword != "" {
		cfg.PasswordInitial.GenerateMethod = shared.PasswordGenerateMethodFixed
		cfg.PasswordInitial.FixedPassword = policy.FixedPassword
	}
	if policy.SendPasswordNotification && len(policy.NotificationMethods) > 0 {
		cfg.PasswordInitial.Notification.EnabledMethods = append([]shared.NotificationMethod(nil), policy.NotificationMethods...)
	}
	return cfg
}

func (s *Service) createManager(ctx context.Context, tx repository.Tx, tenant *models.Tenant, ds *models.DataSource, admin AdminInfo) (*models.TenantUser, error) {
	dsUser := &models.DataSourceUser{
		DataSourceID:     ds.ID,
		Code:             admin.Username,
		Username:         admin.Username,
		FullName:         admin.FullName,
		Email:            admin.Email,
		Phone:            admin.Phone,
		PhoneCountryCode: admin.PhoneCountryCode,
		Extras:           map[string]any{},
	}
	if err := tx.CreateDataSourceUser(ctx, dsUser); err != nil {
		return nil, err
	}

	if admin.Password != "" {
		digest, err := s.hasher.Hash(admin.Password)
		if err != nil {
			return nil, err
		}
		err = tx.CreateLocalIdentity(ctx, &models.LocalDataSourceIdentityInfo{
			UserID:            dsUser.ID,
			DataSourceID:      ds.ID,
			Username:          admin.Username,
			Password:          digest,
			PasswordUpdatedAt: time.Now(),
			PasswordExpiredAt: models.PermanentTime,
		})
		if err != nil {
			return nil, err
		}
	}

	id, err := s.ids.Gen(ctx, tx, tenant.ID, ds, dsUser)
	if err != nil {
		return nil, err
	}
	user := models.NewTenantUser(id, tenant.ID, ds, dsUser)
	if err := tx.CreateTenantUser(ctx, user); err != nil {
		return nil, err
	}

	if _, _, err := tx.GetOrCreateTenantManager(ctx, &models.TenantManager{TenantID: tenant.ID, TenantUserID: user.ID}); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) getOrCreateVirtualUser(ctx context.Context, tx repository.Tx, tenant *models.Tenant, ds *models.DataSource, vu VirtualUserInfo) (*models.TenantUser, error) {
	dsUser, err := tx.FindDataSourceUser(ctx, ds.ID, vu.Username)
	if errors.Is(err, models.ErrNotFound) {
		dsUser = &models.DataSourceUser{
			DataSourceID: ds.ID,
			Code:         vu.Username,
			Username:     vu.Username,
			FullName:     vu.Username,
			Extras:       map[string]any{},
		}
		err = tx.CreateDataSourceUser(ctx, dsUser)
	}
	if err != nil {
		return nil, err
	}

	existing, err := tx.FindTenantUser(ctx, tenant.ID, dsUser.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	id := vu.TenantUserID
	if id != "" {
		err = s.ids.Pin(ctx, tx, tenant.ID, ds, dsUser, id)
	} else {
		id, err = s.ids.Gen(ctx, tx, tenant.ID, ds, dsUser)
	}
	if err != nil {
		return nil, err
	}

	user := models.NewTenantUser(id, tenant.ID, ds, dsUser)
	if err := tx.CreateTenantUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) publish(ctx context.Context, typ EventType, tenantID string) {
	if s.events == nil {
		return
	}
	if err := s.events.Enqueue(ctx, EventQueue, NewEvent(typ, tenantID)); err != nil {
		s.log.Warn("failed to publish tenant event",
			zap.String("type", string(typ)), zap.String("tenant_id", tenantID), zap.Error(err))
	}
}
