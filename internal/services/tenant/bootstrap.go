package tenant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/models/shared"
	"github.com/identity-tenancy-api/internal/passwd"
	"github.com/identity-tenancy-api/internal/repository"
	"github.com/identity-tenancy-api/internal/services/passwordrule"
)

// InitDefaultTenant creates the bootstrap tenant once. When a default tenant
// already exists it is returned unchanged.
func (s *Service) InitDefaultTenant(ctx context.Context) (*models.Tenant, bool, error) {
	var existing *models.Tenant
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		existing, err = tx.GetDefaultTenant(ctx)
		return err
	})
	if err == nil {
		s.log.Info("default tenant already initialized", zap.String("tenant_id", existing.ID))
		return existing, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}

	if s.opts.AdminPassword == "" {
		return nil, false, models.NewValidationError("initial_admin.password", "is required to initialize the default tenant", nil)
	}
	if err := passwordrule.Default().Validate(s.opts.AdminPassword); err != nil {
		return nil, false, models.NewValidationError("initial_admin.password", err.Error(), err)
	}

	id := s.opts.DefaultTenantID()
	name := s.opts.DefaultTenantName
	if name == "" {
		name = id
	}

	users := []VirtualUserInfo{{Username: DefaultVirtualUsername}}
	if !s.opts.MultiTenantMode {
		users = append(users, VirtualUserInfo{Username: LegacyAdminUsername, TenantUserID: LegacyAdminUsername})
	}

	res, err := s.CreateTenant(ctx, CreatePlan{
		Tenant: TenantInfo{ID: id, Name: name, IsDefault: true},
		Admin:  AdminInfo{Username: s.opts.AdminUsername, Password: s.opts.AdminPassword},
		DataSource: BuiltinDataSourcePolicy{
			SendPasswordNotification: false,
		},
		VirtualUser: VirtualUserPolicy{Create: true, Users: users},
	})
	if err != nil {
		return nil, false, err
	}
	return res.Tenant, true, nil
}

// CreateTenantByCommand is the operator entry point: the tenant is named
// after its id and its admin is "admin" with the given password.
func (s *Service) CreateTenantByCommand(ctx context.Context, tenantID, password string) (*Result, error) {
	if password == "" {
		return nil, models.NewValidationError("password", "is required", nil)
	}
	if err := s.ValidateCreate(ctx, tenantID, password); err != nil {
		return nil, err
	}
	return s.CreateTenant(ctx, CreatePlan{
		Tenant: TenantInfo{ID: tenantID, Name: tenantID},
		Admin:  AdminInfo{Username: LegacyAdminUsername, Password: password},
		DataSource: BuiltinDataSourcePolicy{
			SendPasswordNotification: false,
		},
	})
}

// APICreateRequest is the input of CreateTenantByAPI.
type APICreateRequest struct {
	TenantID            string
	Name                string
	Status              shared.TenantStatus
	FixedPassword       string
	NotificationMethods []shared.NotificationMethod
	Email               string
	Phone               string
	PhoneCountryCode    string
	// Logo is an optional image, normalized and stored before provisioning.
	Logo io.Reader
}

// CreateTenantByAPI provisions a tenant from the admin API. Without a fixed
// password a random one satisfying the default rule is generated and, when
// notification methods are given, delivered through the Notifier.
func (s *Service) CreateTenantByAPI(ctx context.Context, req APICreateRequest) (*Result, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, models.NewValidationError("name", "is required", nil)
	}
	for _, m := range req.NotificationMethods {
		if !m.Valid() {
			return nil, models.NewValidationError("notification_methods", fmt.Sprintf("unknown method %q", m), nil)
		}
	}
	if err := s.ValidateCreate(ctx, req.TenantID, req.FixedPassword); err != nil {
		return nil, err
	}

	plan := CreatePlan{
		Tenant: TenantInfo{ID: req.TenantID, Name: req.Name, Status: req.Status},
		Admin: AdminInfo{
			Username:         LegacyAdminUsername,
			Password:         req.FixedPassword,
			Email:            req.Email,
			Phone:            req.Phone,
			PhoneCountryCode: req.PhoneCountryCode,
		},
		DataSource: BuiltinDataSourcePolicy{
			SendPasswordNotification: len(req.NotificationMethods) > 0,
			FixedPassword:            req.FixedPassword,
			NotificationMethods:      req.NotificationMethods,
		},
	}
	if plan.Admin.Password == "" {
		generated, err := passwd.Generate(passwordrule.Default())
		if err != nil {
			return nil, err
		}
		plan.Admin.Password = generated
		plan.passwordGenerated = true
	}

	var logoKey string
	if req.Logo != nil {
		if s.logos == nil {
			return nil, models.NewValidationError("logo", "logo storage is not configured", nil)
		}
		key, url, err := s.logos.Store(ctx, req.TenantID, req.Logo)
		if err != nil {
			return nil, err
		}
		logoKey, plan.Tenant.Logo = key, url
	}

	res, err := s.CreateTenant(ctx, plan)
	if err != nil && logoKey != "" {
		if derr := s.logos.Remove(ctx, logoKey); derr != nil {
			s.log.Warn("failed to remove orphaned logo", zap.String("key", logoKey), zap.Error(derr))
		}
	}
	return res, err
}

// BuiltinManagementLoginPath is appended to the login URL, followed by the idp id.
const BuiltinManagementLoginPath = "/builtin-management-auth/idps/"

// GetBuiltinManagementLoginURL returns the login page of the local idp bound
// to the builtin management data source of tenantID. An empty tenantID
// selects the bootstrap tenant.
func (s *Service) GetBuiltinManagementLoginURL(ctx context.Context, tenantID string) (string, error) {
	if tenantID == "" {
		tenantID = s.opts.DefaultTenantID()
	}

	var idpID string
	err := s.store.View(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetTenant(ctx, tenantID); err != nil {
			return fmt.Errorf("tenant %s: %w", tenantID, err)
		}
		ds, err := tx.FindDataSource(ctx, tenantID, shared.DataSourceTypeBuiltinManagement)
		if err != nil {
			return fmt.Errorf("builtin management data source of %s: %w", tenantID, err)
		}
		idps, err := tx.ListIdps(ctx, tenantID)
		if err != nil {
			return err
		}
		for _, idp := range idps {
			if idp.PluginID == shared.PluginLocal && idp.DataSourceID == ds.ID {
				idpID = idp.ID
				return nil
			}
		}
		return fmt.Errorf("builtin management idp of %s: %w", tenantID, models.ErrNotFound)
	})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(s.opts.LoginURL, "/") + BuiltinManagementLoginPath + idpID + "/", nil
}
