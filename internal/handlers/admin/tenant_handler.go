// Package admin implements the control plane HTTP API.
package admin

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/handlers"
	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/models/shared"
	"github.com/identity-tenancy-api/internal/services/tenant"
)

type TenantHandler struct {
	tenantService *tenant.Service
	log           *zap.Logger
}

func NewTenantHandler(tenantService *tenant.Service, log *zap.Logger) *TenantHandler {
	return &TenantHandler{tenantService: tenantService, log: log}
}

// CreateTenantRequest is accepted as JSON or as multipart form fields.
type CreateTenantRequest struct {
	TenantID            string                      `json:"tenant_id" form:"tenant_id" binding:"required"`
	Name                string                      `json:"name" form:"name" binding:"required"`
	Status              shared.TenantStatus         `json:"status" form:"status"`
	FixedPassword       string                      `json:"fixed_password" form:"fixed_password"`
	NotificationMethods []shared.NotificationMethod `json:"notification_methods" form:"notification_methods"`
	Email               string                      `json:"email" form:"email"`
	Phone               string                      `json:"phone" form:"phone"`
	PhoneCountryCode    string                      `json:"phone_country_code" form:"phone_country_code"`
}

type TenantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Logo      string `json:"logo"`
	Status    string `json:"status"`
	IsDefault bool   `json:"is_default"`
	IdpID     string `json:"idp_id"`
	AdminID   string `json:"admin_tenant_user_id"`
}

// CreateTenant provisions a tenant with its admin, data sources and idp
// POST /api/v1/admin/tenants
func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var logo io.Reader
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if fh, err := c.FormFile("logo"); err == nil {
			f, err := fh.Open()
			if err != nil {
				handlers.RespondError(c, h.log, err)
				return
			}
			defer f.Close()
			logo = f
		}
	}

	res, err := h.tenantService.CreateTenantByAPI(c.Request.Context(), tenant.APICreateRequest{
		TenantID:            req.TenantID,
		Name:                req.Name,
		Status:              req.Status,
		FixedPassword:       req.FixedPassword,
		NotificationMethods: req.NotificationMethods,
		Email:               req.Email,
		Phone:               req.Phone,
		PhoneCountryCode:    req.PhoneCountryCode,
		Logo:                logo,
	})
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, tenantResponse(res))
}

func tenantResponse(res *tenant.Result) TenantResponse {
	return TenantResponse{
		ID:        res.Tenant.ID,
		Name:      res.Tenant.Name,
		Logo:      res.Tenant.Logo,
		Status:    string(res.Tenant.Status),
		IsDefault: res.Tenant.IsDefault,
		IdpID:     res.Idp.ID,
		AdminID:   res.AdminUser.ID,
	}
}

// DeleteTenant removes a tenant and every record it owns
// DELETE /api/v1/admin/tenants/:tenant_id
func (h *TenantHandler) DeleteTenant(c *gin.Context) {
	tenantID := c.Param("tenant_id")
	if tenant.ReservedTenantIDs[tenantID] {
		handlers.RespondError(c, h.log, models.NewValidationError("tenant_id", "the bootstrap tenant cannot be deleted", models.ErrReserved))
		return
	}
	if err := h.tenantService.DeleteTenant(c.Request.Context(), tenantID); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetBuiltinManagementLoginURL
// GET /api/v1/admin/tenants/:tenant_id/builtin-management-login-url
func (h *TenantHandler) GetBuiltinManagementLoginURL(c *gin.Context) {
	url, err := h.tenantService.GetBuiltinManagementLoginURL(c.Request.Context(), c.Param("tenant_id"))
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"login_url": url})
}
