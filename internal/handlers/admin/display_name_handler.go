package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/handlers"
	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/services/displayname"
)

type DisplayNameHandler struct {
	displayNames *displayname.Handler
	log          *zap.Logger
}

func NewDisplayNameHandler(displayNames *displayname.Handler, log *zap.Logger) *DisplayNameHandler {
	return &DisplayNameHandler{displayNames: displayNames, log: log}
}

type DisplayNamesRequest struct {
	TenantUserIDs []string `json:"tenant_user_ids" binding:"required,min=1,max=500"`
}

// DisplayNames resolves one display name per requested tenant user id
// POST /api/v1/admin/tenant-users/display-names
func (h *DisplayNameHandler) DisplayNames(c *gin.Context) {
	var req DisplayNamesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	names, err := h.displayNames.GetDisplayNameMapByIDs(c.Request.Context(), req.TenantUserIDs)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": names})
}

type TenantUserResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// SearchUsers lists tenant users whose display name fields contain keyword
// GET /api/v1/admin/tenants/:tenant_id/users?keyword=
func (h *DisplayNameHandler) SearchUsers(c *gin.Context) {
	ctx := c.Request.Context()
	users, err := h.displayNames.SearchTenantUsers(ctx, c.Param("tenant_id"), c.Query("keyword"))
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	names, err := h.displayNames.BatchRender(ctx, users)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}

	out := make([]TenantUserResponse, 0, len(users))
	for _, u := range users {
		resp := TenantUserResponse{
			ID:          u.ID,
			DisplayName: names[u.ID],
			Email:       u.EffectiveEmail(),
			Phone:       u.EffectivePhone().Number,
		}
		if u.DataSourceUser != nil {
			resp.Username, resp.FullName = u.DataSourceUser.Username, u.DataSourceUser.FullName
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "count": len(out)})
}

type ExpressionRequest struct {
	Expression string `json:"expression" binding:"required"`
}

// UpdateConfig stores a new display name expression
// PUT /api/v1/admin/tenants/:tenant_id/display-name-config
func (h *DisplayNameHandler) UpdateConfig(c *gin.Context) {
	var req ExpressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	cfg, err := h.displayNames.UpdateConfig(c.Request.Context(), c.Param("tenant_id"), req.Expression)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// GetConfig
// GET /api/v1/admin/tenants/:tenant_id/display-name-config
func (h *DisplayNameHandler) GetConfig(c *gin.Context) {
	cfg, err := h.displayNames.GetConfig(c.Request.Context(), c.Param("tenant_id"))
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Preview renders an expression against a sample user
// POST /api/v1/admin/tenants/:tenant_id/display-name-config/preview
func (h *DisplayNameHandler) Preview(c *gin.Context) {
	var req ExpressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	tenantID := c.Param("tenant_id")
	name, err := h.displayNames.Preview(c.Request.Context(), tenantID, req.Expression)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"display_name": name, "user": displayname.PreviewUser(tenantID).DataSourceUser})
}

type ContactRequest struct {
	Inherited   bool   `json:"is_inherited"`
	Value       string `json:"value"`
	CountryCode string `json:"country_code"`
}

// UpdatePhone switches a tenant user between the directory phone and an override
// PUT /api/v1/admin/tenant-users/:id/phone
func (h *DisplayNameHandler) UpdatePhone(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	phone := models.Phone{Number: req.Value, CountryCode: req.CountryCode}
	if err := h.displayNames.UpdateTenantUserPhone(c.Request.Context(), c.Param("id"), req.Inherited, phone); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateEmail
// PUT /api/v1/admin/tenant-users/:id/email
func (h *DisplayNameHandler) UpdateEmail(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	if err := h.displayNames.UpdateTenantUserEmail(c.Request.Context(), c.Param("id"), req.Inherited, req.Value); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
