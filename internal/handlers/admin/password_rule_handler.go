package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/handlers"
	"github.com/identity-tenancy-api/internal/passwd"
	"github.com/identity-tenancy-api/internal/services/passwordrule"
)

type PasswordRuleHandler struct {
	resolver *passwordrule.Resolver
	log      *zap.Logger
}

func NewPasswordRuleHandler(resolver *passwordrule.Resolver, log *zap.Logger) *PasswordRuleHandler {
	return &PasswordRuleHandler{resolver: resolver, log: log}
}

type PasswordRuleResponse struct {
	Rule passwd.Rule `json:"rule"`
	Tips []string    `json:"tips"`
}

// GetDefault
// GET /api/v1/admin/password-rules/default
func (h *PasswordRuleHandler) GetDefault(c *gin.Context) {
	rule := h.resolver.GetDefaultRule()
	c.JSON(http.StatusOK, PasswordRuleResponse{Rule: rule, Tips: rule.Tips()})
}

// GetForDataSource
// GET /api/v1/admin/data-sources/:id/password-rule
func (h *PasswordRuleHandler) GetForDataSource(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data source ID"})
		return
	}

	rule, err := h.resolver.GetDataSourceRule(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, PasswordRuleResponse{Rule: rule, Tips: rule.Tips()})
}
