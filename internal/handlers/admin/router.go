package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/identity-tenancy-api/internal/config"
	"github.com/identity-tenancy-api/internal/middleware"
)

// Handlers groups every admin API handler.
type Handlers struct {
	Tenants       *TenantHandler
	DisplayNames  *DisplayNameHandler
	PasswordRules *PasswordRuleHandler
	DataSources   *DataSourceHandler
	// UploadsPath is served under /uploads when logos live on local disk.
	UploadsPath string
}

// NewRouter wires the admin API routes. Everything below /api/v1/admin
// requires a bearer token.
func NewRouter(cfg *config.APIConfig, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "admin-api"})
	})
	if h.UploadsPath != "" {
		router.Static("/uploads", h.UploadsPath)
	}

	protected := router.Group("/api/v1/admin")
	protected.Use(middleware.AuthMiddleware(cfg))
	{
		protected.POST("/tenants", h.Tenants.CreateTenant)
		protected.DELETE("/tenants/:tenant_id", h.Tenants.DeleteTenant)
		protected.GET("/tenants/:tenant_id/builtin-management-login-url", h.Tenants.GetBuiltinManagementLoginURL)

		protected.GET("/tenants/:tenant_id/users", h.DisplayNames.SearchUsers)
		protected.GET("/tenants/:tenant_id/display-name-config", h.DisplayNames.GetConfig)
		protected.PUT("/tenants/:tenant_id/display-name-config", h.DisplayNames.UpdateConfig)
		protected.POST("/tenants/:tenant_id/display-name-config/preview", h.DisplayNames.Preview)
		protected.POST("/tenant-users/display-names", h.DisplayNames.DisplayNames)
		protected.PUT("/tenant-users/:id/phone", h.DisplayNames.UpdatePhone)
		protected.PUT("/tenant-users/:id/email", h.DisplayNames.UpdateEmail)

		protected.GET("/password-rules/default", h.PasswordRules.GetDefault)
		protected.GET("/data-sources/:id/password-rule", h.PasswordRules.GetForDataSource)

		protected.GET("/tenants/:tenant_id/data-sources", h.DataSources.ListDataSources)
		protected.GET("/data-sources/:id", h.DataSources.GetDataSource)
		protected.POST("/data-sources/test-connection", h.DataSources.TestConnection)
	}

	return router
}
