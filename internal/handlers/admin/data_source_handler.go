package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/handlers"
	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/plugins"
	"github.com/identity-tenancy-api/internal/plugins/general"
	"github.com/identity-tenancy-api/internal/repository"
)

type DataSourceHandler struct {
	store repository.Store
	log   *zap.Logger
}

func NewDataSourceHandler(store repository.Store, log *zap.Logger) *DataSourceHandler {
	return &DataSourceHandler{store: store, log: log}
}

// DataSourceResponse carries the plugin config with secrets masked.
type DataSourceResponse struct {
	ID            int64          `json:"id"`
	OwnerTenantID string         `json:"owner_tenant_id"`
	Type          string         `json:"type"`
	PluginID      string         `json:"plugin_id"`
	PluginConfig  map[string]any `json:"plugin_config"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func toDataSourceResponse(ds *models.DataSource) (DataSourceResponse, error) {
	masked, err := plugins.Masked(ds.PluginConfig)
	if err != nil {
		return DataSourceResponse{}, err
	}
	return DataSourceResponse{
		ID:            ds.ID,
		OwnerTenantID: ds.OwnerTenantID,
		Type:          string(ds.Type),
		PluginID:      string(ds.PluginID),
		PluginConfig:  masked,
		UpdatedAt:     ds.UpdatedAt,
	}, nil
}

// ListDataSources
// GET /api/v1/admin/tenants/:tenant_id/data-sources
func (h *DataSourceHandler) ListDataSources(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.Param("tenant_id")

	var sources []*models.DataSource
	err := h.store.View(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetTenant(ctx, tenantID); err != nil {
			return err
		}
		var err error
		sources, err = tx.ListDataSources(ctx, tenantID)
		return err
	})
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}

	data := make([]DataSourceResponse, 0, len(sources))
	for _, ds := range sources {
		resp, err := toDataSourceResponse(ds)
		if err != nil {
			handlers.RespondError(c, h.log, err)
			return
		}
		data = append(data, resp)
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// GetDataSource
// GET /api/v1/admin/data-sources/:id
func (h *DataSourceHandler) GetDataSource(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data source ID"})
		return
	}

	ctx := c.Request.Context()
	var ds *models.DataSource
	err = h.store.View(ctx, func(tx repository.Tx) error {
		var err error
		ds, err = tx.GetDataSource(ctx, id)
		return err
	})
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}

	resp, err := toDataSourceResponse(ds)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TestConnection checks a general plugin config against its remote
// directory without saving anything. An unreachable directory is reported
// in the body, not as an HTTP error.
// POST /api/v1/admin/data-sources/test-connection
func (h *DataSourceHandler) TestConnection(c *gin.Context) {
	var cfg general.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := general.NewClient(&cfg).TestConnection(c.Request.Context())
	if err != nil {
		h.log.Info("data source connection test failed",
			zap.String("server_base_url", cfg.ServerConfig.ServerBaseURL), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": result})
}
