package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/identity-tenancy-api/internal/config"
	"github.com/identity-tenancy-api/internal/utils"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.APIConfig{JWTSecret: "test-secret", JWTExpirationHours: 1}

	router := gin.New()
	router.GET("/private", AuthMiddleware(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(OperatorKey))
	})

	token, err := utils.GenerateJWT("ops", cfg)
	require.NoError(t, err)
	foreign, err := utils.GenerateJWT("ops", &config.APIConfig{JWTSecret: "other", JWTExpirationHours: 1})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "foreign signature", header: "Bearer " + foreign, status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + token, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "ops", w.Body.String())
			}
		})
	}
}
