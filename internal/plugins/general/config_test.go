package general

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(baseURL string) *Config {
	return &Config{
		ServerConfig: ServerConfig{
			ServerBaseURL:     baseURL,
			UserAPIPath:       "/api/v1/users",
			DepartmentAPIPath: "/api/v1/departments",
			PageSize:          100,
			RequestTimeout:    5,
			Retries:           0,
		},
		AuthConfig: AuthConfig{Method: AuthMethodBearerToken, BearerToken: "token-123"},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig("https://directory.example.com").Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad scheme", func(c *Config) { c.ServerConfig.ServerBaseURL = "ftp://x" }, "server_base_url"},
		{"trailing slash", func(c *Config) { c.ServerConfig.ServerBaseURL = "https://x.com/" }, "must not end"},
		{"user path", func(c *Config) { c.ServerConfig.UserAPIPath = "users" }, "user_api_path"},
		{"page size", func(c *Config) { c.ServerConfig.PageSize = 7 }, "page_size"},
		{"timeout", func(c *Config) { c.ServerConfig.RequestTimeout = 500 }, "request_timeout"},
		{"retries", func(c *Config) { c.ServerConfig.Retries = 9 }, "retries"},
		{"missing token", func(c *Config) { c.AuthConfig.BearerToken = "" }, "bearer_token"},
		{"basic auth", func(c *Config) { c.AuthConfig = AuthConfig{Method: AuthMethodBasicAuth, Username: "u"} }, "basic_auth"},
		{"unknown auth", func(c *Config) { c.AuthConfig.Method = "oauth" }, "unknown auth method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig("https://directory.example.com")
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		assert.Equal(t, "100", r.URL.Query().Get("page_size"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/users":
			_, _ = w.Write([]byte(`{"count": 2, "results": [{"id": "u1", "username": "zhangsan"}, {"id": "u2"}]}`))
		case "/api/v1/departments":
			_, _ = w.Write([]byte(`{"count": 0, "results": []}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	result, err := NewClient(validConfig(srv.URL)).TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.UserCount)
	assert.Equal(t, int64(0), result.DepartmentCount)
	assert.Contains(t, result.SampleUser, "zhangsan")
	assert.Empty(t, result.SampleDept)
}

func TestTestConnectionRejectsBadEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	_, err := NewClient(validConfig(srv.URL)).TestConnection(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count and results")
}
