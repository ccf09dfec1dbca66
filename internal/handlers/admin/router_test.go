package admin

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/identity-tenancy-api/internal/config"
	"github.com/identity-tenancy-api/internal/passwd"
	"github.com/identity-tenancy-api/internal/repository/memory"
	"github.com/identity-tenancy-api/internal/services/displayname"
	"github.com/identity-tenancy-api/internal/services/idgen"
	"github.com/identity-tenancy-api/internal/services/passwordrule"
	"github.com/identity-tenancy-api/internal/services/tenant"
	"github.com/identity-tenancy-api/internal/storage"
	"github.com/identity-tenancy-api/internal/utils"
)

const adminPassword = "Zq8#mVx2!pLw"

type testAPI struct {
	router *gin.Engine
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := memory.New()
	require.NoError(t, err)
	log := zap.NewNop()
	uploads := t.TempDir()

	tenants := tenant.NewService(store, &passwd.BcryptHasher{Cost: bcrypt.MinCost}, idgen.New(),
		tenant.Options{LoginURL: "https://login.example.com", MultiTenantMode: true}, log).
		WithLogos(tenant.NewLogoProcessor(storage.NewLocalStorage(uploads)))

	cfg := &config.APIConfig{JWTSecret: "test-secret", JWTExpirationHours: 1}
	token, err := utils.GenerateJWT("ops", cfg)
	require.NoError(t, err)

	router := NewRouter(cfg, Handlers{
		Tenants:       NewTenantHandler(tenants, log),
		DisplayNames:  NewDisplayNameHandler(displayname.NewHandler(store, nil, log), log),
		PasswordRules: NewPasswordRuleHandler(passwordrule.NewResolver(store), log),
		DataSources:   NewDataSourceHandler(store, log),
		UploadsPath:   uploads,
	})
	return &testAPI{router: router, token: token}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (a *testAPI) createTenant(t *testing.T, id string) TenantResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/admin/tenants", gin.H{
		"tenant_id":      id,
		"name":           strings.ToUpper(id),
		"fixed_password": adminPassword,
		"email":          "admin@" + id + ".com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[TenantResponse](t, w)
}

func TestHealthIsPublic(t *testing.T) {
	api := newTestAPI(t)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/password-rules/default", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTenantLifecycle(t *testing.T) {
	api := newTestAPI(t)

	created := api.createTenant(t, "acme")
	assert.Equal(t, "acme", created.ID)
	assert.Equal(t, "ACME", created.Name)
	assert.Equal(t, "enabled", created.Status)
	assert.NotEmpty(t, created.AdminID)

	w := api.do(t, http.MethodPost, "/api/v1/admin/tenants", gin.H{"tenant_id": "acme", "name": "again"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/admin/tenants", gin.H{"tenant_id": "system", "name": "sys"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/admin/tenants", gin.H{"tenant_id": "globex"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/admin/tenants/acme/builtin-management-login-url", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "https://login.example.com/builtin-management-auth/idps/"+created.IdpID+"/", body["login_url"])

	w = api.do(t, http.MethodGet, "/api/v1/admin/tenants/ghost/builtin-management-login-url", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodDelete, "/api/v1/admin/tenants/system", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodDelete, "/api/v1/admin/tenants/acme", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(t, http.MethodDelete, "/api/v1/admin/tenants/acme", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	api.createTenant(t, "acme")
}

func TestCreateTenantMultipartWithLogo(t *testing.T) {
	api := newTestAPI(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("tenant_id", "acme"))
	require.NoError(t, mw.WriteField("name", "Acme"))
	require.NoError(t, mw.WriteField("notification_methods", "email"))
	part, err := mw.CreateFormFile("logo", "logo.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, image.NewRGBA(image.Rect(0, 0, 64, 32))))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/tenants", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+api.token)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[TenantResponse](t, w)
	require.True(t, strings.HasPrefix(created.Logo, storage.LocalURLPrefix))

	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, created.Logo, nil))
	require.Equal(t, http.StatusOK, w.Code)
	cfg, err := png.DecodeConfig(w.Body)
	require.NoError(t, err)
	assert.Equal(t, tenant.LogoSize, cfg.Width)
}

func TestDisplayNameEndpoints(t *testing.T) {
	api := newTestAPI(t)
	created := api.createTenant(t, "acme")

	w := api.do(t, http.MethodPost, "/api/v1/admin/tenant-users/display-names", gin.H{
		"tenant_user_ids": []string{created.AdminID, "ghost"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	names := decode[struct {
		Data map[string]string `json:"data"`
	}](t, w).Data
	assert.Equal(t, "admin(admin)", names[created.AdminID])
	assert.Equal(t, "ghost", names["ghost"])

	w = api.do(t, http.MethodPost, "/api/v1/admin/tenant-users/display-names", gin.H{"tenant_user_ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPut, "/api/v1/admin/tenants/acme/display-name-config", gin.H{"expression": "{nope}"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPut, "/api/v1/admin/tenants/acme/display-name-config", gin.H{"expression": "{username}-{email}"})
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/admin/tenants/acme/display-name-config/preview", gin.H{"expression": "{full_name}"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "张三", decode[map[string]any](t, w)["display_name"])

	w = api.do(t, http.MethodGet, "/api/v1/admin/tenants/acme/users?keyword=ACME.COM", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[struct {
		Data  []TenantUserResponse `json:"data"`
		Count int                  `json:"count"`
	}](t, w)
	require.Equal(t, 1, found.Count)
	assert.Equal(t, "admin-admin@acme.com", found.Data[0].DisplayName)

	w = api.do(t, http.MethodPut, "/api/v1/admin/tenant-users/"+created.AdminID+"/email", gin.H{"is_inherited": false, "value": "boss@corp.io"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/admin/tenants/acme/users?keyword=acme.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[map[string]any](t, w)["count"])

	w = api.do(t, http.MethodPut, "/api/v1/admin/tenant-users/ghost/phone", gin.H{"is_inherited": false, "value": "123"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPasswordRuleEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.createTenant(t, "acme")

	w := api.do(t, http.MethodGet, "/api/v1/admin/password-rules/default", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rule := decode[PasswordRuleResponse](t, w)
	assert.Equal(t, 12, rule.Rule.MinLength)
	assert.NotEmpty(t, rule.Tips)

	w = api.do(t, http.MethodGet, "/api/v1/admin/data-sources/abc/password-rule", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/admin/data-sources/"+strconv.Itoa(999999)+"/password-rule", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDataSourceEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.createTenant(t, "acme")

	w := api.do(t, http.MethodGet, "/api/v1/admin/tenants/acme/data-sources", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Data []DataSourceResponse `json:"data"`
	}](t, w).Data
	require.Len(t, list, 2)

	var builtin DataSourceResponse
	for _, ds := range list {
		if ds.Type == "builtin_management" {
			builtin = ds
		}
	}
	require.NotZero(t, builtin.ID)
	initial := builtin.PluginConfig["password_initial"].(map[string]any)
	assert.Equal(t, "******", initial["fixed_password"])

	w = api.do(t, http.MethodGet, "/api/v1/admin/data-sources/"+strconv.FormatInt(builtin.ID, 10), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", decode[DataSourceResponse](t, w).OwnerTenantID)

	w = api.do(t, http.MethodGet, "/api/v1/admin/tenants/ghost/data-sources", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDataSourceTestConnection(t *testing.T) {
	api := newTestAPI(t)
	directory := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count": 1, "results": [{"id": "u1"}]}`))
	}))
	defer directory.Close()

	cfg := func(baseURL string) gin.H {
		return gin.H{
			"server_config": gin.H{
				"server_base_url":     baseURL,
				"user_api_path":       "/users",
				"department_api_path": "/departments",
				"page_size":           100,
				"request_timeout":     5,
			},
			"auth_config": gin.H{"method": "none"},
		}
	}

	w := api.do(t, http.MethodPost, "/api/v1/admin/data-sources/test-connection", cfg(directory.URL))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["ok"])

	w = api.do(t, http.MethodPost, "/api/v1/admin/data-sources/test-connection", cfg("ftp://nowhere"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
