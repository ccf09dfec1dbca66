package plugins

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/models/shared"
	"github.com/identity-tenancy-api/internal/plugins/general"
	"github.com/identity-tenancy-api/internal/plugins/local"
	"github.com/identity-tenancy-api/internal/utils"
)

func TestDecodeSelectsVariant(t *testing.T) {
	raw, err := Encode(local.DefaultConfig())
	require.NoError(t, err)

	cfg, err := Decode(shared.PluginLocal, raw)
	require.NoError(t, err)
	lc, ok := cfg.(*local.Config)
	require.True(t, ok)
	assert.True(t, lc.EnablePassword)
	assert.Equal(t, 32, lc.PasswordRule.MaxLength)

	cfg, err = Decode(shared.PluginGeneral, []byte(`{
		"server_config": {"server_base_url": "https://dir.example.com", "user_api_path": "/users",
			"department_api_path": "/depts", "page_size": 100, "request_timeout": 30, "retries": 1},
		"auth_config": {"method": "none"}
	}`))
	require.NoError(t, err)
	_, ok = cfg.(*general.Config)
	assert.True(t, ok)
}

func TestDecodeRejectsInvalidConfig(t *testing.T) {
	_, err := Decode(shared.PluginGeneral, []byte(`{"server_config": {}, "auth_config": {"method": "none"}}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = Decode("ldap", nil)
	assert.ErrorContains(t, err, "unsupported plugin")

	_, err = Decode(shared.PluginLocal, []byte(`{not json`))
	assert.Error(t, err)
}

func TestMaskedHidesSecretsOnly(t *testing.T) {
	cfg := &general.Config{
		ServerConfig: general.ServerConfig{ServerBaseURL: "https://dir.example.com"},
		AuthConfig:   general.AuthConfig{Method: general.AuthMethodBasicAuth, Username: "svc", Password: "p@ss"},
	}
	doc, err := Masked(cfg)
	require.NoError(t, err)

	auth := doc["auth_config"].(map[string]any)
	assert.Equal(t, utils.ScrubMask, auth["password"])
	assert.Equal(t, "svc", auth["username"])
	assert.NotContains(t, auth, "bearer_token")

	lc := local.DefaultConfig()
	lc.PasswordInitial.FixedPassword = "Strong!Passw0rd"
	doc, err = Masked(lc)
	require.NoError(t, err)
	initial := doc["password_initial"].(map[string]any)
	assert.Equal(t, utils.ScrubMask, initial["fixed_password"])
	assert.Contains(t, doc, "password_rule")
}
