package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/identity-tenancy-api/internal/config"
)

func TestJWTRoundTrip(t *testing.T) {
	cfg := &config.APIConfig{JWTSecret: "s3cr3t", JWTExpirationHours: 1}

	token, err := GenerateJWT("ops", cfg)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Operator)
	assert.NotEmpty(t, claims.ID)

	_, err = ValidateJWT(token, &config.APIConfig{JWTSecret: "other"})
	assert.Error(t, err)
}

func TestGenerateJWTRequiresSecret(t *testing.T) {
	_, err := GenerateJWT("ops", &config.APIConfig{})
	assert.Error(t, err)
}

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateCode(TenantUserCodeLength)
		require.NoError(t, err)
		assert.Len(t, code, TenantUserCodeLength)
		assert.Regexp(t, `^[A-Za-z0-9]+$`, code)
		seen[code] = true
	}
	assert.Len(t, seen, 50)
}
