package local

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/identity-tenancy-api/internal/models/shared"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, shared.PluginLocal, cfg.PluginID())
	assert.True(t, cfg.NotificationEnabled())
	assert.Equal(t, 12, cfg.PasswordRule.MinLength)
}

func TestDisabledConfigSkipsPasswordSections(t *testing.T) {
	cfg := DisabledConfig()
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.NotificationEnabled())
}

func TestValidateFixedPassword(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PasswordInitial.GenerateMethod = shared.PasswordGenerateMethodFixed

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixed_password is required")

	cfg.PasswordInitial.FixedPassword = "weak"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not meet the password rules")

	cfg.PasswordInitial.FixedPassword = "Strong!Passw0rd"
	assert.NoError(t, cfg.Validate())
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := &Config{EnablePassword: true}
	err := cfg.Validate()
	require.Error(t, err)
	for _, section := range []string{"password_rule", "password_initial", "password_expire", "login_limit"} {
		assert.Contains(t, err.Error(), section)
	}
}

func TestValidateValidTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PasswordExpire.ValidTime = NeverExpire
	assert.NoError(t, cfg.Validate())

	cfg.PasswordExpire.ValidTime = 7
	assert.ErrorContains(t, cfg.Validate(), "valid_time")
}
