package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/app"
	"github.com/identity-tenancy-api/internal/config"
	"github.com/identity-tenancy-api/internal/utils"
)

const password = "Zq8#mVx2!pLw"

// sharedApp keeps one in-memory App across command invocations, the way a
// real database outlives each process.
func sharedApp(t *testing.T) appFactory {
	t.Helper()
	var a *app.App
	return func(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app.App, error) {
		if a != nil {
			return a, nil
		}
		c := *cfg
		c.Store.Driver = "memory"
		c.Redis.Host = ""
		c.Storage.Driver = "local"
		c.Storage.UploadsPath = t.TempDir()
		var err error
		a, err = app.New(ctx, &c, zap.NewNop())
		return a, err
	}
}

func run(t *testing.T, factory appFactory, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(factory)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTenantCommands(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("APP_LOGIN_URL", "https://login.example.com/")
	factory := sharedApp(t)

	out, err := run(t, factory, "create-tenant", "--tenant-id", "acme", "--password", password)
	require.NoError(t, err)
	assert.Contains(t, out, "create tenant acme successfully")

	_, err = run(t, factory, "create-tenant", "--tenant-id", "acme", "--password", password)
	assert.Error(t, err)

	_, err = run(t, factory, "create-tenant", "--tenant-id", "globex", "--password", "weak")
	assert.Error(t, err)

	out, err = run(t, factory, "get-builtin-management-login-url", "--tenant-id", "acme")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "https://login.example.com/builtin-management-auth/idps/"), out)

	out, err = run(t, factory, "delete-tenant", "--tenant-id", "acme")
	require.NoError(t, err)
	assert.Contains(t, out, "delete tenant acme successfully")

	_, err = run(t, factory, "delete-tenant", "--tenant-id", "acme")
	assert.Error(t, err)
}

func TestCreateTenantRequiresFlags(t *testing.T) {
	_, err := run(t, sharedApp(t), "create-tenant", "--tenant-id", "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")
}

func TestInitDefaultTenant(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	_, err := run(t, sharedApp(t), "init-default-tenant")
	require.Error(t, err)

	t.Setenv("INITIAL_ADMIN_PASSWORD", password)
	factory := sharedApp(t)
	out, err := run(t, factory, "init-default-tenant")
	require.NoError(t, err)
	assert.Contains(t, out, "default tenant system initialized")

	out, err = run(t, factory, "init-default-tenant")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = run(t, factory, "get-builtin-management-login-url")
	require.NoError(t, err)
	assert.Contains(t, out, "/builtin-management-auth/idps/")
}

func TestMigrateWithMemoryStore(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	out, err := run(t, sharedApp(t), "migrate", "--store-driver", "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "no schema to migrate")
}

func TestIssueToken(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ADMIN_API_JWT_SECRET", "cli-secret")

	out, err := run(t, nil, "issue-token", "--operator", "ops")
	require.NoError(t, err)

	claims, err := utils.ValidateJWT(strings.TrimSpace(out), &config.APIConfig{JWTSecret: "cli-secret"})
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Operator)
}
