package passwordrule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/models/shared"
	"github.com/identity-tenancy-api/internal/passwd"
	"github.com/identity-tenancy-api/internal/plugins/general"
	"github.com/identity-tenancy-api/internal/plugins/local"
	"github.com/identity-tenancy-api/internal/repository"
	"github.com/identity-tenancy-api/internal/repository/memory"
)

func TestDefault(t *testing.T) {
	rule := Default()
	assert.Equal(t, passwd.DefaultRule(), rule)
	assert.Equal(t, 12, rule.MinLength)
}

func TestForDataSource(t *testing.T) {
	strict := local.DefaultConfig()
	strict.PasswordRule.MinLength = 20

	tests := []struct {
		name    string
		ds      *models.DataSource
		wantErr bool
		wantMin int
	}{
		{
			name:    "real local",
			ds:      &models.DataSource{Type: shared.DataSourceTypeReal, PluginID: shared.PluginLocal, PluginConfig: strict},
			wantMin: 20,
		},
		{
			name:    "builtin management",
			ds:      &models.DataSource{Type: shared.DataSourceTypeBuiltinManagement, PluginID: shared.PluginLocal, PluginConfig: local.DefaultConfig()},
			wantErr: true,
		},
		{
			name:    "general plugin",
			ds:      &models.DataSource{Type: shared.DataSourceTypeReal, PluginID: shared.PluginGeneral, PluginConfig: &general.Config{}},
			wantErr: true,
		},
		{
			name: "password disabled",
			ds: &models.DataSource{Type: shared.DataSourceTypeReal, PluginID: shared.PluginLocal, PluginConfig: func() *local.Config {
				cfg := local.DefaultConfig()
				cfg.EnablePassword = false
				return cfg
			}()},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := ForDataSource(tt.ds)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMin, rule.MinLength)
		})
	}
}

func TestResolverLoadsDataSource(t *testing.T) {
	store, err := memory.New()
	require.NoError(t, err)
	ctx := context.Background()

	ds := &models.DataSource{OwnerTenantID: "acme", Type: shared.DataSourceTypeReal, PluginID: shared.PluginLocal, PluginConfig: local.DefaultConfig()}
	require.NoError(t, store.Update(ctx, func(tx repository.Tx) error {
		return tx.CreateDataSource(ctx, ds)
	}))

	r := NewResolver(store)
	rule, err := r.GetDataSourceRule(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, r.GetDefaultRule(), rule)

	_, err = r.GetDataSourceRule(ctx, 424242)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
