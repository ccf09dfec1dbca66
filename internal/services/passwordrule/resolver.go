// Package passwordrule resolves the password policy that applies to a data source.
package passwordrule

import (
	"context"
	"errors"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/passwd"
	"github.com/identity-tenancy-api/internal/plugins/local"
	"github.com/identity-tenancy-api/internal/repository"
)

// Default returns the policy of a freshly configured local data source.
func Default() passwd.Rule {
	return *local.DefaultConfig().PasswordRule
}

// ForDataSource returns the policy of a real local data source with
// passwords enabled; anything else is a validation error.
func ForDataSource(ds *models.DataSource) (passwd.Rule, error) {
	if !ds.IsLocal() || !ds.IsReal() {
		return passwd.Rule{}, models.NewValidationError("data_source",
			"password rules are only available for real local data sources", nil)
	}
	cfg, ok := ds.PluginConfig.(*local.Config)
	if !ok || cfg.PasswordRule == nil {
		return passwd.Rule{}, errors.New("local data source carries no password rule")
	}
	if !cfg.EnablePassword {
		return passwd.Rule{}, models.NewValidationError("data_source", "password is not enabled on this data source", nil)
	}
	return *cfg.PasswordRule, nil
}

// Resolver finds the password rule that applies to a data source.
type Resolver struct {
	store repository.Store
}

func NewResolver(store repository.Store) *Resolver {
	return &Resolver{store: store}
}

func (r *Resolver) GetDefaultRule() passwd.Rule {
	return Default()
}

// GetDataSourceRule loads the data source and resolves its rule.
func (r *Resolver) GetDataSourceRule(ctx context.Context, dataSourceID int64) (passwd.Rule, error) {
	var rule passwd.Rule
	err := r.store.View(ctx, func(tx repository.Tx) error {
		ds, err := tx.GetDataSource(ctx, dataSourceID)
		if err != nil {
			return err
		}
		rule, err = ForDataSource(ds)
		return err
	})
	return rule, err
}
