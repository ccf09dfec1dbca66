package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/identity-tenancy-api/internal/app"
	"github.com/identity-tenancy-api/internal/config"
)

type appFactory func(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app.App, error)

// cli carries the state shared by every subcommand once the root
// PersistentPreRunE has loaded the configuration.
type cli struct {
	v      *viper.Viper
	newApp appFactory

	configFile string
	cfg        *config.Config
	log        *zap.Logger
	out        io.Writer
}

// newRootCmd builds the command tree. A nil factory connects the
// configured store and Redis.
func newRootCmd(factory appFactory) *cobra.Command {
	if factory == nil {
		factory = app.New
	}
	c := &cli{v: config.New(), newApp: factory}

	root := &cobra.Command{
		Use:           "manage",
		Short:         "Operator commands for the identity tenancy backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c.out = cmd.OutOrStdout()
			cfg, err := config.Load(c.v, c.configFile)
			if err != nil {
				return err
			}
			log, err := app.NewLogger(cfg, "manage")
			if err != nil {
				return err
			}
			c.cfg, c.log = cfg, log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "path to a config file")
	flags.String("store-driver", "", "persistence backend: postgres or memory")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	_ = c.v.BindPFlag("store.driver", flags.Lookup("store-driver"))
	_ = c.v.BindPFlag("log.level", flags.Lookup("log-level"))

	root.AddCommand(
		c.createTenantCmd(),
		c.deleteTenantCmd(),
		c.loginURLCmd(),
		c.initDefaultTenantCmd(),
		c.migrateCmd(),
		c.issueTokenCmd(),
	)
	return root
}

// withApp builds the application, runs fn and releases it.
func (c *cli) withApp(ctx context.Context, fn func(*app.App) error) error {
	a, err := c.newApp(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
