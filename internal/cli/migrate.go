package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lingo/internal/config"
	"github.com/mgpai22/lingo/internal/store"
	"github.com/mgpai22/lingo/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Bring the configured database schema up to date. PostgreSQL migrations
are applied with golang-migrate; SQLite applies its schema when opened.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:         "init [path]",
	Short:       "Write a sample lingo.toml",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annotationNoConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "lingo.toml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.CreateSample(path); err != nil {
			return err
		}
		fmt.Printf("Sample configuration written: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, configCmd)
	configCmd.AddCommand(configInitCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if cfg.Database.Driver == store.DriverPostgres {
		version, err := postgres.Migrate(cfg.Database.DSN)
		if err != nil {
			return err
		}
		logger.Infow("Migrations applied", "driver", cfg.Database.Driver, "version", version)
		fmt.Printf("PostgreSQL schema at version %d\n", version)
		return nil
	}

	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	fmt.Printf("SQLite schema ready: %s\n", cfg.Database.Path)
	return nil
}
