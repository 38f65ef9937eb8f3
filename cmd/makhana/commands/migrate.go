package commands

import (
	"github.com/spf13/cobra"

	applog "makhana/internal/log"
	"makhana/internal/repos"
)

// migrateCmd creates any missing tables and exits.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables",
	Long: `Create any missing tables for the configured database and exit.

Examples:
  makhana migrate
  DB_DRIVER=pgx DB_DSN=postgres://... makhana migrate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done := loadConfig()
		defer done()
		db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		applog.Logger().WithField("driver", cfg.DBDriver).Info("migrate.done")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
