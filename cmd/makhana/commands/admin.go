package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"makhana/internal/repos"
	"makhana/internal/services"
)

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

// adminCreateCmd creates an admin or resets an existing admin's name and password.
var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create or update an admin account",
	Long: `Create an admin account, or update the name and password of the admin
with the same email.

Examples:
  makhana admin create --email owner@makhana.in --password 's3cret!' --name Owner`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done := loadConfig()
		defer done()
		db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return err
		}
		defer db.Close()

		auth := services.NewAuthService(repos.NewUserRepo(db), repos.NewAdminRepo(db))
		id, err := auth.EnsureAdmin(context.Background(), adminName, adminEmail, adminPassword)
		if err != nil {
			return fmt.Errorf("admin create: %s", services.Message(err, err.Error()))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s ready (id %d)\n", adminEmail, id)
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminName, "name", "Admin", "Display name")
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "Login email")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "Login password (min 6 characters)")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")

	adminCmd.AddCommand(adminCreateCmd)
	rootCmd.AddCommand(adminCmd)
}
