package main

import (
	"github.com/spf13/cobra"
	"github.com/suteetoe/backoffice/internal/admin"
	"github.com/suteetoe/backoffice/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = database.Close(db) }()
		return admin.Migrate(db, log)
	},
}

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "Inspect tenants",
}

var tenantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants with their row counts and the rows no tenant owns",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, _, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = database.Close(db) }()

		report, err := admin.TenantReport(cmd.Context(), db)
		if err != nil {
			return err
		}
		return report.Write(cmd.OutOrStdout())
	},
}

func init() {
	tenantsCmd.AddCommand(tenantsListCmd)
	rootCmd.AddCommand(migrateCmd, tenantsCmd)
}
