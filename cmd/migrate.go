package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/psds-microservice/chamados-service/internal/config"
	"github.com/psds-microservice/chamados-service/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrate("up", database.MigrateUp),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration",
	RunE:  runMigrate("down", database.MigrateDown),
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state of every migration",
	RunE:  runMigrate("status", database.MigrateStatus),
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
}

func runMigrate(name string, fn func(ctx context.Context, databaseURL string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if err := fn(cmd.Context(), cfg.DatabaseURL()); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
		log.Printf("migrate %s: ok", name)
		return nil
	}
}
