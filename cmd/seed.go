package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/psds-microservice/chamados-service/internal/auth"
	"github.com/psds-microservice/chamados-service/internal/config"
	"github.com/psds-microservice/chamados-service/internal/database"
	"github.com/psds-microservice/chamados-service/internal/model"
	"github.com/spf13/cobra"
)

var seedSamples bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the gerente, fiscal and admin accounts (and optionally sample tickets)",
	Long: `Creates the GERENTE, FISCAL and ADMIN accounts. Passwords come from
SEED_GERENTE_PASSWORD, SEED_FISCAL_PASSWORD and SEED_ADMIN_PASSWORD; an account
whose variable is empty is skipped. Existing usernames are left untouched.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedSamples, "samples", false, "also insert the sample tickets")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	ctx := cmd.Context()
	if err := database.MigrateUp(ctx, cfg.DatabaseURL()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN(), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	var users []database.SeedUser
	for _, s := range []struct {
		username string
		role     model.Role
	}{
		{"GERENTE", model.RoleManager},
		{"FISCAL", model.RoleInspector},
		{"ADMIN", model.RoleAdmin},
	} {
		env := "SEED_" + s.username + "_PASSWORD"
		pass := os.Getenv(env)
		if pass == "" {
			log.Printf("seed: %s not set, skipping %s", env, s.username)
			continue
		}
		users = append(users, database.SeedUser{Username: s.username, Password: pass, Role: s.role})
	}
	added, err := database.SeedUsers(ctx, db, users, auth.HashPassword)
	if err != nil {
		return err
	}
	log.Printf("seed: %d user(s) created", added)

	if seedSamples {
		n, err := database.SeedSampleTickets(ctx, db)
		if err != nil {
			return err
		}
		log.Printf("seed: %d sample ticket(s) inserted", n)
	}
	return nil
}
