package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/psds-microservice/chamados-service/internal/application"
	"github.com/psds-microservice/chamados-service/internal/config"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the HTTP server (JSON API and web pages)",
	RunE:  runAPI,
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := application.NewAPI(ctx, cfg)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
