package application

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/chamados-service/internal/auth"
	"github.com/psds-microservice/chamados-service/internal/config"
	"github.com/psds-microservice/chamados-service/internal/database"
	"github.com/psds-microservice/chamados-service/internal/directory"
	"github.com/psds-microservice/chamados-service/internal/events"
	"github.com/psds-microservice/chamados-service/internal/handler"
	"github.com/psds-microservice/chamados-service/internal/router"
	"github.com/psds-microservice/chamados-service/internal/service"
	"github.com/psds-microservice/chamados-service/internal/workflow"
	"gorm.io/gorm"
)

// API is the HTTP application: JSON API, HTML pages and operational routes.
type API struct {
	cfg       *config.Config
	db        *gorm.DB
	publisher events.TicketEventPublisher
	httpSrv   *http.Server
}

// NewAPI applies pending migrations, opens the database and wires the handlers.
func NewAPI(ctx context.Context, cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(ctx, cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN(), cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	publisher, err := events.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		// Events are optional; the API keeps serving without them.
		log.Printf("events: rabbitmq unavailable, ticket events disabled: %v", err)
		publisher = events.Nop{}
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ticketSvc := service.NewTicketService(db)
	userSvc := service.NewUserService(db)
	issuer := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	engine := workflow.NewEngine(ticketSvc, directory.Default(), publisher)

	h := router.New(router.Deps{
		Tickets:     handler.NewTicketHandler(engine),
		Auth:        handler.NewAuthHandler(auth.NewAuthenticator(userSvc, issuer), cfg.CookieSecure),
		Pages:       handler.NewPageHandler(engine),
		Issuer:      issuer,
		Ready:       pinger(db),
		CORSOrigins: cfg.CORSAllowedOrigins,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, db: db, publisher: publisher, httpSrv: httpSrv}, nil
}

func pinger(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", a.httpSrv.Addr)
	log.Printf("  Login:         %s/login-page", base)
	log.Printf("  Swagger UI:    %s/swagger", base)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Ready:         %s/ready", base)
	log.Printf("  API:           %s/chamados/", base)

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			runErr = fmt.Errorf("http: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http shutdown: %w", err)
	}
	if c, ok := a.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("events: close: %v", err)
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
	return runErr
}
