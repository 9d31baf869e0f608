package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/psds-microservice/chamados-service/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_HOST", "APP_PORT", "HTTP_PORT", "APP_ENV", "LOG_LEVEL", "DATABASE_URL",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_DATABASE", "DB_SSLMODE",
		"JWT_SECRET", "JWT_TTL_MINUTES", "COOKIE_SECURE", "CORS_ALLOWED_ORIGINS",
		"RABBITMQ_URL", "RABBITMQ_EXCHANGE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:8000" {
		t.Errorf("expected default addr 0.0.0.0:8000, got %q", cfg.Addr())
	}
	if cfg.JWT.TTL != 60*time.Minute {
		t.Errorf("expected 60m token ttl, got %v", cfg.JWT.TTL)
	}
	if cfg.RabbitMQ.URL != "" {
		t.Errorf("expected events disabled by default, got %q", cfg.RabbitMQ.URL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("development defaults should validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("DB_PASSWORD", "p@ss word")
	t.Setenv("JWT_TTL_MINUTES", "15")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPPort != "9000" {
		t.Errorf("expected HTTP_PORT fallback, got %q", cfg.HTTPPort)
	}
	if cfg.JWT.TTL != 15*time.Minute {
		t.Errorf("expected 15m ttl, got %v", cfg.JWT.TTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.CookieSecure {
		t.Error("expected secure cookie")
	}
	if !strings.Contains(cfg.DatabaseURL(), "p%40ss+word") {
		t.Errorf("expected escaped password in %q", cfg.DatabaseURL())
	}
}

func TestLoad_DatabaseURLWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@db.example:5432/chamados?sslmode=require")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DSN() != cfg.DatabaseURLOverride || cfg.DatabaseURL() != cfg.DatabaseURLOverride {
		t.Errorf("DATABASE_URL must override DB_* settings")
	}
}

func TestLoad_InvalidTTL(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_TTL_MINUTES", "abc")
	if _, err := config.Load(); err == nil {
		t.Error("expected error for invalid JWT_TTL_MINUTES")
	}
}

func TestValidate_Production(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("production must reject the default JWT secret")
	}

	cfg.JWT.Secret = "a-real-secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid production config, got %v", err)
	}
}
