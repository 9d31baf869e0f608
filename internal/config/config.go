package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me"

type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string

	// DatabaseURLOverride is DATABASE_URL (hosted Postgres); when set it wins over DB_*.
	DatabaseURLOverride string

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	JWT struct {
		Secret string
		TTL    time.Duration
	}

	// CookieSecure marks the session cookie Secure (HTTPS only).
	CookieSecure bool

	CORSAllowedOrigins []string

	// RabbitMQ: an empty URL disables ticket events.
	RabbitMQ struct {
		URL      string
		Exchange string
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:             getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:            firstEnv("APP_PORT", "HTTP_PORT", "8000"),
		AppEnv:              getEnv("APP_ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DatabaseURLOverride: getEnv("DATABASE_URL", ""),
		CookieSecure:        getBool("COOKIE_SECURE", false),
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "infra_manutencao")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.JWT.Secret = getEnv("JWT_SECRET", defaultJWTSecret)
	minutes, err := strconv.Atoi(getEnv("JWT_TTL_MINUTES", "60"))
	if err != nil || minutes <= 0 {
		return nil, fmt.Errorf("config: JWT_TTL_MINUTES must be a positive integer")
	}
	cfg.JWT.TTL = time.Duration(minutes) * time.Minute

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", "")
	cfg.RabbitMQ.Exchange = getEnv("RABBITMQ_EXCHANGE", "chamados.events")
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURLOverride == "" && (c.DB.Host == "" || c.DB.Database == "") {
		return errors.New("config: DB_HOST and DB_DATABASE are required")
	}
	if c.IsProduction() {
		if c.DatabaseURLOverride == "" && c.DB.Password == "" {
			return errors.New("config: in production DB_PASSWORD is required")
		}
		if c.JWT.Secret == "" || c.JWT.Secret == defaultJWTSecret {
			return errors.New("config: in production JWT_SECRET must be set")
		}
	}
	if c.JWT.Secret == defaultJWTSecret {
		log.Println("config: JWT_SECRET not set, using the development default")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) DSN() string {
	if c.DatabaseURLOverride != "" {
		return c.DatabaseURLOverride
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	if c.DatabaseURLOverride != "" {
		return c.DatabaseURLOverride
	}
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %v", key, v, def)
		return def
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
