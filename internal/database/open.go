package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to PostgreSQL through GORM. Each request borrows a pooled
// connection for the duration of one operation.
func Open(dsn, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: NewLogger(logLevel)})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Println("database: connected")
	return db, nil
}

// NewLogger maps LOG_LEVEL onto the GORM statement logger.
func NewLogger(level string) logger.Interface {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Default.LogMode(logger.Info)
	case "warn", "warning":
		return logger.Default.LogMode(logger.Warn)
	case "error":
		return logger.Default.LogMode(logger.Error)
	case "silent", "off":
		return logger.Default.LogMode(logger.Silent)
	default:
		return logger.Default.LogMode(logger.Warn)
	}
}
