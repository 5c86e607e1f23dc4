package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database named by the DSN. Postgres DSNs are the
// production path; "sqlite://" or bare file paths select SQLite.
func Open(dsn string) (*gorm.DB, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, fmt.Errorf("db: empty dsn")
	}

	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	switch {
	case strings.HasPrefix(trimmed, "sqlite://"):
		return gorm.Open(sqlite.Open(strings.TrimPrefix(trimmed, "sqlite://")), cfg)
	case strings.HasPrefix(trimmed, "postgres://"), strings.HasPrefix(trimmed, "postgresql://"), strings.Contains(trimmed, "host="):
		return gorm.Open(postgres.Open(trimmed), cfg)
	default:
		return gorm.Open(sqlite.Open(trimmed), cfg)
	}
}
