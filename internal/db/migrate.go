package db

import (
	"fmt"

	"github.com/pairhabit/nudged/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// migratePostgres applies PostgreSQL-specific schema updates and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.DuoProgress{},
		&models.NudgeRateState{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	// Rows imported before the stable-triple rework carry only the
	// composite key; derive the challenge id where it is missing so the
	// preferred addressing mode works against old rows too.
	if errBackfill := conn.Exec(`
		UPDATE duo_progresses
		SET challenge_id = split_part(legacy_composite_key, '_', 1)
		WHERE challenge_id = '' AND legacy_composite_key <> ''
	`).Error; errBackfill != nil {
		return fmt.Errorf("db: backfill challenge ids: %w", errBackfill)
	}

	if errPairIdx := conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_duo_progresses_user_challenge
		ON duo_progresses (user_id, challenge_id, selected_duration_days)
	`).Error; errPairIdx != nil {
		return fmt.Errorf("db: create duo progress index: %w", errPairIdx)
	}

	return nil
}

// migrateSQLite runs the reduced migration set used by tests and local runs.
func migrateSQLite(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.DuoProgress{},
		&models.NudgeRateState{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return nil
}
