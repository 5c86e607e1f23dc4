package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	internaldb "github.com/pairhabit/nudged/internal/db"
	"github.com/pairhabit/nudged/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists per-(recipient, pair) limiter state. Entries are created
// lazily on the first send and never deleted; stale day keys simply stop
// matching.
type Store struct {
	db *gorm.DB
}

// NewStore constructs a Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get loads the entry for a recipient and pair. Returns nil when no nudge
// has ever been recorded for the pair.
func (s *Store) Get(ctx context.Context, userID, pairKey string) (*models.NudgeRateState, error) {
	var entry models.NudgeRateState
	errFind := s.db.WithContext(ctx).
		Where("user_id = ? AND pair_key = ?", userID, pairKey).
		First(&entry).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if errFind != nil {
		return nil, fmt.Errorf("rate limit store: load entry: %w", errFind)
	}
	return &entry, nil
}

// RecordSend applies the send transition for class. The row is created
// idempotently first, then re-read under a row lock (on dialects that
// support it) and mutated inside one transaction, so two racing dispatches
// for the same pair serialize here instead of losing an update.
func (s *Store) RecordSend(ctx context.Context, userID, pairKey string, class Class, today string, now time.Time) error {
	blank := models.NudgeRateState{UserID: userID, PairKey: pairKey}
	if errEnsure := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "pair_key"}},
		DoNothing: true,
	}).Create(&blank).Error; errEnsure != nil {
		return fmt.Errorf("rate limit store: ensure entry: %w", errEnsure)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("user_id = ? AND pair_key = ?", userID, pairKey)
		if internaldb.SupportsRowLocking(tx) {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var entry models.NudgeRateState
		if errFind := query.First(&entry).Error; errFind != nil {
			return fmt.Errorf("rate limit store: lock entry: %w", errFind)
		}

		applySend(&entry, class, today, now)
		return tx.Save(&entry).Error
	})
}
