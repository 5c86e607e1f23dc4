package models

import "time"

// NudgeRateState holds the per-recipient rate limiter state for one duo
// pair. Rows are created lazily on the first send, updated on every
// subsequent send, and never deleted; superseded day keys simply stop
// matching. Owned exclusively by internal/ratelimit.
type NudgeRateState struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID  string `gorm:"type:text;not null;uniqueIndex:idx_rate_state_user_pair"` // Recipient of the nudges.
	PairKey string `gorm:"type:text;not null;uniqueIndex:idx_rate_state_user_pair"` // Canonical pair identity string.

	AutoSentDayKey string `gorm:"type:text"` // Day key of the last automatic send.

	ManualCount       int        `gorm:"not null;default:0"` // Manual sends on ManualCountDayKey.
	ManualCountDayKey string     `gorm:"type:text"`          // Day key the manual counter belongs to.
	LastManualSentAt  *time.Time // Cooldown anchor for manual sends.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
