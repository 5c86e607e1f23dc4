package models

import (
	"time"

	"gorm.io/datatypes"
)

// DuoProgress is one user's side of a tracked challenge. Owned by the
// challenge-tracking subsystem; this service only reads it.
//
// The four completion fields overlap on purpose: different client versions
// wrote different subsets, and none can be dropped without orphaning old
// records. internal/completion reconciles them.
type DuoProgress struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID string `gorm:"type:text;not null;index"` // Owning user.

	ChallengeID          string `gorm:"type:text;not null"` // Which commitment.
	SelectedDurationDays int    `gorm:"not null"`           // Commitment length in days.

	IsDuo     bool   `gorm:"not null;default:false"` // Only duo items are visible to the dispatcher.
	PartnerID string `gorm:"type:text"`              // The other participant; authoritative over client input.

	// Pre-duo-rework records are addressed by "<challengeId>_<durationDays>"
	// instead of the stable triple. Kept readable for those records only.
	LegacyCompositeKey string `gorm:"type:text"`

	LastCompletionKey         string                      `gorm:"type:text"` // Canonical day key of the latest check-in.
	LastCompletionTimestamp   string                      `gorm:"type:text"` // Raw timestamp string written by older clients.
	CompletionKeyHistory      datatypes.JSONSlice[string] `gorm:"type:json"` // Canonical day keys, append order.
	CompletionTimestampHistory datatypes.JSONSlice[string] `gorm:"type:json"` // Raw timestamp strings, append order.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
