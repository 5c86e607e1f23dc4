package models

import (
	"time"

	"gorm.io/datatypes"
)

// User mirrors the narrow slice of the account record this service reads
// and writes. The account/profile subsystem owns the rest of the profile;
// ids are opaque strings minted there.
type User struct {
	ID string `gorm:"type:text;primaryKey"` // Opaque account id.

	DisplayName        string `gorm:"type:text"`                    // Optional human-readable name, used in nudge copy.
	LanguagePreference string `gorm:"type:text"`                    // Free-form client locale, normalized at lookup time.
	PushToken          string `gorm:"type:text"`                    // Primary push destination slot.
	PushTokens         datatypes.JSONSlice[string] `gorm:"type:json"` // Additional push destination slots.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// AllPushTokens returns the primary slot plus the collection slot, deduped,
// preserving order. Entries may be stale; the push gateway decides validity.
func (u *User) AllPushTokens() []string {
	seen := make(map[string]struct{}, len(u.PushTokens)+1)
	out := make([]string, 0, len(u.PushTokens)+1)
	appendToken := func(token string) {
		if token == "" {
			return
		}
		if _, dup := seen[token]; dup {
			return
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	appendToken(u.PushToken)
	for _, token := range u.PushTokens {
		appendToken(token)
	}
	return out
}
