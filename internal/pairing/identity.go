// Package pairing locates the two sides of a duo challenge and derives the
// canonical identity the rate limiter keys on.
package pairing

import (
	"fmt"
	"strings"
)

// Identity names one (challenge, duration, pair-of-users) tuple. Construct
// it through NewIdentity only; callers must never assemble the key string by
// hand, since an unsorted pair would split one pair's limiter state in two.
type Identity struct {
	ChallengeID  string
	DurationDays int
	// UserA sorts lexicographically before UserB.
	UserA string
	UserB string
}

// NewIdentity builds the canonical identity for a pair. The participant
// order does not matter.
func NewIdentity(challengeID string, durationDays int, first, second string) Identity {
	a, b := first, second
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return Identity{
		ChallengeID:  challengeID,
		DurationDays: durationDays,
		UserA:        a,
		UserB:        b,
	}
}

// Key returns the canonical string form used as the rate limiter map key.
func (id Identity) Key() string {
	return fmt.Sprintf("%s:%d:%s:%s", id.ChallengeID, id.DurationDays, id.UserA, id.UserB)
}

// LegacyCompositeKey builds the pre-rework addressing key for a challenge.
// Old progress rows are still addressed with it.
func LegacyCompositeKey(challengeID string, durationDays int) string {
	return fmt.Sprintf("%s_%d", challengeID, durationDays)
}
