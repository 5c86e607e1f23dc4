// Package completion answers "did this progress item get checked off on a
// given day" across the overlapping field shapes that different client
// versions wrote. The check is a prioritized chain of pure extractors;
// adding a future shape means adding one extractor, nothing else.
package completion

import (
	"github.com/pairhabit/nudged/internal/daykey"
	"github.com/pairhabit/nudged/internal/models"
)

// extractor reports whether one field shape encodes the given day key.
type extractor func(item *models.DuoProgress, key string) bool

// Ordered most to least reliable. The chain is deliberately permissive: a
// false negative here means a pointless duplicate nudge for someone who
// already checked in.
var extractors = []extractor{
	matchLastCompletionKey,
	matchLastCompletionTimestamp,
	matchKeyHistory,
	matchTimestampHistory,
}

// CompletedOn reports whether the item was marked done on the day named by
// key. A nil item or an item with no matching field reports false.
func CompletedOn(item *models.DuoProgress, key string) bool {
	if item == nil || key == "" {
		return false
	}
	for _, match := range extractors {
		if match(item, key) {
			return true
		}
	}
	return false
}

func matchLastCompletionKey(item *models.DuoProgress, key string) bool {
	normalized, ok := daykey.Normalize(item.LastCompletionKey)
	return ok && normalized == key
}

func matchLastCompletionTimestamp(item *models.DuoProgress, key string) bool {
	normalized, ok := daykey.Normalize(item.LastCompletionTimestamp)
	return ok && normalized == key
}

func matchKeyHistory(item *models.DuoProgress, key string) bool {
	for i := len(item.CompletionKeyHistory) - 1; i >= 0; i-- {
		if normalized, ok := daykey.Normalize(item.CompletionKeyHistory[i]); ok && normalized == key {
			return true
		}
	}
	return false
}

func matchTimestampHistory(item *models.DuoProgress, key string) bool {
	// Newest entries are appended last; scanning backwards hits the
	// common case (checked in moments ago) first.
	for i := len(item.CompletionTimestampHistory) - 1; i >= 0; i-- {
		if normalized, ok := daykey.Normalize(item.CompletionTimestampHistory[i]); ok && normalized == key {
			return true
		}
	}
	return false
}
