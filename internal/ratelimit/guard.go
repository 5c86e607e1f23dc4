package ratelimit

import (
	"time"

	"github.com/pairhabit/nudged/internal/models"
)

// Check runs the track guards for class against the recipient's entry.
// A nil entry means no nudge was ever sent for this pair and always passes.
// The recipient-already-done precondition is the orchestrator's job and
// runs before this.
func Check(entry *models.NudgeRateState, class Class, today string, now time.Time) Decision {
	if class == ClassAuto {
		return checkAuto(entry, today)
	}
	return checkManual(entry, today, now)
}

// checkAuto enforces at most one automatic send per canonical day.
func checkAuto(entry *models.NudgeRateState, today string) Decision {
	if entry == nil {
		return allow
	}
	if entry.AutoSentDayKey == today {
		return deny(ReasonAutoAlreadySent)
	}
	return allow
}

// checkManual enforces the cooldown, then the daily cap, in that order so
// the returned reason is deterministic when both would fire.
func checkManual(entry *models.NudgeRateState, today string, now time.Time) Decision {
	if entry == nil {
		return allow
	}
	if entry.LastManualSentAt != nil && now.Sub(*entry.LastManualSentAt) < ManualCooldown {
		return deny(ReasonCooldownActive)
	}
	if entry.ManualCountDayKey == today && entry.ManualCount >= ManualDailyCap {
		return deny(ReasonDailyCapReached)
	}
	return allow
}

// applySend mutates entry with the transition for a successful send.
func applySend(entry *models.NudgeRateState, class Class, today string, now time.Time) {
	if class == ClassAuto {
		entry.AutoSentDayKey = today
		return
	}
	if entry.ManualCountDayKey == today {
		entry.ManualCount++
	} else {
		entry.ManualCountDayKey = today
		entry.ManualCount = 1
	}
	sentAt := now
	entry.LastManualSentAt = &sentAt
}
