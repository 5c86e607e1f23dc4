// Package ratelimit gates nudge sends per pair identity. Two independent
// tracks: automatic nudges (one per day) and manual nudges (cooldown plus a
// daily cap). State lives in nudge_rate_states rows owned by this package;
// an optional redis front guard collapses cross-instance races.
package ratelimit

import "time"

// Class selects the nudge track.
type Class string

const (
	// ClassAuto is triggered by the caller's own completion.
	ClassAuto Class = "auto"
	// ClassManual is an explicit user-initiated nudge.
	ClassManual Class = "manual"
)

// ParseClass maps the wire value onto a track. Absent or unrecognized
// values default to manual per the request contract.
func ParseClass(raw string) Class {
	if raw == string(ClassAuto) {
		return ClassAuto
	}
	return ClassManual
}

// Manual track policy.
const (
	// ManualCooldown is the minimum gap between manual sends.
	ManualCooldown = 6 * time.Hour
	// ManualDailyCap is the maximum manual sends per canonical day.
	ManualDailyCap = 2
)

// Skip reasons owned by the limiter. Wire-stable; clients switch on them.
const (
	ReasonAutoAlreadySent = "auto_already_sent_today"
	ReasonCooldownActive  = "manual_cooldown_active"
	ReasonDailyCapReached = "manual_daily_cap_reached"
)

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed bool
	Reason  string
}

var allow = Decision{Allowed: true}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}
