// Package nudge sequences a duo accountability nudge end to end: resolve
// the pair, evaluate completion and rate limits, localize the copy, send,
// persist. Business-rule refusals come back as skip outcomes, never errors.
package nudge

import "errors"

// Skip reasons owned by the dispatch flow. The limiter contributes its own
// (see internal/ratelimit). All of them are wire-stable.
const (
	ReasonPartnerNotInDuo = "partner_not_in_duo_anymore"
	ReasonCallerNotDone   = "caller_not_done_today"
	ReasonRecipientDone   = "recipient_already_marked_today"
	ReasonNoValidToken    = "no_valid_push_token"
)

// Terminal errors. The handler maps these to failure status codes; every
// other refusal is a skip outcome.
var (
	// ErrUnauthenticated means no caller identity reached the service.
	ErrUnauthenticated = errors.New("nudge: unauthenticated")
	// ErrSelfNudge means the caller and the partner are the same user.
	ErrSelfNudge = errors.New("nudge: cannot nudge yourself")
	// ErrUserNotFound means a referenced user record does not exist.
	ErrUserNotFound = errors.New("nudge: user not found")
)

// Outcome is the structured result of one dispatch. Exactly one of Sent
// and Skipped is true on success.
type Outcome struct {
	Sent    bool   `json:"sent"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
	PairKey string `json:"pairIdentity,omitempty"`
	DayKey  string `json:"dayKey,omitempty"`
}

func skipped(reason, pairKey, dayKey string) Outcome {
	return Outcome{Skipped: true, Reason: reason, PairKey: pairKey, DayKey: dayKey}
}

func sent(pairKey, dayKey string) Outcome {
	return Outcome{Sent: true, PairKey: pairKey, DayKey: dayKey}
}
