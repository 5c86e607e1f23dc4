package nudge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pairhabit/nudged/internal/completion"
	"github.com/pairhabit/nudged/internal/daykey"
	"github.com/pairhabit/nudged/internal/i18n"
	"github.com/pairhabit/nudged/internal/models"
	"github.com/pairhabit/nudged/internal/pairing"
	"github.com/pairhabit/nudged/internal/push"
	"github.com/pairhabit/nudged/internal/ratelimit"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Request is the inbound dispatch payload. Either the stable triple or the
// legacy composite key must address the caller's duo item.
type Request struct {
	Type         string `json:"type"`
	LegacyKey    string `json:"legacyCompositeKey"`
	ChallengeID  string `json:"challengeId"`
	DurationDays int    `json:"selectedDurationDays"`
	PartnerID    string `json:"partnerId"`
}

// Service is the dispatch orchestrator.
type Service struct {
	db         *gorm.DB
	resolver   *pairing.Resolver
	limiter    *ratelimit.Manager
	dispatcher *push.Dispatcher
	nowFn      func() time.Time
}

// NewService constructs a Service. A nil nowFn selects time.Now.
func NewService(db *gorm.DB, resolver *pairing.Resolver, limiter *ratelimit.Manager, dispatcher *push.Dispatcher, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{
		db:         db,
		resolver:   resolver,
		limiter:    limiter,
		dispatcher: dispatcher,
		nowFn:      nowFn,
	}
}

// Dispatch runs the full nudge sequence for the authenticated caller.
// Business-rule refusals return a skip Outcome with a machine-readable
// reason; errors are reserved for auth, malformed input, and missing
// records.
func (s *Service) Dispatch(ctx context.Context, callerID string, req Request) (Outcome, error) {
	callerID = strings.TrimSpace(callerID)
	if callerID == "" {
		return Outcome{}, ErrUnauthenticated
	}
	if strings.TrimSpace(req.PartnerID) == callerID {
		return Outcome{}, ErrSelfNudge
	}

	class := ratelimit.ParseClass(req.Type)
	now := s.nowFn()
	today := daykey.FromTime(now)

	callerItem, errResolve := s.resolver.ResolveCaller(ctx, callerID, pairing.Ref{
		ChallengeID:  req.ChallengeID,
		DurationDays: req.DurationDays,
		PartnerID:    req.PartnerID,
		LegacyKey:    req.LegacyKey,
	})
	if errResolve != nil {
		return Outcome{}, errResolve
	}

	partnerID := callerItem.PartnerID
	if partnerID == callerID {
		return Outcome{}, ErrSelfNudge
	}

	identity := pairing.NewIdentity(callerItem.ChallengeID, callerItem.SelectedDurationDays, callerID, partnerID)
	pairKey := identity.Key()

	mirror, errMirror := s.resolver.ResolveMirror(ctx, partnerID, callerID, callerItem)
	if errMirror != nil {
		return Outcome{}, errMirror
	}
	if mirror == nil {
		return skipped(ReasonPartnerNotInDuo, pairKey, today), nil
	}

	// A nudge is pointless once the recipient already checked in; this
	// short-circuits before any track guard.
	if completion.CompletedOn(mirror, today) {
		return skipped(ReasonRecipientDone, pairKey, today), nil
	}
	if class == ratelimit.ClassAuto && !completion.CompletedOn(callerItem, today) {
		return skipped(ReasonCallerNotDone, pairKey, today), nil
	}

	decision, errEvaluate := s.limiter.Evaluate(ctx, partnerID, pairKey, class, today)
	if errEvaluate != nil {
		return Outcome{}, errEvaluate
	}
	if !decision.Allowed {
		return skipped(decision.Reason, pairKey, today), nil
	}

	caller, errCaller := s.loadUser(ctx, callerID)
	if errCaller != nil {
		return Outcome{}, errCaller
	}
	recipient, errRecipient := s.loadUser(ctx, partnerID)
	if errRecipient != nil {
		return Outcome{}, errRecipient
	}

	msg := i18n.Resolve(recipient.LanguagePreference, string(class), senderName(caller))
	data := map[string]string{
		"type":        "duo_nudge",
		"nudgeClass":  string(class),
		"challengeId": callerItem.ChallengeID,
		"senderId":    callerID,
		"nudgeId":     uuid.NewString(),
	}

	// Reserve the cross-instance slot only once the dispatch is committed
	// to sending; racing dispatches for the same pair collapse here.
	if reservation := s.limiter.Reserve(ctx, pairKey, class, today); !reservation.Allowed {
		return skipped(reservation.Reason, pairKey, today), nil
	}

	delivery, errDispatch := s.dispatcher.Dispatch(ctx, recipient, msg.Title, msg.Body, data)
	if errDispatch != nil {
		s.limiter.Release(ctx, pairKey, class, today)
		if errors.Is(errDispatch, push.ErrNoValidDestination) {
			return skipped(ReasonNoValidToken, pairKey, today), nil
		}
		return Outcome{}, errDispatch
	}

	// Skips perform no write; committing only after an actual send keeps
	// retried skips idempotent.
	if errCommit := s.limiter.CommitSend(ctx, partnerID, pairKey, class, today); errCommit != nil {
		// The notification is already out; surfacing a failure now would
		// make the caller retry and double-send.
		log.WithError(errCommit).WithField("pair", pairKey).Warn("nudge: persist rate limit state failed")
	}

	log.WithFields(log.Fields{
		"pair":      pairKey,
		"class":     class,
		"attempted": delivery.Attempted,
		"delivered": delivery.Delivered,
		"pruned":    delivery.Pruned,
	}).Info("nudge: dispatched")

	return sent(pairKey, today), nil
}

func (s *Service) loadUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	errFind := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if errFind != nil {
		return nil, errFind
	}
	return &user, nil
}

func senderName(u *models.User) string {
	return strings.TrimSpace(u.DisplayName)
}
