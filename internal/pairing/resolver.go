package pairing

import (
	"context"
	"errors"
	"strings"

	"github.com/pairhabit/nudged/internal/models"
	"gorm.io/gorm"
)

// Terminal resolution failures, split along the error categories the
// handler maps to status codes.
var (
	// ErrBadAddress means the request supplied neither addressing mode.
	ErrBadAddress = errors.New("pairing: neither stable triple nor legacy key supplied")
	// ErrNoDuoItem means the caller has no duo item matching the address.
	ErrNoDuoItem = errors.New("pairing: no matching duo item for caller")
	// ErrMissingPartner means the caller's item has no partner recorded.
	ErrMissingPartner = errors.New("pairing: duo item has no partner id")
	// ErrPartnerMismatch means the client-supplied partner id contradicts
	// the stored one. Treated as a spoofing attempt, not a typo.
	ErrPartnerMismatch = errors.New("pairing: supplied partner id does not match stored partner")
)

// Ref is the client-supplied address of a duo item. Either the stable
// triple (ChallengeID, DurationDays, PartnerID) or LegacyKey must be set.
type Ref struct {
	ChallengeID  string
	DurationDays int
	PartnerID    string
	LegacyKey    string
}

func (r Ref) hasTriple() bool {
	return strings.TrimSpace(r.ChallengeID) != "" && r.DurationDays > 0 && strings.TrimSpace(r.PartnerID) != ""
}

func (r Ref) hasLegacyKey() bool {
	return strings.TrimSpace(r.LegacyKey) != ""
}

// Valid reports whether at least one addressing mode is present.
func (r Ref) Valid() bool {
	return r.hasTriple() || r.hasLegacyKey()
}

// Resolver finds duo progress items in the document store.
type Resolver struct {
	db *gorm.DB
}

// NewResolver constructs a Resolver backed by the application database.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// ResolveCaller locates the caller's own duo item for the given address.
// The stable triple is preferred; the legacy composite key is a fallback,
// never a merge — the two modes must stay distinguishable.
//
// The returned item's PartnerID is the trusted partner identity. A caller
// supplied partner id that contradicts it yields ErrPartnerMismatch.
func (r *Resolver) ResolveCaller(ctx context.Context, callerID string, ref Ref) (*models.DuoProgress, error) {
	if !ref.Valid() {
		return nil, ErrBadAddress
	}

	var item *models.DuoProgress
	if ref.hasTriple() {
		found, errFind := r.findByTriple(ctx, callerID, ref.ChallengeID, ref.DurationDays, ref.PartnerID)
		if errFind != nil {
			return nil, errFind
		}
		item = found
	}
	if item == nil && ref.hasLegacyKey() {
		found, errFind := r.findByLegacyKey(ctx, callerID, ref.LegacyKey)
		if errFind != nil {
			return nil, errFind
		}
		item = found
	}
	if item == nil {
		return nil, ErrNoDuoItem
	}

	trusted := strings.TrimSpace(item.PartnerID)
	if trusted == "" {
		return nil, ErrMissingPartner
	}
	if supplied := strings.TrimSpace(ref.PartnerID); supplied != "" && supplied != trusted {
		return nil, ErrPartnerMismatch
	}
	return item, nil
}

// ResolveMirror locates the partner's counterpart item. A missing mirror is
// not an error: it means the partner dissolved the duo on their side, and
// the dispatch must skip. Returns (nil, nil) in that case.
func (r *Resolver) ResolveMirror(ctx context.Context, partnerID, callerID string, caller *models.DuoProgress) (*models.DuoProgress, error) {
	mirror, errFind := r.findByTriple(ctx, partnerID, caller.ChallengeID, caller.SelectedDurationDays, callerID)
	if errFind != nil {
		return nil, errFind
	}
	if mirror == nil && strings.TrimSpace(caller.LegacyCompositeKey) != "" {
		mirror, errFind = r.findByLegacyKey(ctx, partnerID, caller.LegacyCompositeKey)
		if errFind != nil {
			return nil, errFind
		}
		// The legacy key carries no partner field on very old rows; only
		// trust the fallback when the mirror points back at the caller or
		// predates partner stamping entirely.
		if mirror != nil && mirror.PartnerID != "" && mirror.PartnerID != callerID {
			mirror = nil
		}
	}
	return mirror, nil
}

func (r *Resolver) findByTriple(ctx context.Context, userID, challengeID string, durationDays int, partnerID string) (*models.DuoProgress, error) {
	var item models.DuoProgress
	errFind := r.db.WithContext(ctx).
		Where("user_id = ? AND is_duo = ? AND challenge_id = ? AND selected_duration_days = ? AND partner_id = ?",
			userID, true, challengeID, durationDays, partnerID).
		First(&item).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if errFind != nil {
		return nil, errFind
	}
	return &item, nil
}

func (r *Resolver) findByLegacyKey(ctx context.Context, userID, legacyKey string) (*models.DuoProgress, error) {
	var item models.DuoProgress
	errFind := r.db.WithContext(ctx).
		Where("user_id = ? AND is_duo = ? AND legacy_composite_key = ?", userID, true, legacyKey).
		First(&item).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if errFind != nil {
		return nil, errFind
	}
	return &item, nil
}
