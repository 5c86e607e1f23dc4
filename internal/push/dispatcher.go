package push

import (
	"context"
	"errors"

	"github.com/pairhabit/nudged/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNoValidDestination means every stored address failed format
// validation before any send was attempted.
var ErrNoValidDestination = errors.New("push: no valid destination")

// Delivery summarizes one dispatch.
type Delivery struct {
	Attempted int
	Delivered int
	Pruned    int
}

// Dispatcher fans one notification out to all of a recipient's valid
// destinations and reconciles the gateway's per-destination results.
type Dispatcher struct {
	gateway Gateway
	db      *gorm.DB
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(gateway Gateway, db *gorm.DB) *Dispatcher {
	return &Dispatcher{gateway: gateway, db: db}
}

// Dispatch validates the recipient's stored addresses, sends to the valid
// ones, and prunes addresses the gateway reports as permanently dead. The
// prune is best effort; its failures are logged and swallowed. Returns
// ErrNoValidDestination without touching the gateway when validation
// leaves nothing to send to.
func (d *Dispatcher) Dispatch(ctx context.Context, recipient *models.User, title, body string, data map[string]string) (Delivery, error) {
	valid := make([]string, 0, 4)
	for _, addr := range recipient.AllPushTokens() {
		if d.gateway.ValidateAddress(addr) {
			valid = append(valid, addr)
		}
	}
	if len(valid) == 0 {
		return Delivery{}, ErrNoValidDestination
	}

	messages := make([]Message, 0, len(valid))
	for _, addr := range valid {
		messages = append(messages, Message{
			To:    addr,
			Title: title,
			Body:  body,
			Data:  data,
			Sound: "default",
		})
	}

	tickets, errSend := d.gateway.Send(ctx, messages)
	if errSend != nil {
		return Delivery{Attempted: len(messages)}, errSend
	}

	delivery := Delivery{Attempted: len(messages)}
	var dead []string
	for i, ticket := range tickets {
		switch {
		case ticket.OK():
			delivery.Delivered++
		case ticket.PermanentFailure():
			dead = append(dead, messages[i].To)
		default:
			log.WithFields(log.Fields{
				"user":  recipient.ID,
				"error": ticket.Details.Error,
			}).Warn("push: transient delivery failure")
		}
	}

	if len(dead) > 0 {
		delivery.Pruned = len(dead)
		d.pruneDeadTokens(ctx, recipient, dead)
	}
	return delivery, nil
}

// pruneDeadTokens removes permanently invalid addresses from both the
// primary slot and the collection slot. This step must never fail the
// dispatch: errors are logged, not returned.
func (d *Dispatcher) pruneDeadTokens(ctx context.Context, recipient *models.User, dead []string) {
	deadSet := make(map[string]struct{}, len(dead))
	for _, addr := range dead {
		deadSet[addr] = struct{}{}
	}

	updates := map[string]any{}
	if _, gone := deadSet[recipient.PushToken]; gone && recipient.PushToken != "" {
		updates["push_token"] = ""
	}
	kept := make(datatypes.JSONSlice[string], 0, len(recipient.PushTokens))
	pruned := false
	for _, addr := range recipient.PushTokens {
		if _, gone := deadSet[addr]; gone {
			pruned = true
			continue
		}
		kept = append(kept, addr)
	}
	if pruned {
		updates["push_tokens"] = kept
	}
	if len(updates) == 0 {
		return
	}

	if errUpdate := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", recipient.ID).
		Updates(updates).Error; errUpdate != nil {
		log.WithError(errUpdate).WithField("user", recipient.ID).Warn("push: prune dead tokens failed")
	}
}
