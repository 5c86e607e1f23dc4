package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pairhabit/nudged/internal/nudge"
	"github.com/pairhabit/nudged/internal/pairing"
	log "github.com/sirupsen/logrus"
)

// dispatchTimeout bounds one dispatch end to end; the endpoint sits on a
// user-facing request path.
const dispatchTimeout = 5 * time.Second

// NudgeHandler serves the nudge dispatch endpoint.
type NudgeHandler struct {
	svc *nudge.Service
}

// NewNudgeHandler constructs a NudgeHandler.
func NewNudgeHandler(svc *nudge.Service) *NudgeHandler {
	return &NudgeHandler{svc: svc}
}

// Dispatch runs one nudge attempt for the authenticated caller. Skips are
// 200 responses with a reason; only auth, malformed input, and missing
// records map to failure statuses.
func (h *NudgeHandler) Dispatch(c *gin.Context) {
	var req nudge.Request
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), dispatchTimeout)
	defer cancel()

	outcome, errDispatch := h.svc.Dispatch(ctx, c.GetString("userID"), req)
	if errDispatch != nil {
		status, message := dispatchErrorStatus(errDispatch)
		if status == http.StatusInternalServerError {
			log.WithError(errDispatch).Error("nudge dispatch failed")
		}
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"sent":         outcome.Sent,
		"skipped":      outcome.Skipped,
		"reason":       outcome.Reason,
		"pairIdentity": outcome.PairKey,
		"dayKey":       outcome.DayKey,
	})
}

// dispatchErrorStatus maps terminal dispatch errors onto status codes.
func dispatchErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, nudge.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, nudge.ErrSelfNudge):
		return http.StatusForbidden, "cannot nudge yourself"
	case errors.Is(err, pairing.ErrPartnerMismatch):
		return http.StatusForbidden, "partner id mismatch"
	case errors.Is(err, pairing.ErrBadAddress):
		return http.StatusBadRequest, "missing challenge address"
	case errors.Is(err, pairing.ErrNoDuoItem):
		return http.StatusNotFound, "duo item not found"
	case errors.Is(err, pairing.ErrMissingPartner):
		return http.StatusNotFound, "duo item has no partner"
	case errors.Is(err, nudge.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	default:
		return http.StatusInternalServerError, "dispatch failed"
	}
}
