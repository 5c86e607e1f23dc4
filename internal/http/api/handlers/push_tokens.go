package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pairhabit/nudged/internal/models"
	"github.com/pairhabit/nudged/internal/push"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PushTokenHandler maintains the caller's push destination slots.
type PushTokenHandler struct {
	db *gorm.DB
}

// NewPushTokenHandler constructs a PushTokenHandler.
func NewPushTokenHandler(db *gorm.DB) *PushTokenHandler {
	return &PushTokenHandler{db: db}
}

// Register stores the device's current token as the primary slot and folds
// the previous primary into the collection slot, so older devices keep
// receiving nudges until the gateway declares their tokens dead.
func (h *PushTokenHandler) Register(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	token := strings.TrimSpace(req.Token)
	if !push.IsExpoToken(token) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid push token"})
		return
	}

	userID := c.GetString("userID")
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if user.PushToken == token {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	tokens := user.PushTokens
	if user.PushToken != "" && !contains(tokens, user.PushToken) {
		tokens = append(tokens, user.PushToken)
	}
	tokens = remove(tokens, token)

	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"push_token":  token,
			"push_tokens": tokens,
		}).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store push token failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func contains(tokens datatypes.JSONSlice[string], token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

func remove(tokens datatypes.JSONSlice[string], token string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(tokens))
	for _, t := range tokens {
		if t != token {
			out = append(out, t)
		}
	}
	return out
}
