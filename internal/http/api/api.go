package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pairhabit/nudged/internal/config"
	"github.com/pairhabit/nudged/internal/http/api/handlers"
	"github.com/pairhabit/nudged/internal/nudge"
	"github.com/pairhabit/nudged/internal/security"
	"gorm.io/gorm"
)

// contextKeyUserID is the gin context key the auth middleware sets.
const contextKeyUserID = "userID"

// RegisterRoutes registers routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, svc *nudge.Service) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	authed := r.Group("/v1")
	authed.Use(userAuthMiddleware(db, jwtCfg))

	nudgeHandler := handlers.NewNudgeHandler(svc)
	authed.POST("/nudges", nudgeHandler.Dispatch)

	tokenHandler := handlers.NewPushTokenHandler(db)
	authed.POST("/push-tokens", tokenHandler.Register)
}

// userAuthMiddleware validates user JWTs and loads the caller identity.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(contextKeyUserID, claims.UserID)
		c.Next()
	}
}
