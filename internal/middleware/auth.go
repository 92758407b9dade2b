package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pemiyos/internal/logger"
	"pemiyos/internal/models"
	"pemiyos/internal/services"
)

const (
	CheckUserKey = "user"
	ClaimsKey    = "claims"
)

// AuthRequired ensures the request carries a valid bearer token for a live,
// active user.
func AuthRequired(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		claims, err := auth.VerifyToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			abort(c, err)
			return
		}

		user, err := auth.UserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(CheckUserKey, user)
		c.Set(ClaimsKey, claims)
		c.Set(logger.UserIDKey, user.ID)
		c.Next()
	}
}

// AdminRequired lets only admin users through. It must run after
// AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": services.ErrForbidden.Message})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentClaims returns the verified token claims, or nil.
func CurrentClaims(c *gin.Context) *services.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*services.Claims); ok {
			return claims
		}
	}
	return nil
}

func abort(c *gin.Context, err error) {
	status := http.StatusUnauthorized
	if services.KindOf(err) == services.KindInternal {
		status = http.StatusInternalServerError
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
