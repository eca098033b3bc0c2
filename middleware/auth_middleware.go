package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medportal/medportalbackend/models"
	"github.com/rs/zerolog"
)

// Context keys set by LoadSession.
const (
	UserIDKey = "userID"
	RoleKey   = "role"
)

type SessionResolver interface {
	CurrentSession(ctx context.Context, token string) (models.Session, bool, error)
}

// LoadSession resolves the session cookie, if any, and stores the account id
// and role on the context. Requests without a valid session pass through
// untouched; use RequireSession or RequireRole to reject them.
func LoadSession(sessions SessionResolver, cookieName string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		sess, ok, err := sessions.CurrentSession(c.Request.Context(), token)
		if err != nil {
			log.Warn().Err(err).Msg("session lookup failed")
		}
		if ok {
			c.Set(UserIDKey, sess.AccountID)
			c.Set(RoleKey, sess.Role)
		}
		c.Next()
	}
}

// CurrentAccount returns the account id and role LoadSession stored.
func CurrentAccount(c *gin.Context) (string, models.Role, bool) {
	id := c.GetString(UserIDKey)
	role, _ := c.Get(RoleKey)
	r, _ := role.(models.Role)
	return id, r, id != ""
}

func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := CurrentAccount(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
			return
		}
		c.Next()
	}
}

func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, r, ok := CurrentAccount(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
			return
		}
		if r != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}
