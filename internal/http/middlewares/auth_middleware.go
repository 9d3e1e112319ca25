package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JeanCalmon10/madr/internal/actorctx"
	"github.com/JeanCalmon10/madr/internal/auth"
	"github.com/JeanCalmon10/madr/internal/domain/user"
	"github.com/JeanCalmon10/madr/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (user.User, error)
}

type AuthMiddleware struct {
	resolver IdentityResolver
	prom     *observability.Prom
}

func NewAuthMiddleware(resolver IdentityResolver, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, prom: prom}
}

func (m *AuthMiddleware) countFailure(reason string) {
	if m.prom != nil {
		m.prom.AuthFailuresTotal.WithLabelValues(reason).Inc()
	}
}

func abortUnauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}

// RequireAuth extracts the bearer token, resolves it to a live user record
// and stashes that record on the context for the handler. Every failure
// presents identically to the caller (401 + bearer challenge); the reason is
// only distinguished in metrics.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.countFailure("invalid_token")
			abortUnauthorized(c, "Not authenticated")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			m.countFailure("invalid_token")
			abortUnauthorized(c, "Not authenticated")
			return
		}

		u, err := m.resolver.Resolve(c.Request.Context(), raw)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUnknownUser):
				m.countFailure("unknown_user")
				abortUnauthorized(c, "User not found")
			case errors.Is(err, auth.ErrInvalidToken):
				m.countFailure("invalid_token")
				abortUnauthorized(c, "Invalid authentication credentials")
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Could not authenticate request"})
			}
			return
		}

		c.Set(ctxCurrentUser, u)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), u.ID))

		c.Next()
	}
}

// CurrentUser reads back the identity RequireAuth resolved for this request.
func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxCurrentUser)
	if !ok {
		return user.User{}, false
	}

	u, ok := v.(user.User)
	return u, ok
}
