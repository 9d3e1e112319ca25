package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/JeanCalmon10/madr/internal/auth"
	"github.com/JeanCalmon10/madr/internal/config"
	"github.com/JeanCalmon10/madr/internal/domain/user"
	"github.com/JeanCalmon10/madr/internal/http/middlewares"
	"github.com/JeanCalmon10/madr/internal/observability"
	"github.com/JeanCalmon10/madr/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type AuthHandler struct {
	users UserReader
	jwt   *auth.Manager
	prom  *observability.Prom
}

func NewAuthHandler(users UserReader, jwtManager *auth.Manager, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwtManager,
		prom:  prom,
	}
}

// OAuth2 password flow shape: the form field is called "username" but it
// carries the account email.
type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func (h *AuthHandler) countFailure(reason string) {
	if h.prom != nil {
		h.prom.AuthFailuresTotal.WithLabelValues(reason).Inc()
	}
}

func (h *AuthHandler) countIssued(flow string) {
	if h.prom != nil {
		h.prom.TokensIssuedTotal.WithLabelValues(flow).Inc()
	}
}

// Login verifies form credentials and issues a fresh access token. A missing
// account and a wrong password answer identically so the endpoint cannot be
// used to probe which emails are registered.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var form LoginForm

	if err := ctx.ShouldBind(&form); err != nil {
		RespondBadRequest(ctx, "username and password are required", nil)
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, form.Username)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			RespondInternal(ctx, "Could not authenticate")
			return
		}

		h.countFailure("invalid_credentials")
		RespondUnauthorized(ctx, "Invalid email or password")
		return
	}

	if !security.CheckPassword(foundUser.PasswordHash, form.Password) {
		h.countFailure("invalid_credentials")
		RespondUnauthorized(ctx, "Invalid email or password")
		return
	}

	token, err := h.jwt.GenerateAccessToken(foundUser.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.countIssued("login")

	ctx.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// Refresh hands the caller a new token bound to the same subject. The old
// token stays valid until its natural expiry; there is no revocation list.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	current, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Not authenticated")
		return
	}

	token, err := h.jwt.GenerateAccessToken(current.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.countIssued("refresh")

	ctx.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}
