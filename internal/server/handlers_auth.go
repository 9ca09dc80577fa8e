package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boardmates/boardmates/internal/auth"
	"github.com/boardmates/boardmates/internal/errors"
	"github.com/boardmates/boardmates/internal/users"
	"github.com/boardmates/boardmates/pkg/api"
	"github.com/boardmates/boardmates/pkg/models"
)

// handleLogin exchanges an email and password for a signed token.
// Suspended and pending accounts cannot sign in even with a correct
// password.
func (s *Server) handleLogin(c *gin.Context) {
	c.Set(ctxKeyAction, "auth.login")

	if s.issuer == nil {
		s.respondError(c, errors.NewServerUnavailable(api.EndpointLogin, "password login is not configured"))
		return
	}

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewInvalidUser("body", "malformed JSON request"))
		return
	}

	email := users.NormalizeEmail(req.Email)
	c.Set(ctxKeySubject, email)
	if email == "" || req.Password == "" {
		s.respondError(c, errors.NewAuthFailed("email and password are required"))
		return
	}

	u, err := s.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if u == nil || !auth.CheckPassword(req.Password, u.PasswordHash) {
		s.respondError(c, errors.NewAuthFailed("unknown email or wrong password"))
		return
	}
	if !u.CanSignIn() {
		s.respondError(c, errors.NewAuthFailed("account is "+u.Status.String()))
		return
	}

	token, expiresAt, err := s.issuer.Issue(u)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      userInfo(u),
	})
}

// handleMe reports the caller's own authentication status.
func (s *Server) handleMe(c *gin.Context) {
	c.Set(ctxKeyAction, "auth.status")

	// The authenticate middleware guarantees an identity here.
	identity := identityFrom(c)
	c.JSON(http.StatusOK, models.AuthStatus{
		Authenticated: true,
		UserID:        identity.UserID,
		Email:         identity.Email,
		Name:          identity.Name,
		Role:          identity.Role.String(),
		ExpiresAt:     identity.ExpiresAt,
	})
}
