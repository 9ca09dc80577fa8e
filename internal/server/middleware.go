package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boardmates/boardmates/internal/auth"
	"github.com/boardmates/boardmates/internal/errors"
	"github.com/boardmates/boardmates/internal/observability"
	"github.com/boardmates/boardmates/pkg/api"
)

// Keys used on the gin context. Handlers set audit keys so the trail
// middleware can attribute the request after the chain completes.
const (
	ctxKeyRequestID = "request_id"
	ctxKeyIdentity  = "identity"
	ctxKeyAction    = "audit_action"
	ctxKeySubject   = "audit_subject"
)

// requestID assigns each request a unique ID, honoring one supplied by
// the caller, and echoes it in the response headers.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(api.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Writer.Header().Set(api.HeaderRequestID, id)
		c.Next()
	}
}

// accessLog emits one structured line per request.
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", c.GetString(ctxKeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if identity := identityFrom(c); identity != nil {
			fields = append(fields, zap.String("actor", identity.Email))
		}
		if last := c.Errors.Last(); last != nil {
			fields = append(fields, zap.String("error", last.Error()))
		}

		if c.Writer.Status() >= 500 {
			s.logger.Error("request", fields...)
		} else {
			s.logger.Info("request", fields...)
		}
	}
}

// auditTrail records one audit entry per guarded request. It runs
// before authentication so rejected credentials are recorded too.
func (s *Server) auditTrail() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		actor := "anonymous"
		role := ""
		if identity := identityFrom(c); identity != nil {
			actor = identity.Email
			role = identity.Role.String()
		}

		action := c.GetString(ctxKeyAction)
		if action == "" {
			action = strings.ToLower(c.Request.Method) + " " + c.FullPath()
		}
		subject := c.GetString(ctxKeySubject)
		if subject == "" {
			subject = c.Param("id")
			if userID := c.Param("userID"); userID != "" {
				subject += "/" + userID
			}
		}

		status := c.Writer.Status()
		decision := "allowed"
		if status == 401 || status == 403 {
			decision = "denied"
		}
		outcome := "success"
		errMsg := ""
		if status >= 400 {
			outcome = "error"
			if last := c.Errors.Last(); last != nil {
				errMsg = last.Error()
			} else {
				errMsg = "request failed"
			}
		}

		entry := observability.AuditEntry{
			RequestID: c.GetString(ctxKeyRequestID),
			Actor:     actor,
			Role:      role,
			Action:    action,
			Subject:   subject,
			Decision:  decision,
			Duration:  time.Since(start),
			Outcome:   outcome,
			Error:     errMsg,
		}
		if err := s.audit.LogEvent(c.Request.Context(), entry); err != nil {
			s.logger.Warn("audit log failed", zap.Error(err))
		}
	}
}

// authenticate requires a valid bearer token and attaches the resolved
// identity to both the gin context and the request context.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(api.HeaderAuthorization)
		if header == "" {
			s.respondError(c, errors.NewAuthFailed("missing bearer token"))
			return
		}
		token := strings.TrimPrefix(header, api.BearerPrefix)
		if token == header {
			s.respondError(c, errors.NewAuthFailed("authorization header must use the Bearer scheme"))
			return
		}

		identity, err := s.authn.ValidateToken(c.Request.Context(), token)
		if err != nil {
			s.respondError(c, err)
			return
		}

		c.Set(ctxKeyIdentity, identity)
		c.Request = c.Request.WithContext(auth.ContextWithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// require gates a route on an authorization action and records the
// action for the audit trail.
func (s *Server) require(action auth.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxKeyAction, string(action))
		if err := s.authz.Authorize(identityFrom(c), action); err != nil {
			s.respondError(c, err)
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) *auth.Identity {
	v, ok := c.Get(ctxKeyIdentity)
	if !ok {
		return nil
	}
	identity, ok := v.(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}
