// Package server exposes the boardmates directory over HTTP.
//
// Routing and middleware are built on gin. Handlers translate between
// the wire models in pkg/models and the domain types in internal/users
// and internal/organizations. Repositories report absence as a nil
// result, so translating absence into 404 responses happens here and
// nowhere below.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/boardmates/boardmates/internal/auth"
	"github.com/boardmates/boardmates/internal/observability"
	"github.com/boardmates/boardmates/internal/storage"
	"github.com/boardmates/boardmates/pkg/api"
)

// Config carries server-level settings.
type Config struct {
	// Version is reported by the health endpoint.
	Version string

	// Debug switches gin into debug mode and enables verbose logging.
	Debug bool
}

// Server routes HTTP requests to the repositories. It implements
// http.Handler so callers own the http.Server lifecycle.
type Server struct {
	cfg    Config
	users  storage.UserRepository
	orgs   storage.OrganizationRepository
	authn  auth.Authenticator
	authz  *auth.AuthorizationService
	issuer *auth.TokenIssuer
	audit  observability.AuditLogger
	logger *zap.Logger
	engine *gin.Engine
}

// New creates a server. The repositories and authenticator are
// mandatory. A nil issuer disables password login, a nil audit logger
// falls back to the no-op logger, and a nil authorization service
// falls back to the default role policy.
func New(
	users storage.UserRepository,
	orgs storage.OrganizationRepository,
	authn auth.Authenticator,
	authz *auth.AuthorizationService,
	issuer *auth.TokenIssuer,
	audit observability.AuditLogger,
	logger *zap.Logger,
	cfg Config,
) (*Server, error) {
	if users == nil {
		return nil, fmt.Errorf("server: user repository is required")
	}
	if orgs == nil {
		return nil, fmt.Errorf("server: organization repository is required")
	}
	if authn == nil {
		return nil, fmt.Errorf("server: authenticator is required")
	}
	if authz == nil {
		authz = auth.DefaultAuthorizationService()
	}
	if audit == nil {
		audit = observability.NewNoopLogger()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Version == "" {
		cfg.Version = api.Version
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:    cfg,
		users:  users,
		orgs:   orgs,
		authn:  authn,
		authz:  authz,
		issuer: issuer,
		audit:  audit,
		logger: logger,
	}
	s.engine = s.buildRouter()
	return s, nil
}

// ServeHTTP dispatches to the gin engine.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())

	r.GET(api.EndpointHealth, s.handleHealth)
	r.GET(api.EndpointReady, s.handleReady)
	r.POST(api.EndpointLogin, s.auditTrail(), s.handleLogin)

	v1 := r.Group("/api/v1", s.auditTrail(), s.authenticate())

	v1.GET("/me", s.handleMe)

	usersGroup := v1.Group("/users")
	usersGroup.POST("", s.require(auth.ActionUserWrite), s.handleCreateUser)
	usersGroup.GET("", s.require(auth.ActionUserRead), s.handleListUsers)
	usersGroup.GET("/:id", s.require(auth.ActionUserRead), s.handleGetUser)
	usersGroup.PATCH("/:id", s.require(auth.ActionUserWrite), s.handleUpdateUser)
	usersGroup.DELETE("/:id", s.require(auth.ActionUserDelete), s.handleDeleteUser)
	usersGroup.GET("/:id/memberships", s.require(auth.ActionOrgRead), s.handleListMemberships)

	orgsGroup := v1.Group("/organizations")
	orgsGroup.POST("", s.require(auth.ActionOrgWrite), s.handleCreateOrganization)
	orgsGroup.GET("", s.require(auth.ActionOrgRead), s.handleListOrganizations)
	orgsGroup.GET("/:id", s.require(auth.ActionOrgRead), s.handleGetOrganization)
	orgsGroup.DELETE("/:id", s.require(auth.ActionOrgWrite), s.handleDeleteOrganization)
	orgsGroup.GET("/:id/members", s.require(auth.ActionOrgRead), s.handleListMembers)
	orgsGroup.POST("/:id/members", s.require(auth.ActionMemberWrite), s.handleAddMember)
	orgsGroup.PATCH("/:id/members/:userID", s.require(auth.ActionMemberWrite), s.handleUpdateMemberRole)
	orgsGroup.DELETE("/:id/members/:userID", s.require(auth.ActionMemberWrite), s.handleRemoveMember)

	v1.GET("/audit/summary", s.require(auth.ActionAuditRead), s.handleAuditSummary)

	return r
}
