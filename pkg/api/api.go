// Package api defines the public API endpoints and headers for the boardmates server.
package api

// API version
const Version = "0.1.0"

// API endpoints
const (
	EndpointLogin         = "/api/v1/auth/login"
	EndpointMe            = "/api/v1/me"
	EndpointUsers         = "/api/v1/users"
	EndpointOrganizations = "/api/v1/organizations"
	EndpointAuditSummary  = "/api/v1/audit/summary"
	EndpointHealth        = "/healthz"
	EndpointReady         = "/readyz"
)

// HTTP headers
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
)

// BearerPrefix is the scheme expected in the Authorization header.
const BearerPrefix = "Bearer "

// Content types
const (
	ContentTypeJSON = "application/json"
)
