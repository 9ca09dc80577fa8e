// Package cli provides the command-line interface for boardmates.
//
// The CLI is a client of the boardmates server: every command
// authenticates, issues HTTP requests and displays real responses.
// Nothing is simulated locally.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/boardmates/boardmates/internal/errors"
	"github.com/boardmates/boardmates/pkg/api"
	"github.com/boardmates/boardmates/pkg/models"
)

// Client is the HTTP client for the boardmates server.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewClient creates a new server client.
func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Endpoint returns the configured server endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Token returns the configured bearer token.
func (c *Client) Token() string {
	return c.token
}

// do issues one request and decodes the response into out (when out is
// non-nil). Any status other than wantStatus is turned into an error
// built from the server's structured error body.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}, wantStatus int) error {
	if c.endpoint == "" {
		return errors.NewServerUnavailable("", "no server endpoint configured")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(api.HeaderContentType, api.ContentTypeJSON)
	if c.token != "" {
		req.Header.Set(api.HeaderAuthorization, api.BearerPrefix+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewServerUnavailable(c.endpoint, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return c.parseErrorResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// apiError carries the server's HTTP status and numeric error code
// alongside the rendered message, so commands can map failures to exit
// codes and tell conflicts from genuine errors.
type apiError struct {
	status int
	code   errors.ErrorCode
	msg    string
}

func (e *apiError) Error() string {
	return e.msg
}

// IsNotFound reports whether an error is the server answering that a
// resource does not exist.
func IsNotFound(err error) bool {
	var apiErr *apiError
	return stderrors.As(err, &apiErr) && apiErr.status == http.StatusNotFound
}

// IsConflict reports whether an error is the server rejecting a
// duplicate resource.
func IsConflict(err error) bool {
	var apiErr *apiError
	return stderrors.As(err, &apiErr) && apiErr.status == http.StatusConflict
}

// parseErrorResponse parses a structured error response from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("server error: %d - %s", resp.StatusCode, string(body))
	}

	msg := errResp.Error
	if errResp.Reason != "" {
		msg += ": " + errResp.Reason
	}
	if errResp.Suggestion != "" {
		msg += "\nSuggestion: " + errResp.Suggestion
	}
	return &apiError{
		status: resp.StatusCode,
		code:   errors.ErrorCode(errResp.Code),
		msg:    msg,
	}
}

// Login exchanges credentials for a signed token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.do(ctx, http.MethodPost, api.EndpointLogin, models.LoginRequest{
		Email:    email,
		Password: password,
	}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me retrieves the caller's authentication status.
func (c *Client) Me(ctx context.Context) (*models.AuthStatus, error) {
	var out models.AuthStatus
	if err := c.do(ctx, http.MethodGet, api.EndpointMe, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateUser registers a new user.
func (c *Client) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.UserInfo, error) {
	var out models.UserInfo
	if err := c.do(ctx, http.MethodPost, api.EndpointUsers, req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers retrieves all users.
func (c *Client) ListUsers(ctx context.Context) ([]models.UserInfo, error) {
	var out []models.UserInfo
	if err := c.do(ctx, http.MethodGet, api.EndpointUsers, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUser retrieves a user by id.
func (c *Client) GetUser(ctx context.Context, id string) (*models.UserInfo, error) {
	var out models.UserInfo
	if err := c.do(ctx, http.MethodGet, api.EndpointUsers+"/"+id, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUserByEmail retrieves a user by email address.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*models.UserInfo, error) {
	var out models.UserInfo
	path := api.EndpointUsers + "?email=" + url.QueryEscape(email)
	if err := c.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser applies a partial update to a user.
func (c *Client) UpdateUser(ctx context.Context, id string, req models.UpdateUserRequest) (*models.UserInfo, error) {
	var out models.UserInfo
	if err := c.do(ctx, http.MethodPatch, api.EndpointUsers+"/"+id, req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser removes a user. Deleting an absent user succeeds.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, api.EndpointUsers+"/"+id, nil, nil, http.StatusNoContent)
}

// ListUserMemberships retrieves the organizations a user belongs to.
func (c *Client) ListUserMemberships(ctx context.Context, id string) ([]models.MembershipInfo, error) {
	var out []models.MembershipInfo
	if err := c.do(ctx, http.MethodGet, api.EndpointUsers+"/"+id+"/memberships", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateOrganization registers a new organization.
func (c *Client) CreateOrganization(ctx context.Context, req models.CreateOrganizationRequest) (*models.OrganizationInfo, error) {
	var out models.OrganizationInfo
	if err := c.do(ctx, http.MethodPost, api.EndpointOrganizations, req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOrganizations retrieves all organizations.
func (c *Client) ListOrganizations(ctx context.Context) ([]models.OrganizationInfo, error) {
	var out []models.OrganizationInfo
	if err := c.do(ctx, http.MethodGet, api.EndpointOrganizations, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrganization retrieves an organization by id.
func (c *Client) GetOrganization(ctx context.Context, id string) (*models.OrganizationInfo, error) {
	var out models.OrganizationInfo
	if err := c.do(ctx, http.MethodGet, api.EndpointOrganizations+"/"+id, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrganizationBySlug retrieves an organization by slug.
func (c *Client) GetOrganizationBySlug(ctx context.Context, slug string) (*models.OrganizationInfo, error) {
	var out models.OrganizationInfo
	path := api.EndpointOrganizations + "?slug=" + url.QueryEscape(slug)
	if err := c.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteOrganization removes an organization and its memberships.
func (c *Client) DeleteOrganization(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, api.EndpointOrganizations+"/"+id, nil, nil, http.StatusNoContent)
}

// ListMembers retrieves the users in an organization with their roles.
func (c *Client) ListMembers(ctx context.Context, orgID string) ([]models.MemberInfo, error) {
	var out []models.MemberInfo
	path := api.EndpointOrganizations + "/" + orgID + "/members"
	if err := c.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMember links a user to an organization.
func (c *Client) AddMember(ctx context.Context, orgID string, req models.AddMemberRequest) error {
	path := api.EndpointOrganizations + "/" + orgID + "/members"
	return c.do(ctx, http.MethodPost, path, req, nil, http.StatusCreated)
}

// UpdateMemberRole changes the role of an existing membership.
func (c *Client) UpdateMemberRole(ctx context.Context, orgID, userID, role string) error {
	path := api.EndpointOrganizations + "/" + orgID + "/members/" + userID
	return c.do(ctx, http.MethodPatch, path, models.UpdateMemberRequest{Role: role}, nil, http.StatusNoContent)
}

// RemoveMember unlinks a user from an organization. Removing an absent
// membership succeeds.
func (c *Client) RemoveMember(ctx context.Context, orgID, userID string) error {
	path := api.EndpointOrganizations + "/" + orgID + "/members/" + userID
	return c.do(ctx, http.MethodDelete, path, nil, nil, http.StatusNoContent)
}

// GetAuditSummary retrieves aggregated audit statistics.
func (c *Client) GetAuditSummary(ctx context.Context) (*models.AuditSummaryResponse, error) {
	var out models.AuditSummaryResponse
	if err := c.do(ctx, http.MethodGet, api.EndpointAuditSummary, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetHealthInfo retrieves server health and version.
func (c *Client) GetHealthInfo(ctx context.Context) (*models.HealthStatus, error) {
	var out models.HealthStatus
	if err := c.do(ctx, http.MethodGet, api.EndpointHealth, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckHealth verifies server connectivity.
func (c *Client) CheckHealth(ctx context.Context) (bool, error) {
	_, err := c.GetHealthInfo(ctx)
	if err != nil {
		return false, err
	}
	return true, nil
}

// CheckReady retrieves server readiness. Both the ready and the
// unavailable answer carry a status body, so a 503 is a result here,
// not an error.
func (c *Client) CheckReady(ctx context.Context) (*models.ReadyStatus, error) {
	if c.endpoint == "" {
		return nil, errors.NewServerUnavailable("", "no server endpoint configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+api.EndpointReady, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewServerUnavailable(c.endpoint, err.Error())
	}
	defer resp.Body.Close()

	var out models.ReadyStatus
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}
