package redflag

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/boardmates/boardmates/internal/auth"
	"github.com/boardmates/boardmates/internal/observability"
	"github.com/boardmates/boardmates/internal/server"
	"github.com/boardmates/boardmates/internal/storage"
	"github.com/boardmates/boardmates/internal/users"
	"github.com/boardmates/boardmates/pkg/api"
	"github.com/boardmates/boardmates/pkg/models"
)

const testSecret = "redflag-test-secret"

// testEnv bundles a server under test with its backing store, token
// issuer and audit logger so tests can drive HTTP requests end to end.
type testEnv struct {
	srv    *server.Server
	store  *storage.MockStore
	issuer *auth.TokenIssuer
	audit  *observability.JSONLogger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := storage.NewMockStore()
	authn, err := auth.NewJWTAuthenticator(testSecret)
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}
	issuer, err := auth.NewTokenIssuer(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to create token issuer: %v", err)
	}
	audit := observability.NewJSONLogger(io.Discard)

	srv, err := server.New(store, store.Organizations(), authn, nil, issuer, audit, zap.NewNop(), server.Config{Version: "test"})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	return &testEnv{srv: srv, store: store, issuer: issuer, audit: audit}
}

// token issues a session token for a synthetic approved user holding the
// given role.
func (e *testEnv) token(t *testing.T, role users.Role) string {
	t.Helper()

	tok, _, err := e.issuer.Issue(&users.User{
		ID:     "test-" + string(role),
		Email:  string(role) + "@example.com",
		Name:   "Test " + string(role),
		Role:   role,
		Status: users.StatusApproved,
	})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return tok
}

// do performs one request against the server. A string payload is sent
// verbatim; anything else is JSON-encoded. An empty token omits the
// Authorization header.
func (e *testEnv) do(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	switch p := payload.(type) {
	case nil:
	case string:
		body = strings.NewReader(p)
	default:
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set(api.HeaderContentType, api.ContentTypeJSON)
	if token != "" {
		req.Header.Set(api.HeaderAuthorization, api.BearerPrefix+token)
	}

	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

// decodeError decodes the wire error body of a failed request.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()

	var resp models.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

// decodeInto decodes a successful response body into out.
func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

// createUser registers a user through the API and fails the test if the
// server refuses.
func (e *testEnv) createUser(t *testing.T, token string, req models.CreateUserRequest) models.UserInfo {
	t.Helper()

	rec := e.do(t, "POST", api.EndpointUsers, token, req)
	if rec.Code != 201 {
		t.Fatalf("failed to create user %s: status %d, body %s", req.Email, rec.Code, rec.Body.String())
	}
	var u models.UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&u); err != nil {
		t.Fatalf("failed to decode user: %v", err)
	}
	return u
}
