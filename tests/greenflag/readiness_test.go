package greenflag

import (
	"net/http"
	"testing"

	"github.com/boardmates/boardmates/pkg/api"
	"github.com/boardmates/boardmates/pkg/models"
)

// TestReadiness_HealthAnswersWithoutAuthentication proves that the
// liveness probe needs no credentials and reports the build version.
//
// Green-Flag: Liveness is always observable.
func TestReadiness_HealthAnswersWithoutAuthentication(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", api.EndpointHealth, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health check failed: %d", rec.Code)
	}
	var health models.HealthStatus
	decodeInto(t, rec, &health)
	if health.Status != "ok" {
		t.Errorf("expected status ok, got %q", health.Status)
	}
	if health.Version != "test" {
		t.Errorf("expected version test, got %q", health.Version)
	}
}

// TestReadiness_ReadyWhenStoreIsReachable proves that readiness
// actually checks the backing store.
//
// Green-Flag: A reachable store means ready.
func TestReadiness_ReadyWhenStoreIsReachable(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", api.EndpointReady, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("readiness check failed: %d", rec.Code)
	}
	var ready models.ReadyStatus
	decodeInto(t, rec, &ready)
	if ready.Status != "ready" || ready.Database != "up" {
		t.Errorf("expected ready/up, got %+v", ready)
	}
	if !env.store.ConnectivityCheckCalled() {
		t.Error("readiness must actually probe the store")
	}
}

// TestReadiness_RecoversAfterOutage proves the load-balancer contract:
// an unreachable store takes the server out of rotation on the
// readiness probe, liveness stays green throughout, and readiness
// returns once the store is back.
//
// Green-Flag: Readiness follows the store, liveness does not.
func TestReadiness_RecoversAfterOutage(t *testing.T) {
	env := newTestEnv(t)
	env.store.SetConnectivityFailure(true)

	rec := env.do(t, "GET", api.EndpointReady, "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while the store is down, got %d", rec.Code)
	}
	var ready models.ReadyStatus
	decodeInto(t, rec, &ready)
	if ready.Status != "unavailable" || ready.Database != "down" {
		t.Errorf("expected unavailable/down, got %+v", ready)
	}

	// The process itself is still alive.
	rec = env.do(t, "GET", api.EndpointHealth, "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("liveness must stay green during a store outage, got %d", rec.Code)
	}

	env.store.SetConnectivityFailure(false)
	rec = env.do(t, "GET", api.EndpointReady, "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("readiness must recover with the store, got %d", rec.Code)
	}
}
