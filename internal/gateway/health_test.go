package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRoot_Liveness(t *testing.T) {
	t.Parallel()

	tg := newTestGateway(t, nil)
	rr := tg.get("/", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Body.String() != LivenessMessage {
		t.Errorf("body = %q, want %q", rr.Body.String(), LivenessMessage)
	}
}

func TestRoot_Head(t *testing.T) {
	t.Parallel()

	tg := newTestGateway(t, nil)
	req := httptest.NewRequest(http.MethodHead, "/", nil)
	rr := httptest.NewRecorder()
	tg.gw.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("HEAD / status = %d, want 200", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tg := newTestGateway(t, nil)
	rr := tg.get("/health", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.UptimeSeconds < 0 {
		t.Errorf("UptimeSeconds = %d", resp.UptimeSeconds)
	}
}
