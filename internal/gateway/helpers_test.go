package gateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/flemzord/doorman/internal/metrics"
	"github.com/flemzord/doorman/internal/router/routertest"
	"github.com/flemzord/doorman/modules/channel/telegram"
)

const testSecret = "hook-secret_1"

type testGateway struct {
	gw         *Gateway
	dispatcher *routertest.MockDispatcher
	registry   *prometheus.Registry
}

func newTestGateway(t *testing.T, mutate func(*Params)) testGateway {
	t.Helper()

	reg := prometheus.NewRegistry()
	d := &routertest.MockDispatcher{}
	p := Params{
		Receiver:   telegram.NewWebhookReceiver(""),
		Dispatcher: d,
		Metrics:    metrics.New(reg),
		Gatherer:   reg,
		Logger:     slog.New(slog.DiscardHandler),
		Version:    "test",
	}
	if mutate != nil {
		mutate(&p)
	}

	gw, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return testGateway{gw: gw, dispatcher: d, registry: reg}
}

func (tg testGateway) post(path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rr := httptest.NewRecorder()
	tg.gw.Handler().ServeHTTP(rr, req)
	return rr
}

func (tg testGateway) get(path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rr := httptest.NewRecorder()
	tg.gw.Handler().ServeHTTP(rr, req)
	return rr
}

func assertOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if body := rr.Body.String(); body != "OK" {
		t.Errorf("body = %q, want %q", body, "OK")
	}
}

func assertWebhookMetric(t *testing.T, reg *prometheus.Registry, result string, value int) {
	t.Helper()
	expected := fmt.Sprintf(`
# HELP doorman_webhook_requests_total Webhook deliveries received, by result.
# TYPE doorman_webhook_requests_total counter
doorman_webhook_requests_total{result=%q} %d
`, result, value)
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "doorman_webhook_requests_total"); err != nil {
		t.Errorf("webhook metric: %v", err)
	}
}
