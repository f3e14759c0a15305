package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghuser/orderflow/pkg/httpx"
)

type stubChecker struct{ err error }

func (s *stubChecker) Ping(_ context.Context) error { return s.err }

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func probe(t *testing.T, checks httpx.HealthChecks) (int, healthBody) {
	t.Helper()
	rr := httptest.NewRecorder()
	httpx.HealthHandler(checks).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	var body healthBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rr.Code, body
}

func TestHealthHandler(t *testing.T) {
	down := errors.New("timeout")
	tests := []struct {
		name       string
		checks     httpx.HealthChecks
		wantStatus int
		wantBody   healthBody
	}{
		{
			name:       "all healthy",
			checks:     httpx.HealthChecks{"event_bus": &stubChecker{}},
			wantStatus: http.StatusOK,
			wantBody:   healthBody{Status: "ok", Checks: map[string]string{"event_bus": "ok"}},
		},
		{
			name:       "event bus down",
			checks:     httpx.HealthChecks{"event_bus": &stubChecker{err: down}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   healthBody{Status: "degraded", Checks: map[string]string{"event_bus": "unreachable"}},
		},
		{
			name: "one of two down",
			checks: httpx.HealthChecks{
				"event_bus": &stubChecker{},
				"sidecar":   &stubChecker{err: down},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   healthBody{Status: "degraded", Checks: map[string]string{"event_bus": "ok", "sidecar": "unreachable"}},
		},
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: http.StatusOK,
			wantBody:   healthBody{Status: "ok", Checks: map[string]string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := probe(t, tt.checks)
			if code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, code)
			}
			if body.Status != tt.wantBody.Status {
				t.Errorf("status: got %q, want %q", body.Status, tt.wantBody.Status)
			}
			if len(body.Checks) != len(tt.wantBody.Checks) {
				t.Fatalf("checks: got %v, want %v", body.Checks, tt.wantBody.Checks)
			}
			for k, v := range tt.wantBody.Checks {
				if body.Checks[k] != v {
					t.Errorf("check %s: got %q, want %q", k, body.Checks[k], v)
				}
			}
		})
	}
}

func TestHealthHandler_ContentType(t *testing.T) {
	h := httpx.HealthHandler(httpx.HealthChecks{"event_bus": &stubChecker{}})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	ct := rr.Header().Get("Content-Type")
	if ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json; charset=utf-8")
	}
}
