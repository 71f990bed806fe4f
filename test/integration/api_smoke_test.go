package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/chloe472/Reely/internal/app/apiapp"
	"github.com/chloe472/Reely/internal/config"
)

func newTestApp(t *testing.T) *apiapp.App {
	t.Helper()

	cfg := config.Default()
	cfg.HTTP.Addr = ":0"
	cfg.Media.Dir = t.TempDir()

	app, err := apiapp.New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	return app
}

// The app boots without postgres, redis or s3 running; degraded mode
// still serves health.
func TestHealthDegradedMode(t *testing.T) {
	app := newTestApp(t)

	ts := httptest.NewServer(app.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}

	var payload struct {
		Status   string `json:"status"`
		Postgres bool   `json:"postgres"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "ok" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Postgres {
		t.Fatalf("postgres reported healthy without a database")
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	ts := httptest.NewServer(app.Handler())
	defer ts.Close()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/upload"},
		{http.MethodGet, "/history"},
		{http.MethodGet, "/folders/"},
	}

	for _, tt := range paths {
		req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", tt.method, tt.path, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", tt.method, tt.path, resp.StatusCode)
		}
	}
}
