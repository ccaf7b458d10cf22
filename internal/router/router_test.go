package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kiwari-pos/tiffin/internal/app"
	"github.com/kiwari-pos/tiffin/internal/config"
	"github.com/kiwari-pos/tiffin/internal/kvstore"
	"github.com/kiwari-pos/tiffin/internal/metrics"
	"github.com/kiwari-pos/tiffin/internal/money"
	"github.com/kiwari-pos/tiffin/internal/router"
	"github.com/kiwari-pos/tiffin/internal/service"
	"github.com/kiwari-pos/tiffin/internal/session"
	"github.com/kiwari-pos/tiffin/internal/view"
	"github.com/kiwari-pos/tiffin/internal/ws"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := app.New(kvstore.NewMemory(), time.UTC, service.WithClearDelay(0))
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	f, err := money.NewFormatter("INR")
	if err != nil {
		t.Fatalf("NewFormatter: %v", err)
	}
	renderer, err := view.NewRenderer(f, time.UTC)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	cfg := &config.Config{AllowedOrigins: []string{"http://localhost:5173"}}
	return router.New(cfg, router.Deps{
		Services: svc,
		Hub:      ws.NewHub(),
		Metrics:  metrics.New(),
		Renderer: renderer,
		Sessions: session.NewRegistry(),
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	rr := serve(setupRouter(t), httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("got %v", body)
	}
}

func TestRoutesAreMounted(t *testing.T) {
	r := setupRouter(t)
	tests := []struct {
		path string
		want int
	}{
		{"/", http.StatusOK},
		{"/?view=admin", http.StatusOK},
		{"/api/menu", http.StatusOK},
		{"/api/cart", http.StatusOK},
		{"/api/sales", http.StatusOK},
		{"/api/sales/periods", http.StatusOK},
		{"/api/settings/payment-link", http.StatusOK},
		{"/api/bill", http.StatusBadRequest},
		{"/api/bill.pdf", http.StatusNotImplemented},
		{"/ws?view=kitchen", http.StatusBadRequest},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := serve(r, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestMetricsRecordsRequests(t *testing.T) {
	r := setupRouter(t)
	serve(r, httptest.NewRequest(http.MethodGet, "/api/menu", nil))

	rr := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "tiffin_http_request_duration_seconds") {
		t.Error("request histogram not exported")
	}
	if !strings.Contains(body, `route="/api/menu`) {
		t.Errorf("expected route label for /api/menu, got:\n%s", body)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := setupRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/menu", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rr := serve(r, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin: got %q", got)
	}
}

func TestRequestIDHeaderIsAccepted(t *testing.T) {
	r := setupRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	if rr := serve(r, req); rr.Code != http.StatusOK {
		t.Errorf("status: got %d", rr.Code)
	}
}
