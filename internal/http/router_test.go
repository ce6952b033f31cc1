package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/transit-complaints/backend/internal/config"
	"github.com/transit-complaints/backend/internal/metrics"
	"github.com/transit-complaints/backend/internal/models"
	"github.com/transit-complaints/backend/internal/service"
	"github.com/transit-complaints/backend/internal/settings"
)

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

type stubComplaints struct{}

func (stubComplaints) Create(ctx context.Context, in service.CreateInput, by string) (models.Complaint, error) {
	return models.Complaint{ID: "c1"}, nil
}
func (stubComplaints) Reprioritize(ctx context.Context, id string) (models.Complaint, error) {
	return models.Complaint{ID: id}, nil
}
func (stubComplaints) UpdateStatus(ctx context.Context, id, status, actor string) (models.Complaint, error) {
	return models.Complaint{ID: id, Status: status}, nil
}
func (stubComplaints) Get(ctx context.Context, id string) (models.Complaint, error) {
	return models.Complaint{ID: id}, nil
}
func (stubComplaints) List(ctx context.Context, f models.ComplaintFilter) ([]models.Complaint, error) {
	return nil, nil
}

func newRouter(gate *settings.Gate) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{AdminKey: "secret", CORSAllowed: "*"}
	return Router(cfg, okPinger{}, stubComplaints{}, gate, metrics.New().Handler(), zerolog.Nop())
}

func serve(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStaffRoutesRequireAdminKey(t *testing.T) {
	r := newRouter(settings.NewGate(settings.NewMemoryStore(), 0, zerolog.Nop()))

	w := serve(r, http.MethodPost, "/api/complaints/c1/prioritize", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}
	w = serve(r, http.MethodPost, "/api/complaints/c1/prioritize", "", map[string]string{"X-Admin-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", w.Code)
	}
}

func TestPublicRoutesOpen(t *testing.T) {
	r := newRouter(settings.NewGate(settings.NewMemoryStore(), 0, zerolog.Nop()))
	w := serve(r, http.MethodGet, "/api/complaints/c1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := newRouter(settings.NewGate(settings.NewMemoryStore(), 0, zerolog.Nop()))
	w := serve(r, http.MethodGet, "/healthz", "", map[string]string{"X-Request-Id": "abc"})
	if got := w.Header().Get("X-Request-Id"); got != "abc" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

func TestMaintenanceModeBlocksIntake(t *testing.T) {
	gate := settings.NewGate(settings.NewMemoryStore(), 0, zerolog.Nop())
	r := newRouter(gate)
	body := `{"title":"t","description":"d","category":"other"}`

	if w := serve(r, http.MethodPost, "/api/complaints", body, nil); w.Code != http.StatusCreated {
		t.Fatalf("expected 201 before maintenance, got %d", w.Code)
	}

	if err := gate.SetFlag(context.Background(), settings.MaintenanceMode, true, "ops"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	w := serve(r, http.MethodPost, "/api/complaints", body, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 in maintenance, got %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/complaints/c1", "", nil); w.Code != http.StatusOK {
		t.Fatalf("reads must stay available in maintenance, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newRouter(settings.NewGate(settings.NewMemoryStore(), 0, zerolog.Nop()))
	w := serve(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatalf("expected go collector output")
	}
}
