package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/regcheck/internal/api"
	"github.com/jonesrussell/regcheck/internal/domain"
	"github.com/jonesrussell/regcheck/internal/logger"
	"github.com/jonesrussell/regcheck/internal/metrics"
	"github.com/jonesrussell/regcheck/internal/worker"
)

// newTestRouter wires the full route table the way the server does.
func newTestRouter(vehicles *mockVehicleRepo, history *mockHistoryRepo, pinger *mockPinger) *gin.Engine {
	log := logger.NewNoOp()

	met := metrics.NewMetrics()
	met.RecordSuccess(domain.SourceCache, 5*time.Millisecond)

	return api.SetupRouter(log, api.Handlers{
		Lookup:   api.NewLookupHandler(&mockLookupService{}, testCacheTTL, log),
		Vehicles: api.NewVehiclesHandler(vehicles, log),
		History:  api.NewHistoryHandler(history, log),
		Stats:    api.NewStatsHandler(met, &mockPool{stats: worker.PoolStats{PoolSize: 2}}, vehicles, history, log),
		Export:   api.NewExportHandler(vehicles, log),
		Health:   api.NewHealthHandler(pinger),
	})
}

func defaultMocks() (*mockVehicleRepo, *mockHistoryRepo, *mockPinger) {
	vehicles := &mockVehicleRepo{
		listFunc: func(ctx context.Context, limit int) ([]*domain.VehicleRecord, error) {
			return nil, nil
		},
		countFunc: func(ctx context.Context) (int, error) {
			return 12, nil
		},
	}
	history := &mockHistoryRepo{
		listRecentFunc: func(ctx context.Context, limit int) ([]*domain.SearchHistoryEntry, error) {
			return []*domain.SearchHistoryEntry{
				{
					ID:           "e1",
					Registration: "AB12CDE",
					SearchedAt:   time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
					Success:      true,
					Source:       domain.SourceCache,
					DurationMs:   4,
				},
			}, nil
		},
		countFunc: func(ctx context.Context) (int, error) {
			return 40, nil
		},
	}
	return vehicles, history, &mockPinger{}
}

func TestRouter_History(t *testing.T) {
	t.Helper()

	vehicles, history, pinger := defaultMocks()
	var requestedLimit int
	history.listRecentFunc = func(ctx context.Context, limit int) ([]*domain.SearchHistoryEntry, error) {
		requestedLimit = limit
		return []*domain.SearchHistoryEntry{{ID: "e1", Registration: "AB12CDE", Success: true}}, nil
	}
	router := newTestRouter(vehicles, history, pinger)

	w := getPath(router, "/api/v1/history")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if requestedLimit != 50 {
		t.Errorf("expected default history limit 50, got %d", requestedLimit)
	}

	var body api.HistoryListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Count != 1 || len(body.History) != 1 {
		t.Fatalf("expected one history entry, got count=%d len=%d", body.Count, len(body.History))
	}
	if body.History[0].Registration != "AB12CDE" {
		t.Errorf("expected entry for AB12CDE, got %s", body.History[0].Registration)
	}
}

func TestRouter_Stats(t *testing.T) {
	t.Helper()

	router := newTestRouter(defaultMocks())

	w := getPath(router, "/api/v1/stats")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Lookups struct {
			TotalLookups int64 `json:"total_lookups"`
			CacheHits    int64 `json:"cache_hits"`
		} `json:"lookups"`
		Pool struct {
			PoolSize int `json:"pool_size"`
		} `json:"pool"`
		Store struct {
			CachedVehicles int `json:"cached_vehicles"`
			HistoryEntries int `json:"history_entries"`
		} `json:"store"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Lookups.TotalLookups != 1 || body.Lookups.CacheHits != 1 {
		t.Errorf("expected recorded lookup in metrics, got %+v", body.Lookups)
	}
	if body.Pool.PoolSize != 2 {
		t.Errorf("expected pool size 2, got %d", body.Pool.PoolSize)
	}
	if body.Store.CachedVehicles != 12 || body.Store.HistoryEntries != 40 {
		t.Errorf("expected store counts 12/40, got %+v", body.Store)
	}
}

func TestRouter_Health(t *testing.T) {
	t.Helper()

	vehicles, history, pinger := defaultMocks()
	router := newTestRouter(vehicles, history, pinger)

	w := getPath(router, "/health")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body["status"] != "ok" || body["database"] != "ok" {
		t.Errorf("expected healthy status, got %v", body)
	}
}

func TestRouter_Health_DatabaseDown(t *testing.T) {
	t.Helper()

	vehicles, history, _ := defaultMocks()
	router := newTestRouter(vehicles, history, &mockPinger{pingErr: errors.New("connection refused")})

	w := getPath(router, "/health")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 when the database is down, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body["status"] != "degraded" {
		t.Errorf("expected degraded status, got %v", body)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Helper()

	router := newTestRouter(defaultMocks())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/lookup", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204 for preflight, got %d", w.Code)
	}
	if origin := w.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected wildcard allow origin, got %q", origin)
	}
}
