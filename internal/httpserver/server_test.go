package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/jobwatch/internal/commands"
	"github.com/MrSnakeDoc/jobwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobwatch/internal/ledger"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
	"github.com/MrSnakeDoc/jobwatch/internal/metrics"
	"github.com/MrSnakeDoc/jobwatch/internal/scheduler"
)

type fakeScheduler struct {
	pending chan struct{}
	status  scheduler.Status
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		pending: make(chan struct{}, 1),
		status:  scheduler.Status{Phase: scheduler.PhaseSleeping, Cycle: 3, LedgerSize: 12},
	}
}

func (f *fakeScheduler) Trigger() bool {
	select {
	case f.pending <- struct{}{}:
		return true
	default:
		return false
	}
}

func (f *fakeScheduler) Status() scheduler.Status { return f.status }

func testDeps(store ledger.Store) deps.Deps {
	log := logger.NewNop()
	return deps.Deps{
		Logger:    log,
		StartTime: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		TimeNow:   func() time.Time { return time.Date(2025, 6, 1, 9, 1, 0, 0, time.UTC) },
		Version:   "v1.2.3",
		Scheduler: newFakeScheduler(),
		Blacklist: commands.NewBlacklist(store, log),
		Metrics:   metrics.New(),
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := NewRouter(logger.NewNop(), testDeps(ledger.NewMemoryStore(ledger.Empty())))

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "v1.2.3", body["version"])
	assert.InDelta(t, 60, body["uptime_seconds"], 0.001)
}

func TestReadyz(t *testing.T) {
	d := testDeps(ledger.NewMemoryStore(ledger.Empty()))
	ready := false
	d.Ready = func() bool { return ready }
	h := NewRouter(logger.NewNop(), d)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/readyz", "").Code)

	ready = true
	rec := do(t, h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phase":"sleeping"`)
}

func TestStatus(t *testing.T) {
	h := NewRouter(logger.NewNop(), testDeps(ledger.NewMemoryStore(ledger.Empty())))

	rec := do(t, h, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var st scheduler.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 3, st.Cycle)
	assert.Equal(t, 12, st.LedgerSize)
}

func TestTriggerCycle(t *testing.T) {
	h := NewRouter(logger.NewNop(), testDeps(ledger.NewMemoryStore(ledger.Empty())))

	assert.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/api/cycle", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodPost, "/api/cycle", "").Code)
}

func TestBlacklistEndpoints(t *testing.T) {
	store := ledger.NewMemoryStore(ledger.Empty())
	h := NewRouter(logger.NewNop(), testDeps(store))

	rec := do(t, h, http.MethodPost, "/api/blacklist", `{"companies": ["Acme", "Globex"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Added Acme, Globex to the blacklist!")

	rec = do(t, h, http.MethodDelete, "/api/blacklist", `{"companies": ["Acme", "Initech"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Companies []string `json:"companies"`
		Changed   []string `json:"changed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Acme"}, resp.Changed)
	assert.Equal(t, []string{"Globex"}, resp.Companies)

	rec = do(t, h, http.MethodGet, "/api/blacklist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"companies": ["Globex"]}`, rec.Body.String())

	st, err := store.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"Globex"}, st.Blacklist)
}

func TestBlacklistRejectsBadBodies(t *testing.T) {
	h := NewRouter(logger.NewNop(), testDeps(ledger.NewMemoryStore(ledger.Empty())))

	tests := []struct {
		name string
		body string
	}{
		{"not json", "Acme"},
		{"unknown field", `{"company": "Acme"}`},
		{"empty list", `{"companies": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/blacklist", tt.body).Code)
		})
	}
}

func TestWritesAreRateLimited(t *testing.T) {
	h := NewRouter(logger.NewNop(), testDeps(ledger.NewMemoryStore(ledger.Empty())))

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/blacklist", `{"companies": ["Acme"]}`).Code)
	}
	rec := do(t, h, http.MethodPost, "/api/blacklist", `{"companies": ["Acme"]}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestAdminRoutesHonourCIDRs(t *testing.T) {
	d := testDeps(ledger.NewMemoryStore(ledger.Empty()))
	d.AllowedCIDRS = []string{"10.0.0.0/8"}
	h := NewRouter(logger.NewNop(), d)

	// httptest requests come from 192.0.2.1.
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, "/api/status", "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code)
}

func TestMetrics(t *testing.T) {
	h := NewRouter(logger.NewNop(), testDeps(ledger.NewMemoryStore(ledger.Empty())))

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jobwatch_ledger_entries")
}

func TestAPIEnforcesHost(t *testing.T) {
	d := testDeps(ledger.NewMemoryStore(ledger.Empty()))
	d.AllowedHosts = []string{"*.internal.example"}
	h := NewRouter(logger.NewNop(), d)

	// httptest requests carry Host: example.com.
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, "/api/status", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Host = "jobwatch.internal.example"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
