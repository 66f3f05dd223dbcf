package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrSnakeDoc/jobwatch/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"admin.example.com", "*.internal.example"}, logger.NewNop())(okHandler)

	tests := []struct {
		host string
		want int
	}{
		{"admin.example.com", http.StatusNoContent},
		{"ADMIN.example.com:8080", http.StatusNoContent},
		{"jobs.internal.example", http.StatusNoContent},
		{"internal.example", http.StatusForbidden},
		{"evil-internal.example", http.StatusForbidden},
		{"example.com", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("host %q: status = %d, want %d", tt.host, rec.Code, tt.want)
			}
		})
	}
}

func TestEnforceHostEmptyIsPassthrough(t *testing.T) {
	h := EnforceHost(nil, logger.NewNop())(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestRateLimitPerClient(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 1})(okHandler)

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send("10.0.0.1:1000"); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}

	rec := send("10.0.0.1:1001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	// Another client has its own bucket.
	if rec := send("10.0.0.2:1000"); rec.Code != http.StatusNoContent {
		t.Errorf("other client: status = %d", rec.Code)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8"}, false, logger.NewNop())(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.1.1:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("allowed ip: status = %d", rec.Code)
	}

	req.RemoteAddr = "192.168.1.1:5000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("rejected ip: status = %d", rec.Code)
	}
}
