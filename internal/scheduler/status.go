package scheduler

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/aggregator"
)

// Phases of the cycle loop.
const (
	PhaseIdle     = "idle"
	PhaseRunning  = "running"
	PhaseSleeping = "sleeping"
	PhaseStopped  = "stopped"
)

// SourceStatus is a SourceReport with its error flattened for JSON.
type SourceStatus struct {
	aggregator.SourceReport
	Error string `json:"error,omitempty"`
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	Phase          string         `json:"phase"`
	Cycle          int            `json:"cycle"`
	CycleID        string         `json:"cycle_id,omitempty"`
	Degraded       bool           `json:"degraded"`
	LastStartedAt  time.Time      `json:"last_started_at,omitempty"`
	LastFinishedAt time.Time      `json:"last_finished_at,omitempty"`
	NextRunAt      time.Time      `json:"next_run_at,omitempty"`
	LastError      string         `json:"last_error,omitempty"`
	LastNew        int            `json:"last_new"`
	LastDelivered  int            `json:"last_delivered"`
	LastPruned     int            `json:"last_pruned"`
	LedgerSize     int            `json:"ledger_size"`
	Sources        []SourceStatus `json:"sources,omitempty"`
}

type statusTracker struct {
	mu sync.RWMutex
	s  Status
}

func (t *statusTracker) snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.s
	s.Sources = append([]SourceStatus(nil), t.s.Sources...)
	return s
}

func (t *statusTracker) update(fn func(*Status)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.s)
}

func sourceStatuses(reports []aggregator.SourceReport) []SourceStatus {
	out := make([]SourceStatus, len(reports))
	for i, r := range reports {
		out[i] = SourceStatus{SourceReport: r}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	return out
}
