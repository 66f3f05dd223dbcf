package aggregator

import (
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/domain"
	"github.com/MrSnakeDoc/jobwatch/internal/ledger"
	mapset "github.com/deckarep/golang-set/v2"
)

// SourceReport summarises what happened to one source during a cycle.
type SourceReport struct {
	Key  string `json:"key"`
	Name string `json:"name"`

	Fetched     int `json:"fetched"`
	New         int `json:"new"`
	Duplicate   int `json:"duplicate"`
	Blacklisted int `json:"blacklisted"`
	Filtered    int `json:"filtered"`
	// Dropped counts postings already seen earlier in the same batch.
	Dropped int `json:"dropped"`
	Skipped int `json:"skipped"`

	StoppedEarly bool          `json:"stopped_early"`
	MarkerIn     string        `json:"marker_in,omitempty"`
	MarkerOut    string        `json:"marker_out,omitempty"`
	Duration     time.Duration `json:"duration"`
	Err          error         `json:"-"`
}

func (r *SourceReport) count(c domain.Classification) {
	switch c {
	case domain.ClassNew:
		r.New++
	case domain.ClassDuplicate:
		r.Duplicate++
	case domain.ClassBlacklisted:
		r.Blacklisted++
	case domain.ClassFiltered:
		r.Filtered++
	}
}

// Count returns the number of postings that got class c.
func (r SourceReport) Count(c domain.Classification) int {
	switch c {
	case domain.ClassNew:
		return r.New
	case domain.ClassDuplicate:
		return r.Duplicate
	case domain.ClassBlacklisted:
		return r.Blacklisted
	case domain.ClassFiltered:
		return r.Filtered
	}
	return 0
}

type CycleResult struct {
	// New holds postings to notify, in merged source order.
	New     []domain.Posting
	State   ledger.State
	Sources []SourceReport
}

// Companies returns the distinct companies among new postings, in first
// appearance order.
func (r CycleResult) Companies() []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]string, 0, len(r.New))
	for _, p := range r.New {
		if seen.Add(p.Company) {
			out = append(out, p.Company)
		}
	}
	return out
}

// Failed returns the reports of sources that errored.
func (r CycleResult) Failed() []SourceReport {
	var out []SourceReport
	for _, s := range r.Sources {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}
