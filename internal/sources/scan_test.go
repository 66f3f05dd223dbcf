package sources

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/domain"
)

func ids(ps []domain.Posting) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Identity
	}
	return out
}

func TestScanFirstSeenIsMarkerWhenNothingNew(t *testing.T) {
	s := newScan("A")
	if s.offer(domain.Posting{Identity: "A"}) {
		t.Fatal("offer() should stop at the marker")
	}
	b := s.result()
	if b.FirstSeen != "A" || !b.StoppedEarly || len(b.Postings) != 0 {
		t.Errorf("result() = %+v", b)
	}
}

func TestHostLimiterUnlimited(t *testing.T) {
	hl := NewHostLimiter(0, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 50; i++ {
		if err := hl.WaitURL(ctx, "https://example.com/x"); err != nil {
			t.Fatalf("WaitURL() error = %v", err)
		}
	}
}

func TestHostLimiterHonoursContext(t *testing.T) {
	hl := NewHostLimiter(0.001, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := hl.WaitURL(ctx, "https://example.com/a"); err != nil {
		t.Fatalf("first WaitURL() error = %v", err)
	}
	if err := hl.WaitURL(ctx, "https://example.com/b"); err == nil {
		t.Error("second WaitURL() should fail once the context expires")
	}
}
