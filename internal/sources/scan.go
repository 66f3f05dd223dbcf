package sources

import "github.com/MrSnakeDoc/jobwatch/internal/domain"

// scan accumulates a batch in source order and enforces the stop marker.
type scan struct {
	stopAt string
	batch  domain.Batch
}

func newScan(stopAt string) *scan {
	return &scan{stopAt: stopAt}
}

// offer adds p unless it is the stop marker. It returns false once the
// marker is reached and scanning should end.
func (s *scan) offer(p domain.Posting) bool {
	if s.batch.FirstSeen == "" {
		s.batch.FirstSeen = p.Identity
	}
	if s.stopAt != "" && p.Identity == s.stopAt {
		s.batch.StoppedEarly = true
		return false
	}
	s.batch.Postings = append(s.batch.Postings, p)
	return true
}

func (s *scan) skip() { s.batch.Skipped++ }

func (s *scan) result() domain.Batch { return s.batch }
