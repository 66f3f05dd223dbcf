package notify

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/domain"
)

func TestPostingHTML(t *testing.T) {
	p := domain.Posting{
		Identity:   "https://jobs/1",
		URL:        "https://jobs/1",
		Title:      "Go <Backend> Dev",
		Company:    "AT&T",
		SourceName: "LinkedIn",
		PostedAt:   "2 days ago",
	}

	got := PostingHTML(p)

	for _, want := range []string{
		`<a href="https://jobs/1">Go &lt;Backend&gt; Dev</a>`,
		`AT&amp;T`,
		`Source: LinkedIn`,
		`2 days ago`,
		`search=AT%26T`,
		`q=AT%26T`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("PostingHTML() missing %q in:\n%s", want, got)
		}
	}
}

func TestSummaryText(t *testing.T) {
	if got := SummaryText([]string{"Acme", "Globex"}); got != "Acme\nGlobex" {
		t.Errorf("SummaryText() = %q", got)
	}
}

func TestOperatorTexts(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"done", CycleDoneText(3, 2, 0, 95*time.Second), "✅ Posted 3 new jobs from 2 companies\n⏱️ took 1m 35s"},
		{"none", CycleDoneText(0, 0, 1, 5*time.Second), "ℹ️ No new jobs found\n⚠️ 1 source(s) unavailable\n⏱️ took 0m 5s"},
		{"pruned", PrunedText(4, 7*24*time.Hour), "🗑️ Cleaned 4 old jobs (older than 7 days)"},
		{"failed", CycleFailedText(errors.New("disk full"), 20*time.Minute), "❌ Error occurred: disk full\n⏳ Retrying in 20m 0s..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
