package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/jobwatch/internal/domain"
)

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "sources.yaml")

	yamlContent := `---
defaults:
  kind: board
  resumable: true
  selectors:
    card: li.job
    title: h3
    company: h4
unfiltered:
  - url: https://jobs.example.com/search?q=golang
    note: Go roles
filtered:
  - url: https://jobs.example.com/feed.xml?token=${JOBWATCH_TEST_TOKEN}
    kind: feed
    resumable: false
`
	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	t.Setenv("JOBWATCH_TEST_TOKEN", "s3cret")

	cfgs, err := NewLoader(yamlPath).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfgs) != 2 {
		t.Fatalf("Load() returned %d sources, want 2", len(cfgs))
	}

	first := cfgs[0]
	if first.Filtered || first.Kind != domain.KindBoard || !first.Resumable {
		t.Errorf("first source = %+v, want unfiltered resumable board", first)
	}
	if first.Selectors.Card != "li.job" {
		t.Errorf("defaults not applied: selectors = %+v", first.Selectors)
	}
	if first.Name() != "Go roles" {
		t.Errorf("Name() = %q, want %q", first.Name(), "Go roles")
	}

	second := cfgs[1]
	if !second.Filtered || second.Kind != domain.KindFeed {
		t.Errorf("second source = %+v, want filtered feed", second)
	}
	if second.URL != "https://jobs.example.com/feed.xml?token=s3cret" {
		t.Errorf("env not expanded: %q", second.URL)
	}
}

func TestLoaderDuplicateKey(t *testing.T) {
	f := File{
		Unfiltered: []domain.SourceConfig{{URL: "https://a"}},
		Filtered:   []domain.SourceConfig{{URL: "https://a"}},
	}
	if _, err := f.Sources(); err == nil {
		t.Error("Sources() should reject duplicate keys")
	}
}

func TestLoaderMissingFile(t *testing.T) {
	if _, err := NewLoader("/nonexistent/sources.yaml").Load(); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestParseURLList(t *testing.T) {
	raw := `
# Remote roles
https://example.com/feed.xml # Remote Go
https://example.com/other.xml

https://example.com/page#frag # With fragment
`
	got := ParseURLList(raw, domain.KindFeed, true)
	if len(got) != 3 {
		t.Fatalf("ParseURLList() returned %d entries, want 3", len(got))
	}

	tests := []struct {
		url  string
		note string
	}{
		{"https://example.com/feed.xml", "Remote Go"},
		{"https://example.com/other.xml", ""},
		{"https://example.com/page#frag", "With fragment"},
	}
	for i, tt := range tests {
		if got[i].URL != tt.url || got[i].Note != tt.note {
			t.Errorf("entry %d = (%q, %q), want (%q, %q)", i, got[i].URL, got[i].Note, tt.url, tt.note)
		}
		if !got[i].Filtered || got[i].Kind != domain.KindFeed {
			t.Errorf("entry %d = %+v, want filtered feed", i, got[i])
		}
	}
}
