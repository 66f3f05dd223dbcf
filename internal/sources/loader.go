package sources

import (
	"fmt"
	"os"
	"strings"

	"github.com/MrSnakeDoc/jobwatch/internal/domain"
	"gopkg.in/yaml.v3"
)

// Loader reads the sources YAML file.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load parses the file and returns every source in polling order.
// ${VAR} references are expanded from the environment so credentials in
// query strings can stay out of the file.
func (l *Loader) Load() ([]domain.SourceConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sources yaml: %w", err)
	}

	return f.Sources()
}

// Sources flattens the file into an ordered list with defaults applied.
func (f File) Sources() ([]domain.SourceConfig, error) {
	out := make([]domain.SourceConfig, 0, len(f.Unfiltered)+len(f.Filtered))
	seen := make(map[string]bool)

	add := func(cfg domain.SourceConfig, filtered bool) error {
		cfg = f.Defaults.apply(cfg)
		cfg.Filtered = filtered
		if cfg.URL == "" {
			return fmt.Errorf("source %q has no url", cfg.Note)
		}
		if seen[cfg.MarkerKey()] {
			return fmt.Errorf("duplicate source key %q", cfg.MarkerKey())
		}
		seen[cfg.MarkerKey()] = true
		out = append(out, cfg)
		return nil
	}

	for _, c := range f.Unfiltered {
		if err := add(c, false); err != nil {
			return nil, err
		}
	}
	for _, c := range f.Filtered {
		if err := add(c, true); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d Defaults) apply(c domain.SourceConfig) domain.SourceConfig {
	c.URL = strings.TrimSpace(c.URL)
	if c.Kind == "" {
		c.Kind = d.Kind
	}
	if c.Kind == "" {
		c.Kind = domain.KindFeed
	}
	if !c.Resumable && d.Resumable != nil {
		c.Resumable = *d.Resumable
	}
	if c.Selectors == (domain.Selectors{}) {
		c.Selectors = d.Selectors
	}
	if c.Pagination == (domain.Pagination{}) {
		c.Pagination = d.Pagination
	}
	return c
}

// ParseURLList reads the environment list format: one "url # note" entry
// per line. Blank lines and lines starting with # are ignored. The note
// separator needs a leading space so URL fragments survive.
func ParseURLList(raw string, kind string, filtered bool) []domain.SourceConfig {
	var out []domain.SourceConfig
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		u, note := line, ""
		if i := strings.Index(line, " #"); i >= 0 {
			u, note = strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+2:])
		}
		if u == "" {
			continue
		}

		out = append(out, domain.SourceConfig{
			URL:      u,
			Note:     note,
			Kind:     kind,
			Filtered: filtered,
		})
	}
	return out
}
