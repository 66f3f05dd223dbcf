package sources

import (
	"fmt"

	"github.com/MrSnakeDoc/jobwatch/internal/aggregator"
	"github.com/MrSnakeDoc/jobwatch/internal/domain"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
)

// Build creates a source implementation for each config, keeping order.
func Build(cfgs []domain.SourceConfig, fetcher *Fetcher, log logger.Logger) ([]aggregator.Binding, error) {
	out := make([]aggregator.Binding, 0, len(cfgs))
	for _, cfg := range cfgs {
		src, err := New(cfg, fetcher, log)
		if err != nil {
			return nil, err
		}
		out = append(out, aggregator.Binding{Config: cfg, Source: src})
	}
	return out, nil
}

// New returns the implementation for cfg.Kind.
func New(cfg domain.SourceConfig, fetcher *Fetcher, log logger.Logger) (aggregator.Source, error) {
	switch cfg.Kind {
	case domain.KindFeed, "":
		return NewFeed(cfg, fetcher, log), nil
	case domain.KindBoard:
		b, err := NewBoard(cfg, fetcher, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("source %s: unknown kind %q", cfg.Name(), cfg.Kind)
	}
}
