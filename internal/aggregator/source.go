package aggregator

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/jobwatch/internal/domain"
)

// Source yields postings for one configured listing. stopAt is the resume
// marker from the previous cycle (empty when there is none); a source
// should stop scanning once it reaches it. Postings come back in the
// source's natural order.
type Source interface {
	Fetch(ctx context.Context, stopAt string) (domain.Batch, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, stopAt string) (domain.Batch, error)

func (f SourceFunc) Fetch(ctx context.Context, stopAt string) (domain.Batch, error) {
	return f(ctx, stopAt)
}

// Binding pairs a source's configuration with its implementation.
type Binding struct {
	Config domain.SourceConfig
	Source Source
}

// SourceError reports a source that could not be read this cycle.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
