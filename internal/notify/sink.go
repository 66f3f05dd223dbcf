// Package notify delivers new postings and status messages to people.
package notify

import (
	"context"

	"github.com/MrSnakeDoc/jobwatch/internal/domain"
)

// Sink is where the pipeline sends its output. Each call is independent;
// a failed posting must not prevent the next one from being attempted.
type Sink interface {
	NotifyPosting(ctx context.Context, p domain.Posting) error
	NotifySummary(ctx context.Context, companies []string) error
	NotifyOperator(ctx context.Context, msg string) error
}

// Multi fans every call out to several sinks and returns the first error.
type Multi []Sink

func (m Multi) NotifyPosting(ctx context.Context, p domain.Posting) error {
	return m.each(func(s Sink) error { return s.NotifyPosting(ctx, p) })
}

func (m Multi) NotifySummary(ctx context.Context, companies []string) error {
	return m.each(func(s Sink) error { return s.NotifySummary(ctx, companies) })
}

func (m Multi) NotifyOperator(ctx context.Context, msg string) error {
	return m.each(func(s Sink) error { return s.NotifyOperator(ctx, msg) })
}

func (m Multi) each(fn func(Sink) error) error {
	var first error
	for _, s := range m {
		if err := fn(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}
