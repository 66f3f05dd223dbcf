// Package aggregator runs one pass of the pipeline: fetch every source,
// merge, deduplicate and classify, and produce the next ledger state.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/domain"
	"github.com/MrSnakeDoc/jobwatch/internal/filter"
	"github.com/MrSnakeDoc/jobwatch/internal/ledger"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// Matcher applies to sources configured as filtered. Nil lets everything through.
	Matcher *filter.Matcher
	// Concurrency is the number of sources fetched at once. Values below 1 mean 1.
	Concurrency int
	// SourceTimeout bounds a single source fetch. Zero means no extra bound.
	SourceTimeout time.Duration
}

type Aggregator struct {
	opts Options
	log  logger.Logger
}

func New(opts Options, log logger.Logger) *Aggregator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Aggregator{opts: opts, log: log}
}

type fetchResult struct {
	batch    domain.Batch
	err      error
	duration time.Duration
}

// RunCycle performs one aggregation pass. The input state is never
// modified; the returned CycleResult carries an updated copy with every new
// posting recorded at now and resume markers advanced.
//
// A failing source contributes nothing and keeps its previous marker.
func (a *Aggregator) RunCycle(ctx context.Context, bindings []Binding, state ledger.State, blacklist *filter.Blacklist, now time.Time) CycleResult {
	results := a.fetchAll(ctx, bindings, state)

	next := state.Clone()
	res := CycleResult{
		New:     []domain.Posting{},
		Sources: make([]SourceReport, len(bindings)),
	}
	seen := make(map[string]struct{})

	for i, b := range bindings {
		cfg := b.Config
		r := results[i]
		rep := &res.Sources[i]
		rep.Key = cfg.MarkerKey()
		rep.Name = cfg.Name()
		rep.Duration = r.duration
		if cfg.Resumable {
			rep.MarkerIn, _ = state.Marker(cfg.MarkerKey())
		}

		if r.err != nil {
			rep.Err = &SourceError{Source: rep.Name, Err: r.err}
			a.log.Warn("source unavailable",
				logger.String("source", rep.Name),
				logger.Error(r.err))
			continue
		}

		rep.Fetched = len(r.batch.Postings)
		rep.Skipped = r.batch.Skipped
		rep.StoppedEarly = r.batch.StoppedEarly

		for _, p := range r.batch.Postings {
			if _, dup := seen[p.Identity]; dup {
				rep.Dropped++
				continue
			}
			seen[p.Identity] = struct{}{}

			// Migrated history is keyed by company and title. Carry the
			// original timestamp over to the identity.
			if at, ok := next.NotifiedAt(p.Identity, p.Company, p.Title); ok && !next.IsNotified(p.Identity) {
				next.Record(p.Identity, at)
			}

			class := a.classify(p, cfg, next, blacklist)
			rep.count(class)
			if class == domain.ClassNew {
				res.New = append(res.New, p)
				next.Record(p.Identity, now)
			}
		}

		if cfg.Resumable {
			first := r.batch.FirstSeen
			if first == "" && len(r.batch.Postings) > 0 {
				first = r.batch.Postings[0].Identity
			}
			if first != "" {
				next.SetMarker(cfg.MarkerKey(), first)
				rep.MarkerOut = first
			}
		}
	}

	res.State = next
	return res
}

// classify applies the checks in fixed order: ledger, blacklist, keywords.
func (a *Aggregator) classify(p domain.Posting, cfg domain.SourceConfig, st ledger.State, blacklist *filter.Blacklist) domain.Classification {
	switch {
	case st.IsNotified(p.Identity):
		return domain.ClassDuplicate
	case blacklist.Contains(p.Company):
		return domain.ClassBlacklisted
	case cfg.Filtered && !a.opts.Matcher.Matches(p.FilterText()):
		return domain.ClassFiltered
	default:
		return domain.ClassNew
	}
}

func (a *Aggregator) fetchAll(ctx context.Context, bindings []Binding, state ledger.State) []fetchResult {
	results := make([]fetchResult, len(bindings))

	var g errgroup.Group
	g.SetLimit(a.opts.Concurrency)

	for i, b := range bindings {
		stopAt := ""
		if b.Config.Resumable {
			stopAt, _ = state.Marker(b.Config.MarkerKey())
		}
		g.Go(func() error {
			start := time.Now()
			batch, err := a.fetchOne(ctx, b, stopAt)
			results[i] = fetchResult{batch: batch, err: err, duration: time.Since(start)}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (a *Aggregator) fetchOne(ctx context.Context, b Binding, stopAt string) (batch domain.Batch, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source panicked: %v", r)
		}
	}()

	if b.Source == nil {
		return domain.Batch{}, fmt.Errorf("no implementation for kind %q", b.Config.Kind)
	}

	if a.opts.SourceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.SourceTimeout)
		defer cancel()
	}

	a.log.Debug("fetching source",
		logger.String("source", b.Config.Name()),
		logger.String("stop_at", stopAt))

	return b.Source.Fetch(ctx, stopAt)
}
