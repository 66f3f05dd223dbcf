package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/aggregator"
	"github.com/MrSnakeDoc/jobwatch/internal/domain"
	"github.com/MrSnakeDoc/jobwatch/internal/filter"
	"github.com/MrSnakeDoc/jobwatch/internal/ledger"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
	"github.com/MrSnakeDoc/jobwatch/internal/metrics"
	"github.com/MrSnakeDoc/jobwatch/internal/notify"
	"github.com/google/uuid"
)

const (
	DefaultCycleInterval = 20 * time.Minute
	DefaultRetention     = 7 * 24 * time.Hour
	DefaultNotifyTimeout = 30 * time.Second
)

// ErrCyclePanic wraps a panic recovered inside a cycle.
var ErrCyclePanic = errors.New("cycle panicked")

type CycleOptions struct {
	Interval      time.Duration
	Retention     time.Duration
	NotifyTimeout time.Duration
	BlacklistFold bool
}

// CycleScheduler runs the poll, persist, notify, sleep loop forever. A
// failed cycle is reported and followed by the normal sleep; nothing that
// happens inside a cycle stops the loop.
type CycleScheduler struct {
	store    ledger.Store
	agg      *aggregator.Aggregator
	bindings []aggregator.Binding
	sink     notify.Sink
	metrics  *metrics.Metrics
	logger   logger.Logger
	opts     CycleOptions
	now      func() time.Time

	// fallback is the in-memory ledger used while the stored one is corrupt.
	fallback *ledger.MemoryStore

	status        statusTracker
	cycle         int
	stopCh        chan struct{}
	stopOnce      sync.Once
	done          chan struct{}
	manualTrigger chan struct{}
}

func NewCycleScheduler(
	store ledger.Store,
	agg *aggregator.Aggregator,
	bindings []aggregator.Binding,
	sink notify.Sink,
	m *metrics.Metrics,
	log logger.Logger,
	opts CycleOptions,
) *CycleScheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultCycleInterval
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = DefaultNotifyTimeout
	}

	s := &CycleScheduler{
		store:         store,
		agg:           agg,
		bindings:      bindings,
		sink:          sink,
		metrics:       m,
		logger:        log,
		opts:          opts,
		now:           time.Now,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
		manualTrigger: make(chan struct{}, 1),
	}
	s.status.s.Phase = PhaseIdle
	return s
}

// Start launches the loop in the background. The first cycle runs right away.
func (s *CycleScheduler) Start(ctx context.Context) error {
	s.logger.Info("cycle scheduler started",
		logger.Int("sources", len(s.bindings)),
		logger.Duration("interval", s.opts.Interval),
		logger.Duration("retention", s.opts.Retention))
	go s.loop(ctx)
	return nil
}

// Stop asks the loop to exit. A running cycle is allowed to finish.
func (s *CycleScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Wait blocks until the loop has exited or ctx ends.
func (s *CycleScheduler) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger cuts the current sleep short. It returns false when a trigger is
// already pending.
func (s *CycleScheduler) Trigger() bool {
	select {
	case s.manualTrigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Status returns a snapshot of the loop's progress.
func (s *CycleScheduler) Status() Status { return s.status.snapshot() }

func (s *CycleScheduler) loop(ctx context.Context) {
	defer close(s.done)
	defer s.status.update(func(st *Status) { st.Phase = PhaseStopped })

	for {
		if s.stopping(ctx) {
			return
		}

		// A cycle in flight is not interrupted by shutdown; per-operation
		// timeouts bound it instead.
		if err := s.RunOnce(context.WithoutCancel(ctx)); err != nil {
			s.reportFailure(context.WithoutCancel(ctx), err)
		}

		next := s.now().Add(s.opts.Interval)
		s.status.update(func(st *Status) {
			st.Phase = PhaseSleeping
			st.NextRunAt = next
		})
		s.logger.Info("sleeping until next cycle", logger.Time("next_run_at", next))

		timer := time.NewTimer(s.opts.Interval)
		select {
		case <-timer.C:
		case <-s.manualTrigger:
			timer.Stop()
			s.logger.Info("manual cycle triggered")
		case <-s.stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (s *CycleScheduler) stopping(ctx context.Context) bool {
	select {
	case <-s.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// RunOnce executes a single cycle. Panics are recovered and returned as
// errors wrapping ErrCyclePanic.
func (s *CycleScheduler) RunOnce(ctx context.Context) (err error) {
	s.cycle++
	id := uuid.NewString()
	start := s.now()
	log := s.logger.With(logger.Int("cycle", s.cycle), logger.String("cycle_id", id))

	s.status.update(func(st *Status) {
		st.Phase = PhaseRunning
		st.Cycle = s.cycle
		st.CycleID = id
		st.LastStartedAt = start
	})

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCyclePanic, r)
		}
		took := s.now().Sub(start)
		s.metrics.ObserveCycle(err == nil, took)
		s.status.update(func(st *Status) {
			st.LastFinishedAt = s.now()
			st.LastError = ""
			if err != nil {
				st.LastError = err.Error()
			}
		})
		if err != nil {
			log.Error("cycle failed", logger.Error(err), logger.Duration("took", took))
		}
	}()

	return s.runCycle(ctx, log, start)
}

func (s *CycleScheduler) runCycle(ctx context.Context, log logger.Logger, start time.Time) error {
	log.Info("starting cycle")
	s.tellOperator(ctx, log, notify.CycleStartedText(s.cycle, start))

	store, st, err := s.openLedger(ctx, log)
	if err != nil {
		return err
	}

	// Retention
	if _, removed := ledger.Prune(st, s.opts.Retention, start); removed > 0 {
		st, err = store.Update(ctx, func(cur *ledger.State) error {
			*cur, removed = ledger.Prune(*cur, s.opts.Retention, start)
			return nil
		})
		if err != nil {
			return fmt.Errorf("persist pruned ledger: %w", err)
		}
		log.Info("pruned ledger", logger.Int("removed", removed))
		s.metrics.Pruned(removed)
		s.status.update(func(x *Status) { x.LastPruned = removed })
		s.tellOperator(ctx, log, notify.PrunedText(removed, s.opts.Retention))
	} else {
		s.status.update(func(x *Status) { x.LastPruned = 0 })
	}

	// Aggregate
	blacklist := filter.NewBlacklist(st.Blacklist, s.opts.BlacklistFold)
	res := s.agg.RunCycle(ctx, s.bindings, st, blacklist, start)
	s.recordSources(res.Sources)

	// Persist before notifying: a crash after this point may drop
	// notifications but never repeats them.
	saved, err := store.Update(ctx, func(cur *ledger.State) error {
		cur.Notified = res.State.Notified
		cur.Markers = res.State.Markers
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	s.metrics.SetLedgerSize(len(saved.Notified))

	delivered := s.deliver(ctx, log, res.New)

	failedSources := len(res.Failed())
	s.status.update(func(x *Status) {
		x.LastNew = len(res.New)
		x.LastDelivered = len(delivered)
		x.LedgerSize = len(saved.Notified)
		x.Sources = sourceStatuses(res.Sources)
	})

	companies := aggregator.CycleResult{New: delivered}.Companies()
	took := s.now().Sub(start)
	log.Info("cycle finished",
		logger.Int("new", len(res.New)),
		logger.Int("delivered", len(delivered)),
		logger.Int("companies", len(companies)),
		logger.Int("failed_sources", failedSources),
		logger.Duration("took", took))
	s.tellOperator(ctx, log, notify.CycleDoneText(len(delivered), len(companies), failedSources, took))

	return nil
}

// openLedger loads the stored ledger. A corrupt snapshot switches the
// scheduler to an in-memory ledger (and keeps retrying the real one every
// cycle) instead of failing or silently starting over on disk.
func (s *CycleScheduler) openLedger(ctx context.Context, log logger.Logger) (ledger.Store, ledger.State, error) {
	st, err := s.store.Load(ctx)
	switch {
	case err == nil:
		if s.fallback != nil {
			log.Warn("ledger readable again, leaving degraded mode")
			s.fallback = nil
			s.setDegraded(false)
		}
		return s.store, st, nil

	case errors.Is(err, ledger.ErrCorruptState):
		if s.fallback == nil {
			s.fallback = ledger.NewMemoryStore(ledger.Empty())
		}
		s.setDegraded(true)
		log.Error("ledger is corrupt, continuing with in-memory state", logger.Error(err))
		s.tellOperator(ctx, log, notify.CorruptStateText(err))

		st, err = s.fallback.Load(ctx)
		if err != nil {
			return nil, ledger.State{}, err
		}
		return s.fallback, st, nil

	default:
		return nil, ledger.State{}, fmt.Errorf("load ledger: %w", err)
	}
}

func (s *CycleScheduler) setDegraded(on bool) {
	s.metrics.SetDegraded(on)
	s.status.update(func(st *Status) { st.Degraded = on })
}

func (s *CycleScheduler) recordSources(reports []aggregator.SourceReport) {
	for _, r := range reports {
		if r.Err != nil {
			s.metrics.SourceFailed(r.Name)
			continue
		}
		for _, c := range []domain.Classification{
			domain.ClassNew, domain.ClassDuplicate, domain.ClassBlacklisted, domain.ClassFiltered,
		} {
			s.metrics.AddPostings(r.Name, c.String(), r.Count(c))
		}
	}
}

// deliver sends each posting on its own deadline and returns those that
// went through. The summary follows when at least one did.
func (s *CycleScheduler) deliver(ctx context.Context, log logger.Logger, postings []domain.Posting) []domain.Posting {
	delivered := make([]domain.Posting, 0, len(postings))

	for _, p := range postings {
		nctx, cancel := context.WithTimeout(ctx, s.opts.NotifyTimeout)
		err := s.sink.NotifyPosting(nctx, p)
		cancel()
		if err != nil {
			s.metrics.NotifyFailed("posting")
			log.Warn("failed to notify posting",
				logger.String("identity", p.Identity),
				logger.String("company", p.Company),
				logger.Error(err))
			continue
		}
		delivered = append(delivered, p)
	}

	if failed := len(postings) - len(delivered); failed > 0 {
		s.tellOperator(ctx, log, notify.NotifyFailuresText(failed, len(postings)))
	}

	if len(delivered) > 0 {
		companies := aggregator.CycleResult{New: delivered}.Companies()
		nctx, cancel := context.WithTimeout(ctx, s.opts.NotifyTimeout)
		defer cancel()
		if err := s.sink.NotifySummary(nctx, companies); err != nil {
			s.metrics.NotifyFailed("summary")
			log.Warn("failed to send company summary", logger.Error(err))
		}
	}

	return delivered
}

func (s *CycleScheduler) tellOperator(ctx context.Context, log logger.Logger, msg string) {
	nctx, cancel := context.WithTimeout(ctx, s.opts.NotifyTimeout)
	defer cancel()
	if err := s.sink.NotifyOperator(nctx, msg); err != nil {
		s.metrics.NotifyFailed("operator")
		log.Warn("failed to send operator status", logger.Error(err))
	}
}

func (s *CycleScheduler) reportFailure(ctx context.Context, err error) {
	s.tellOperator(ctx, s.logger, notify.CycleFailedText(err, s.opts.Interval))
}
