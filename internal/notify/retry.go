package notify

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/domain"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
	"github.com/cenkalti/backoff/v4"
)

type RetryConfig struct {
	Attempts  int           // total tries, including the first
	BaseDelay time.Duration // wait after the first failure, doubled each time
	MaxDelay  time.Duration
	// AttemptTimeout bounds a single try so a hung send still leaves room
	// for the next one. Zero means each try may use the whole caller deadline.
	AttemptTimeout time.Duration
}

// DefaultRetry tries three times, waiting 1s then 2s.
var DefaultRetry = RetryConfig{Attempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}

// Budget is the longest a retried call can take when every try runs into
// AttemptTimeout: all tries plus the waits between them.
func (c RetryConfig) Budget() time.Duration {
	attempts := max(c.Attempts, 1)
	total := time.Duration(attempts) * c.AttemptTimeout
	delay := c.BaseDelay
	for i := 1; i < attempts; i++ {
		total += min(delay, c.MaxDelay)
		delay *= 2
	}
	return total
}

type retrying struct {
	next Sink
	cfg  RetryConfig
	log  logger.Logger
}

// WithRetry wraps a sink so every call is retried with exponential
// back-off. The last error is returned once attempts are exhausted.
func WithRetry(next Sink, cfg RetryConfig, log logger.Logger) Sink {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultRetry.BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	return &retrying{next: next, cfg: cfg, log: log}
}

func (r *retrying) NotifyPosting(ctx context.Context, p domain.Posting) error {
	return r.do(ctx, "posting", func(actx context.Context) error { return r.next.NotifyPosting(actx, p) })
}

func (r *retrying) NotifySummary(ctx context.Context, companies []string) error {
	return r.do(ctx, "summary", func(actx context.Context) error { return r.next.NotifySummary(actx, companies) })
}

func (r *retrying) NotifyOperator(ctx context.Context, msg string) error {
	return r.do(ctx, "operator", func(actx context.Context) error { return r.next.NotifyOperator(actx, msg) })
}

func (r *retrying) policy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.BaseDelay
	b.MaxInterval = r.cfg.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.cfg.Attempts-1)), ctx)
}

func (r *retrying) do(ctx context.Context, kind string, op func(context.Context) error) error {
	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		if r.cfg.AttemptTimeout <= 0 {
			return op(ctx)
		}
		actx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
		defer cancel()
		return op(actx)
	}, r.policy(ctx), func(err error, wait time.Duration) {
		r.log.Warn("notification failed, retrying",
			logger.String("kind", kind),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", wait),
			logger.Error(err))
	})
}
