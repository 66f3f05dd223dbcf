package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// ConnectOptions defines the client settings and the connect retry policy.
type ConnectOptions struct {
	Addr           string
	User           string
	Password       string
	DB             int
	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PoolSize       int
	ConnectTimeout time.Duration // total budget for connect attempts
	RetryInterval  time.Duration // first wait, doubles after each failure
	MaxWait        time.Duration // cap on a single wait
	PingTimeout    time.Duration
	WarnThreshold  int // attempts logged at warn level before switching to error
}

func (o ConnectOptions) validate() error {
	switch {
	case o.Addr == "":
		return fmt.Errorf("redis Addr must be set")
	case o.ConnectTimeout <= 0:
		return fmt.Errorf("ConnectTimeout must be > 0, got %v", o.ConnectTimeout)
	case o.RetryInterval <= 0:
		return fmt.Errorf("RetryInterval must be > 0, got %v", o.RetryInterval)
	case o.MaxWait <= 0:
		return fmt.Errorf("MaxWait must be > 0, got %v", o.MaxWait)
	case o.PingTimeout <= 0:
		return fmt.Errorf("PingTimeout must be > 0, got %v", o.PingTimeout)
	case o.WarnThreshold < 0:
		return fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold)
	}
	return nil
}

func (o ConnectOptions) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.RetryInterval
	b.MaxInterval = o.MaxWait
	b.MaxElapsedTime = o.ConnectTimeout
	b.Multiplier = 2
	b.RandomizationFactor = 0
	return b
}

// New builds a client and pings it until it answers or ConnectTimeout runs
// out, backing off exponentially between attempts.
func New(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := opts.validate(); err != nil {
		log.Error("invalid redis options", logger.Error(err))
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	log = log.With(logger.String("addr", opts.Addr))
	log.Info("connecting to redis", logger.Duration("timeout", opts.ConnectTimeout))

	start := time.Now()
	attempt := 0
	ping := func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
		defer cancel()
		return client.Ping(pingCtx).Err()
	}
	onRetry := func(err error, next time.Duration) {
		fields := []logger.Field{
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", next),
			logger.Error(err),
		}
		if attempt <= opts.WarnThreshold {
			log.Warn("redis connection failed, retrying", fields...)
			return
		}
		log.Error("redis still unavailable, retrying", fields...)
	}

	if err := backoff.RetryNotify(ping, backoff.WithContext(opts.backOff(), ctx), onRetry); err != nil {
		_ = client.Close()
		log.Error("redis unavailable",
			logger.Int("attempts", attempt),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err))
		return nil, fmt.Errorf("redis unavailable at %s after %d attempts: %w", opts.Addr, attempt, err)
	}

	if attempt > 1 {
		log.Warn("connected to redis after retry",
			logger.Int("attempts", attempt),
			logger.Duration("elapsed", time.Since(start)))
	} else {
		log.Info("connected to redis")
	}
	return client, nil
}
