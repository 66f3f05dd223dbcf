package app

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/jobwatch/internal/aggregator"
	"github.com/MrSnakeDoc/jobwatch/internal/config"
	"github.com/MrSnakeDoc/jobwatch/internal/domain"
	"github.com/MrSnakeDoc/jobwatch/internal/ledger"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
	"github.com/MrSnakeDoc/jobwatch/internal/redis"
	"github.com/MrSnakeDoc/jobwatch/internal/sources"
	redisstore "github.com/MrSnakeDoc/jobwatch/internal/store/redis"
)

// openStore builds the ledger backend named by the config. The Redis client
// is returned so the caller can close it on shutdown.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (ledger.Store, *goredis.Client, error) {
	switch cfg.StateBackend {
	case config.BackendMemory:
		log.Warn("using the in-memory ledger, history is lost on restart")
		return ledger.NewMemoryStore(ledger.Empty()), nil, nil

	case config.BackendRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		key := redisstore.LedgerKey(cfg.StateKey)
		log.Info("Redis ledger ready", logger.String("key", key))
		return redisstore.NewLedgerStore(client, key), client, nil

	default:
		log.Info("using the file ledger", logger.String("path", cfg.StateFile))
		return ledger.NewFileStore(cfg.StateFile), nil, nil
	}
}

// loadSources merges the sources file and the environment lists. Unfiltered
// sources are polled before filtered ones; within a group the file comes first.
func loadSources(cfg *config.Config) ([]domain.SourceConfig, error) {
	var out []domain.SourceConfig
	if cfg.SourcesFile != "" {
		fromFile, err := sources.NewLoader(cfg.SourcesFile).Load()
		if err != nil {
			return nil, err
		}
		out = append(out, fromFile...)
	}
	out = append(out, sources.ParseURLList(cfg.SourcesUnfiltered, domain.KindFeed, false)...)
	out = append(out, sources.ParseURLList(cfg.SourcesFiltered, domain.KindFeed, true)...)

	slices.SortStableFunc(out, func(a, b domain.SourceConfig) int {
		return filteredRank(a) - filteredRank(b)
	})

	seen := make(map[string]struct{}, len(out))
	for _, c := range out {
		k := c.MarkerKey()
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("source %q is configured twice", k)
		}
		seen[k] = struct{}{}
	}
	return out, nil
}

func filteredRank(c domain.SourceConfig) int {
	if c.Filtered {
		return 1
	}
	return 0
}

func buildBindings(cfg *config.Config, cfgs []domain.SourceConfig, log logger.Logger) ([]aggregator.Binding, error) {
	fetcher := sources.NewFetcher(
		&http.Client{Timeout: cfg.SourceTimeout},
		sources.NewHostLimiter(cfg.FetchRate, cfg.FetchBurst),
		cfg.UserAgent,
	)
	return sources.Build(cfgs, fetcher, log.With(logger.String("component", "sources")))
}

func markerKeys(cfgs []domain.SourceConfig) []string {
	keys := make([]string, 0, len(cfgs))
	for _, c := range cfgs {
		keys = append(keys, c.MarkerKey())
	}
	return keys
}
