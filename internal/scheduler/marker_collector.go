package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/ledger"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
)

// DefaultCollectInterval is how often orphaned resume markers are swept.
const DefaultCollectInterval = 24 * time.Hour

// MarkerCollector removes resume markers whose source is no longer
// configured, so the ledger does not keep growing as listings come and go.
type MarkerCollector struct {
	store    ledger.Store
	keys     map[string]struct{}
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

func NewMarkerCollector(store ledger.Store, activeKeys []string, log logger.Logger, interval time.Duration) *MarkerCollector {
	if interval <= 0 {
		interval = DefaultCollectInterval
	}
	keys := make(map[string]struct{}, len(activeKeys))
	for _, k := range activeKeys {
		keys[k] = struct{}{}
	}
	return &MarkerCollector{
		store:    store,
		keys:     keys,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs a sweep immediately and then every interval.
func (mc *MarkerCollector) Start(ctx context.Context) error {
	if _, err := mc.Collect(ctx); err != nil {
		mc.logger.Warn("initial marker collection failed", logger.Error(err))
	}

	ticker := time.NewTicker(mc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := mc.Collect(ctx); err != nil {
					mc.logger.Error("marker collection failed", logger.Error(err))
				}
			case <-mc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (mc *MarkerCollector) Stop() {
	close(mc.stopCh)
}

// Collect deletes orphaned markers and returns how many went away. The
// ledger is only rewritten when something was removed.
func (mc *MarkerCollector) Collect(ctx context.Context) (int, error) {
	st, err := mc.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	if len(mc.orphans(st)) == 0 {
		mc.logger.Debug("no orphaned markers")
		return 0, nil
	}

	var removed []string
	_, err = mc.store.Update(ctx, func(cur *ledger.State) error {
		removed = mc.orphans(*cur)
		for _, k := range removed {
			delete(cur.Markers, k)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, k := range removed {
		mc.logger.Info("collected orphaned resume marker", logger.String("source_key", k))
	}
	return len(removed), nil
}

func (mc *MarkerCollector) orphans(st ledger.State) []string {
	var out []string
	for k := range st.Markers {
		if _, ok := mc.keys[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}
