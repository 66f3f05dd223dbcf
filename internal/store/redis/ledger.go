package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/ledger"
	"github.com/redis/go-redis/v9"
)

// maxUpdateRetries bounds optimistic transaction retries in Update.
const maxUpdateRetries = 5

// LedgerStore persists the ledger snapshot under a single Redis key.
// SET replaces the value atomically, and Update uses WATCH/MULTI so a
// concurrent writer forces a retry instead of being overwritten.
type LedgerStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

func NewLedgerStore(client *redis.Client, key string) *LedgerStore {
	if key == "" {
		key = KeyLedger
	}
	return &LedgerStore{
		client: client,
		key:    key,
		now:    time.Now,
	}
}

func (s *LedgerStore) Load(ctx context.Context) (ledger.State, error) {
	return s.load(ctx, s.client)
}

func (s *LedgerStore) Save(ctx context.Context, st ledger.State) error {
	data, err := ledger.Encode(st)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

func (s *LedgerStore) Update(ctx context.Context, fn func(*ledger.State) error) (ledger.State, error) {
	var out ledger.State

	txf := func(tx *redis.Tx) error {
		st, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		if err := fn(&st); err != nil {
			return err
		}
		data, err := ledger.Encode(st)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		if err == nil {
			out = st
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, s.key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return ledger.State{}, err
	}
	return ledger.State{}, fmt.Errorf("failed to update ledger: too many concurrent writers")
}

func (s *LedgerStore) load(ctx context.Context, c redis.Cmdable) (ledger.State, error) {
	data, err := c.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ledger.Empty(), nil
		}
		return ledger.State{}, fmt.Errorf("failed to read ledger: %w", err)
	}

	st, err := ledger.Decode(data, s.now())
	if err != nil {
		return ledger.State{}, &ledger.CorruptStateError{Location: "redis:" + s.key, Err: err}
	}
	return st, nil
}
