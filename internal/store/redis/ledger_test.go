package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/ledger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*LedgerStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLedgerStore(client, LedgerKey("test")), mr
}

func TestLedgerStoreMissingKeyIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	st, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.Notified)
}

func TestLedgerStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	st := ledger.Empty()
	st.Record("a", now)
	st.SetMarker("src", "a")
	require.NoError(t, s.Save(ctx, st))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsNotified("a"))
	m, _ := got.Marker("src")
	assert.Equal(t, "a", m)
}

func TestLedgerStoreCorrupt(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set(LedgerKey("test"), "{not json"))

	_, err := s.Load(context.Background())
	assert.True(t, errors.Is(err, ledger.ErrCorruptState))
}

func TestLedgerStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Update(ctx, func(st *ledger.State) error {
		st.AddBlacklisted("Acme")
		return nil
	})
	require.NoError(t, err)

	got, err := s.Update(ctx, func(st *ledger.State) error {
		st.AddBlacklisted("Globex")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Globex"}, got.Blacklist)

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Globex"}, loaded.Blacklist)
}

func TestLedgerKey(t *testing.T) {
	assert.Equal(t, "jobwatch:ledger", LedgerKey(""))
	assert.Equal(t, "jobwatch:ledger:prod", LedgerKey("prod"))
}
