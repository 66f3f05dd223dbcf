package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestPruneBoundary(t *testing.T) {
	retention := 7 * 24 * time.Hour
	now := t0.Add(retention)

	st := Empty()
	st.Record("exact", t0)                  // age == retention
	st.Record("young", t0.Add(time.Second)) // age == retention - 1s
	st.Record("old", t0.Add(-time.Hour))

	pruned, removed := Prune(st, retention, now)

	assert.Equal(t, 2, removed)
	assert.False(t, pruned.IsNotified("exact"))
	assert.False(t, pruned.IsNotified("old"))
	assert.True(t, pruned.IsNotified("young"))

	// input untouched
	assert.Len(t, st.Notified, 3)
}

func TestPruneEmpty(t *testing.T) {
	pruned, removed := Prune(Empty(), time.Hour, t0)
	assert.Zero(t, removed)
	assert.Empty(t, pruned.Notified)
}

func TestCopyOnWrite(t *testing.T) {
	st := Empty()

	withID := WithNotified(st, "a", t0)
	assert.False(t, st.IsNotified("a"))
	assert.True(t, withID.IsNotified("a"))

	withMarker := WithMarker(withID, "src", "a")
	_, ok := withID.Marker("src")
	assert.False(t, ok)

	m, ok := withMarker.Marker("src")
	require.True(t, ok)
	assert.Equal(t, "a", m)
}

func TestRecordIsLastWriteWins(t *testing.T) {
	st := Empty()
	st.Record("a", t0)
	st.Record("a", t0.Add(time.Hour))

	assert.Len(t, st.Notified, 1)
	assert.Equal(t, t0.Add(time.Hour), st.Notified["a"])
}

func TestBlacklistEdits(t *testing.T) {
	st := Empty()

	added := st.AddBlacklisted("Acme", " Globex ", "Acme", "")
	assert.Equal(t, []string{"Acme", "Globex"}, added)
	assert.Equal(t, []string{"Acme", "Globex"}, st.Blacklist)

	assert.Empty(t, st.AddBlacklisted("Acme"))

	removed := st.RemoveBlacklisted("Initech", "Acme")
	assert.Equal(t, []string{"Acme"}, removed)
	assert.Equal(t, []string{"Globex"}, st.Blacklist)
}

func TestCloneIsDeep(t *testing.T) {
	st := Empty()
	st.AddBlacklisted("Acme")
	st.Record("a", t0)
	st.SetMarker("src", "a")

	c := st.Clone()
	c.AddBlacklisted("Globex")
	c.Record("b", t0)
	c.SetMarker("src", "b")

	assert.Equal(t, []string{"Acme"}, st.Blacklist)
	assert.False(t, st.IsNotified("b"))
	m, _ := st.Marker("src")
	assert.Equal(t, "a", m)
}
