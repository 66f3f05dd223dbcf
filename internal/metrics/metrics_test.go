package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := New()

	m.ObserveCycle(true, time.Second)
	m.ObserveCycle(false, time.Second)
	m.AddPostings("remote", "new", 3)
	m.NotifyFailed("posting")
	m.SetDegraded(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PostingsTotal.WithLabelValues("remote", "new")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StateDegraded))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "jobwatch_postings_total")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveCycle(true, time.Second)
	m.AddPostings("x", "new", 1)
	m.SourceFailed("x")
	m.NotifyFailed("x")
	m.SetLedgerSize(1)
	m.Pruned(1)
	m.SetDegraded(true)
}
