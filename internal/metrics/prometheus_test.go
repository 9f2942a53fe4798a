package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.SetPlanned(5)
	p.BatchStarted()
	p.BatchStarted()
	p.BatchFinished(ResultOK, 200*time.Millisecond)
	p.BatchFinished(ResultRetry, time.Second)
	p.RowsExported(120)
	p.RowsExported(30)
	p.FileWritten()

	require.Equal(t, 5.0, testutil.ToFloat64(p.planned))
	require.Equal(t, 0.0, testutil.ToFloat64(p.inflight))
	require.Equal(t, 1.0, testutil.ToFloat64(p.batches.WithLabelValues(ResultOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(p.batches.WithLabelValues(ResultRetry)))
	require.Equal(t, 150.0, testutil.ToFloat64(p.rows))
	require.Equal(t, 1.0, testutil.ToFloat64(p.files))
	require.Equal(t, 1, testutil.CollectAndCount(p.duration))

	count, err := testutil.GatherAndCount(reg, "test_export_rows_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestNopCollector(t *testing.T) {
	t.Parallel()

	var c Collector = Nop{}
	require.NotPanics(t, func() {
		c.SetPlanned(1)
		c.BatchStarted()
		c.BatchFinished(ResultFailed, time.Second)
		c.RowsExported(10)
		c.FileWritten()
	})
}
