package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements Collector with metrics registered on first use.
type Prometheus struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	planned  prometheus.Gauge
	inflight prometheus.Gauge
	batches  *prometheus.CounterVec
	duration prometheus.Histogram
	rows     prometheus.Counter
	files    prometheus.Counter
}

var _ Collector = (*Prometheus)(nil)

// NewPrometheus returns a collector registering on reg (prometheus.DefaultRegisterer
// when nil) under namespace ("rangescan" when empty).
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "rangescan"
	}

	return &Prometheus{reg: reg, namespace: namespace}
}

func (p *Prometheus) ensureRegistered() {
	p.once.Do(func() {
		p.planned = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "export",
			Name:      "planned_batches",
			Help:      "Number of batches the key range was partitioned into.",
		})
		p.inflight = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "export",
			Name:      "inflight_batches",
			Help:      "Batches currently being scanned.",
		})
		p.batches = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "export",
			Name:      "batches_total",
			Help:      "Batch attempts by result (ok, retry, failed).",
		}, []string{"result"})
		p.duration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "export",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of one batch attempt.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms .. ~7min
		})
		p.rows = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "export",
			Name:      "rows_total",
			Help:      "Rows read from the source table.",
		})
		p.files = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "export",
			Name:      "files_total",
			Help:      "Chunk files completed.",
		})

		for _, c := range []prometheus.Collector{p.planned, p.inflight, p.batches, p.duration, p.rows, p.files} {
			if err := p.reg.Register(c); err != nil {
				log.Printf("[WARN] metrics register: %v", err)
			}
		}
	})
}

func (p *Prometheus) SetPlanned(batches uint64) {
	p.ensureRegistered()
	p.planned.Set(float64(batches))
}

func (p *Prometheus) BatchStarted() {
	p.ensureRegistered()
	p.inflight.Inc()
}

func (p *Prometheus) BatchFinished(result string, elapsed time.Duration) {
	p.ensureRegistered()
	p.inflight.Dec()
	p.batches.WithLabelValues(result).Inc()
	p.duration.Observe(elapsed.Seconds())
}

func (p *Prometheus) RowsExported(n int) {
	p.ensureRegistered()
	p.rows.Add(float64(n))
}

func (p *Prometheus) FileWritten() {
	p.ensureRegistered()
	p.files.Inc()
}

// Serve exposes gatherer on addr/metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[INFO] metrics on http://%s/metrics", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
