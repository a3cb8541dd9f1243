// Package metrics exposes pipeline counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Recorder holds the sentiment pipeline metrics.
type Recorder struct {
	cycles      *prometheus.CounterVec
	fetches     *prometheus.CounterVec
	changes     *prometheus.CounterVec
	corrections *prometheus.CounterVec
	buyPct      *prometheus.GaugeVec
	duration    prometheus.Histogram
}

// New registers the metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		cycles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_cycles_total",
				Help: "Pipeline cycles by result",
			},
			[]string{"result"},
		),
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_source_fetch_total",
				Help: "Source fetches by source and status",
			},
			[]string{"source", "status"},
		),
		changes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_signal_changes_total",
				Help: "Detected signal changes by importance",
			},
			[]string{"importance"},
		),
		corrections: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_consistency_corrections_total",
				Help: "Records whose sell percentage was recomputed",
			},
			[]string{"source"},
		),
		buyPct: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentiment_buy_percentage",
				Help: "Last observed buy percentage per source and instrument",
			},
			[]string{"source", "instrument"},
		),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentiment_cycle_duration_seconds",
			Help:    "Duration of a full pipeline cycle",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordCycle counts a finished cycle; result is "ok" or "error".
func (r *Recorder) RecordCycle(result string, d time.Duration) {
	r.cycles.WithLabelValues(result).Inc()
	r.duration.Observe(d.Seconds())
}

func (r *Recorder) RecordFetch(source, status string) {
	r.fetches.WithLabelValues(source, status).Inc()
}

func (r *Recorder) RecordChange(importance string) {
	r.changes.WithLabelValues(importance).Inc()
}

func (r *Recorder) RecordCorrections(source string, n int) {
	if n > 0 {
		r.corrections.WithLabelValues(source).Add(float64(n))
	}
}

func (r *Recorder) RecordBuyPercentage(source, instrument string, v float64) {
	r.buyPct.WithLabelValues(source, instrument).Set(v)
}

// Handler routes /metrics to g and answers /healthz.
func Handler(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return r
}

// Serve exposes Handler(g) on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	srv := &http.Server{Addr: addr, Handler: Handler(g), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logrus.WithField("addr", addr).Info("metrics endpoint listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
