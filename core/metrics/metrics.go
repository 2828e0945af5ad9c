// Package metrics exposes the bot's Prometheus collectors. Every recording
// method is safe on a nil *Metrics so components can run without an exporter.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unimeeting/unimeetbot/core/logger"
)

const namespace = "unimeet"

// Metrics groups the collectors registered on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	Updates          *prometheus.CounterVec
	Screens          *prometheus.CounterVec
	Decisions        *prometheus.CounterVec
	WizardRejections *prometheus.CounterVec
	Deliveries       *prometheus.CounterVec
	HandlerDuration  *prometheus.HistogramVec
	Panics           prometheus.Counter
	RateLimited      prometheus.Counter
}

// New builds and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Inbound updates by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Screens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screens_total",
			Help:      "Rendered screens by presenter path.",
		}, []string{"path"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_decisions_total",
			Help:      "Verification decisions by outcome.",
		}, []string{"outcome"}),
		WizardRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wizard_rejections_total",
			Help:      "Wizard inputs rejected by validation.",
		}, []string{"field", "kind"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Queued outbound deliveries by action and outcome.",
		}, []string{"action", "outcome"}),
		HandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_duration_seconds",
			Help:      "Handler latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler"}),
		Panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_panics_total",
			Help:      "Recovered handler panics.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Updates dropped by the rate limiter.",
		}),
	}
	m.Registry.MustRegister(
		m.Updates, m.Screens, m.Decisions, m.WizardRejections,
		m.Deliveries, m.HandlerDuration, m.Panics, m.RateLimited,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

func outcome(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// ObserveUpdate counts one handled update.
func (m *Metrics) ObserveUpdate(kind string, err error) {
	if m == nil {
		return
	}
	m.Updates.WithLabelValues(kind, outcome(err)).Inc()
}

// ObserveHandler records handler latency.
func (m *Metrics) ObserveHandler(handler string, took time.Duration) {
	if m == nil {
		return
	}
	m.HandlerDuration.WithLabelValues(handler).Observe(took.Seconds())
}

// ObserveScreen counts a screen rendered through path.
func (m *Metrics) ObserveScreen(path string) {
	if m == nil {
		return
	}
	m.Screens.WithLabelValues(path).Inc()
}

// ObserveDecision counts a verification decision.
func (m *Metrics) ObserveDecision(outcome string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(outcome).Inc()
}

// ObserveRejection counts a wizard validation failure.
func (m *Metrics) ObserveRejection(field, kind string) {
	if m == nil {
		return
	}
	m.WizardRejections.WithLabelValues(field, kind).Inc()
}

// ObserveDelivery counts a queued outbound delivery.
func (m *Metrics) ObserveDelivery(action string, err error) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(action, outcome(err)).Inc()
}

// ObservePanic counts a recovered panic.
func (m *Metrics) ObservePanic() {
	if m == nil {
		return
	}
	m.Panics.Inc()
}

// ObserveRateLimited counts a dropped update.
func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, m *Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Metrics.LogAttrs(ctx, slog.LevelInfo, "exporter.start", slog.String("listen", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		logger.Metrics.LogAttrs(ctx, slog.LevelInfo, "exporter.stop", slog.String("status", logger.Status(err)))
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
