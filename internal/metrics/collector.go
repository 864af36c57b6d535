package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector gathers the engine's operational metrics: HTTP traffic on the
// editor API, the two polling loops, and graph persistence. A nil
// Collector is valid and records nothing.
type Collector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	pollTicksTotal    *prometheus.CounterVec
	pollFailuresTotal *prometheus.CounterVec
	suppressedReopens prometheus.Counter
	inputQueueDepth   prometheus.Gauge

	savesTotal *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a collector registered on reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.pollTicksTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Polling loop ticks by loop name",
		},
		[]string{"loop"},
	)

	c.pollFailuresTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_failures_total",
			Help:      "Polling loop failures by loop name",
		},
		[]string{"loop"},
	)

	c.suppressedReopens = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suppressed_reopens_total",
			Help:      "Pending-input requests suppressed by the recently-closed window",
		},
	)

	c.inputQueueDepth = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "input_queue_depth",
			Help:      "Pending human-input requests currently queued",
		},
	)

	c.savesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_saves_total",
			Help:      "Graph persistence attempts by mode and result",
		},
		[]string{"mode", "result"},
	)

	return c
}

// ObserveHTTPRequest records one handled request.
func (c *Collector) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncPollTick records a tick of the named polling loop.
func (c *Collector) IncPollTick(loop string) {
	if c == nil {
		return
	}
	c.pollTicksTotal.WithLabelValues(loop).Inc()
}

// IncPollFailure records a failed poll of the named loop.
func (c *Collector) IncPollFailure(loop string) {
	if c == nil {
		return
	}
	c.pollFailuresTotal.WithLabelValues(loop).Inc()
}

// IncSuppressedReopen records a pending request skipped because its
// execution id was recently closed.
func (c *Collector) IncSuppressedReopen() {
	if c == nil {
		return
	}
	c.suppressedReopens.Inc()
}

// SetInputQueueDepth records the current queue depth.
func (c *Collector) SetInputQueueDepth(n int) {
	if c == nil {
		return
	}
	c.inputQueueDepth.Set(float64(n))
}

// IncSave records a persistence attempt. mode is "silent" or "explicit".
func (c *Collector) IncSave(mode string, ok bool) {
	if c == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	c.savesTotal.WithLabelValues(mode, result).Inc()
}
