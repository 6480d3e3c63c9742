// Package metrics exposes Prometheus counters for updates, exchanges and completions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector owns the bot's Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	updatesHandled     *prometheus.CounterVec
	updateDuration     *prometheus.HistogramVec
	rateLimited        prometheus.Counter
	transitions        *prometheus.CounterVec
	rejections         *prometheus.CounterVec
	completions        *prometheus.CounterVec
	completionDuration *prometheus.HistogramVec
	promptTokens       *prometheus.CounterVec
	sends              *prometheus.CounterVec
	sessions           prometheus.GaugeFunc
}

// New registers every metric on a fresh registry. sessions reports the live session count and may be nil.
func New(sessions func() int) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		updatesHandled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lunabot_updates_handled_total",
				Help: "Total number of Telegram updates handled",
			},
			[]string{"handler", "status"},
		),
		updateDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lunabot_update_duration_seconds",
				Help:    "Duration of update handling including completions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler"},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lunabot_rate_limited_total",
				Help: "Total number of updates dropped by the rate limiter",
			},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lunabot_state_transitions_total",
				Help: "Total number of session state transitions",
			},
			[]string{"from", "to"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lunabot_rejections_total",
				Help: "Total number of practice messages rejected",
			},
			[]string{"reason"},
		),
		completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lunabot_completions_total",
				Help: "Total number of LLM completion calls",
			},
			[]string{"purpose", "model", "status"},
		),
		completionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lunabot_completion_duration_seconds",
				Help:    "Duration of LLM completion calls",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"purpose"},
		),
		promptTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lunabot_prompt_tokens_total",
				Help: "Estimated prompt tokens sent to the LLM",
			},
			[]string{"purpose", "model"},
		),
		sends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lunabot_outbound_sends_total",
				Help: "Outbound Telegram calls by final status",
			},
			[]string{"action", "status"},
		),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.updatesHandled,
		c.updateDuration,
		c.rateLimited,
		c.transitions,
		c.rejections,
		c.completions,
		c.completionDuration,
		c.promptTokens,
		c.sends,
	)
	if sessions != nil {
		c.sessions = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "lunabot_sessions",
				Help: "Number of users with a session since process start",
			},
			func() float64 { return float64(sessions()) },
		)
		c.registry.MustRegister(c.sessions)
	}
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveUpdate records one handled update.
func (c *Collector) ObserveUpdate(handler, status string, took time.Duration) {
	if c == nil {
		return
	}
	c.updatesHandled.WithLabelValues(handler, status).Inc()
	c.updateDuration.WithLabelValues(handler).Observe(took.Seconds())
}

// ObserveRateLimited records one dropped update.
func (c *Collector) ObserveRateLimited() {
	if c == nil {
		return
	}
	c.rateLimited.Inc()
}

// ObserveTransition records a session state change.
func (c *Collector) ObserveTransition(from, to string) {
	if c == nil || from == to {
		return
	}
	c.transitions.WithLabelValues(from, to).Inc()
}

// ObserveRejection records a refused practice message.
func (c *Collector) ObserveRejection(reason string) {
	if c == nil {
		return
	}
	c.rejections.WithLabelValues(reason).Inc()
}

// ObserveCompletion records one LLM call; negative promptTokens are skipped.
func (c *Collector) ObserveCompletion(purpose, model, status string, took time.Duration, promptTokens int) {
	if c == nil {
		return
	}
	c.completions.WithLabelValues(purpose, model, status).Inc()
	c.completionDuration.WithLabelValues(purpose).Observe(took.Seconds())
	if promptTokens > 0 {
		c.promptTokens.WithLabelValues(purpose, model).Add(float64(promptTokens))
	}
}

// ObserveSend records the final outcome of one outbound Telegram call.
func (c *Collector) ObserveSend(action, status string) {
	if c == nil {
		return
	}
	c.sends.WithLabelValues(action, status).Inc()
}
