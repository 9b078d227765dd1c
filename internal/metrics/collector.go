// Package metrics exposes environment counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// #region collector
// Collector holds the environment's metrics on its own registry so several
// environments in one process do not collide.
type Collector struct {
	registry *prometheus.Registry

	stepsTotal    *prometheus.CounterVec
	rewardTotal   prometheus.Counter
	lastReward    prometheus.Gauge
	episodesTotal prometheus.Counter
	driverErrors  *prometheus.CounterVec
	planLength    *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector registers every metric under namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		stepsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Environment steps by action kind",
		}, []string{"mode", "kind"}),
		rewardTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reward_total",
			Help:      "Sum of positive step rewards",
		}),
		lastReward: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reward_last",
			Help:      "Reward of the most recent step",
		}),
		episodesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "episodes_total",
			Help:      "Environment resets",
		}),
		driverErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "driver_errors_total",
			Help:      "Failed viewport driver calls",
		}, []string{"op", "class"}),
		planLength: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_tokens",
			Help:      "Tokens emitted per decomposition",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 500},
		}, []string{"field"}),
		logger: logger.With(zap.String("component", "metrics")),
	}
}

// #endregion collector

// #region record
// RecordStep counts one step. mode is "continuous" or "discrete"; kind must come
// from a bounded set such as action.Taken.KindLabel.
func (c *Collector) RecordStep(mode, kind string, reward float64) {
	c.stepsTotal.WithLabelValues(mode, kind).Inc()
	c.lastReward.Set(reward)
	// Counters cannot go down, so only positive rewards accumulate.
	if reward > 0 {
		c.rewardTotal.Add(reward)
	}
}

// RecordReset counts one episode start.
func (c *Collector) RecordReset() {
	c.episodesTotal.Inc()
}

// RecordDriverError counts a failed driver call. class is "timeout" or
// "communication".
func (c *Collector) RecordDriverError(op, class string) {
	c.driverErrors.WithLabelValues(op, class).Inc()
	c.logger.Debug("driver error recorded", zap.String("op", op), zap.String("class", class))
}

// RecordPlan observes a decomposition length.
func (c *Collector) RecordPlan(field string, tokens int) {
	c.planLength.WithLabelValues(field).Observe(float64(tokens))
}

// #endregion record

// #region http
// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// #endregion http
