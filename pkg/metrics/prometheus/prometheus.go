// Package prometheus exports cache metrics to Prometheus.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements metrics.Collector backed by Prometheus vectors.
type Collector struct {
	hits       *prometheus.CounterVec
	misses     *prometheus.CounterVec
	sets       *prometheus.CounterVec
	deletes    *prometheus.CounterVec
	evictions  *prometheus.CounterVec
	promotions prometheus.Counter
	hotKeys    prometheus.Gauge

	storeOps     *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec

	getLatency *prometheus.HistogramVec
	setLatency *prometheus.HistogramVec
}

// New creates a collector with all vectors under the given namespace.
// Call Register to attach it to a registry.
func New(namespace string) *Collector {
	return &Collector{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total cache hits per tier",
			},
			[]string{"tier"},
		),
		misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total cache misses per tier",
			},
			[]string{"tier"},
		),
		sets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_sets_total",
				Help:      "Total cache writes per tier",
			},
			[]string{"tier"},
		),
		deletes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_deletes_total",
				Help:      "Total cache deletes per tier",
			},
			[]string{"tier"},
		),
		evictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_evictions_total",
				Help:      "Total evictions per tier and reason",
			},
			[]string{"tier", "reason"},
		),
		promotions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_promotions_total",
				Help:      "Total values promoted from L2 into L1 on read",
			},
		),
		hotKeys: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cache_hot_keys",
				Help:      "Current number of hot keys",
			},
		),
		storeOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Durable store operations by type and outcome",
			},
			[]string{"operation", "outcome"},
		),
		storeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_seconds",
				Help:      "Durable store operation latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		getLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cache_get_seconds",
				Help:      "Cache read latency per tier",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 10, 8),
			},
			[]string{"tier"},
		),
		setLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cache_set_seconds",
				Help:      "Cache write latency per tier",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 10, 8),
			},
			[]string{"tier"},
		),
	}
}

// Register attaches all vectors to the registry.
func (c *Collector) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		c.hits, c.misses, c.sets, c.deletes, c.evictions,
		c.promotions, c.hotKeys,
		c.storeOps, c.storeLatency,
		c.getLatency, c.setLatency,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// RecordGet records a read.
func (c *Collector) RecordGet(tier string, hit bool, duration time.Duration) {
	if hit {
		c.hits.WithLabelValues(tier).Inc()
	} else {
		c.misses.WithLabelValues(tier).Inc()
	}
	c.getLatency.WithLabelValues(tier).Observe(duration.Seconds())
}

// RecordSet records a write.
func (c *Collector) RecordSet(tier string, duration time.Duration) {
	c.sets.WithLabelValues(tier).Inc()
	c.setLatency.WithLabelValues(tier).Observe(duration.Seconds())
}

// RecordDelete records a delete.
func (c *Collector) RecordDelete(tier string) {
	c.deletes.WithLabelValues(tier).Inc()
}

// RecordEviction records an eviction.
func (c *Collector) RecordEviction(tier string, reason string) {
	c.evictions.WithLabelValues(tier, reason).Inc()
}

// RecordPromotion records an L2-to-L1 promotion.
func (c *Collector) RecordPromotion() {
	c.promotions.Inc()
}

// RecordStoreLoad records a snapshot load.
func (c *Collector) RecordStoreLoad(success bool, duration time.Duration) {
	c.storeOps.WithLabelValues("load", outcome(success)).Inc()
	c.storeLatency.WithLabelValues("load").Observe(duration.Seconds())
}

// RecordStoreSave records a snapshot save.
func (c *Collector) RecordStoreSave(success bool, duration time.Duration) {
	c.storeOps.WithLabelValues("save", outcome(success)).Inc()
	c.storeLatency.WithLabelValues("save").Observe(duration.Seconds())
}

// RecordHotKeys updates the hot key gauge.
func (c *Collector) RecordHotKeys(count int) {
	c.hotKeys.Set(float64(count))
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
