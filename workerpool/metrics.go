package workerpool

import "github.com/prometheus/client_golang/prometheus"

// Collector adapts a Pool's Size()/InUse()/MaxReachedSize() into a
// prometheus.Collector, the same additive-instrumentation pattern as
// package cache's Collector.
type Collector[T Cancelable] struct {
	pool *Pool[T]
	name string

	size       *prometheus.Desc
	inUse      *prometheus.Desc
	maxReached *prometheus.Desc
}

// NewCollector builds a prometheus.Collector for p, labeled by name.
func NewCollector[T Cancelable](name string, p *Pool[T]) *Collector[T] {
	labels := prometheus.Labels{"pool": name}
	mk := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc("tempusutil_workerpool_"+metric, help, nil, labels)
	}
	return &Collector[T]{
		pool:       p,
		name:       name,
		size:       mk("size", "Current total pool size, borrowed plus free."),
		inUse:      mk("in_use", "Number of items currently borrowed."),
		maxReached: mk("max_reached_size", "High-water mark of pool size ever reached."),
	}
}

func (c *Collector[T]) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.size
	ch <- c.inUse
	ch <- c.maxReached
}

func (c *Collector[T]) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(c.pool.Size()))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(c.pool.InUse()))
	ch <- prometheus.MustNewConstMetric(c.maxReached, prometheus.GaugeValue, float64(c.pool.MaxReachedSize()))
}
