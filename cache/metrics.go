package cache

import "github.com/prometheus/client_golang/prometheus"

// Collector adapts a Cache's Statistics() into a prometheus.Collector, the
// way cuemby-warren/pkg/metrics wires gauges for its own domain counters.
// Registering one is optional and purely additive over Statistics().
type Collector[K comparable, V any] struct {
	cache *Cache[K, V]
	name  string

	size          *prometheus.Desc
	capacity      *prometheus.Desc
	hits          *prometheus.Desc
	misses        *prometheus.Desc
	evictions     *prometheus.Desc
	inserts       *prometheus.Desc
	failedInserts *prometheus.Desc
}

// NewCollector builds a prometheus.Collector for c. name is used as a
// constant "cache" label so multiple caches can share one registry.
func NewCollector[K comparable, V any](name string, c *Cache[K, V]) *Collector[K, V] {
	labels := prometheus.Labels{"cache": name}
	mk := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc("tempusutil_cache_"+metric, help, nil, labels)
	}
	return &Collector[K, V]{
		cache:         c,
		name:          name,
		size:          mk("size", "Current accounted size of the cache."),
		capacity:      mk("capacity", "Configured capacity of the cache."),
		hits:          mk("hits_total", "Total number of Find hits."),
		misses:        mk("misses_total", "Total number of Find misses."),
		evictions:     mk("evictions_total", "Total number of evicted entries."),
		inserts:       mk("inserts_total", "Total number of successful inserts."),
		failedInserts: mk("failed_inserts_total", "Total number of rejected inserts."),
	}
}

func (c *Collector[K, V]) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.size
	ch <- c.capacity
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.inserts
	ch <- c.failedInserts
}

func (c *Collector[K, V]) Collect(ch chan<- prometheus.Metric) {
	s := c.cache.Statistics()
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(s.Size))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity))
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions))
	ch <- prometheus.MustNewConstMetric(c.inserts, prometheus.CounterValue, float64(s.Inserts))
	ch <- prometheus.MustNewConstMetric(c.failedInserts, prometheus.CounterValue, float64(s.FailedInserts))
}
