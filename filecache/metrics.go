package filecache

import "github.com/prometheus/client_golang/prometheus"

// Collector adapts a Cache's Statistics() into a prometheus.Collector, the
// same additive-instrumentation pattern as package cache's Collector.
type Collector struct {
	cache *Cache
	name  string

	size     *prometheus.Desc
	capacity *prometheus.Desc
	hits     *prometheus.Desc
	misses   *prometheus.Desc
	inserts  *prometheus.Desc
}

// NewCollector builds a prometheus.Collector for c, labeled by name.
func NewCollector(name string, c *Cache) *Collector {
	labels := prometheus.Labels{"cache": name}
	mk := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc("tempusutil_filecache_"+metric, help, nil, labels)
	}
	return &Collector{
		cache:    c,
		name:     name,
		size:     mk("size_bytes", "Current accounted on-disk size."),
		capacity: mk("capacity_bytes", "Configured byte capacity."),
		hits:     mk("hits_total", "Total number of Find hits."),
		misses:   mk("misses_total", "Total number of Find misses."),
		inserts:  mk("inserts_total", "Total number of successful inserts."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.size
	ch <- c.capacity
	ch <- c.hits
	ch <- c.misses
	ch <- c.inserts
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.cache.Statistics()
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(s.Size))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity))
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.inserts, prometheus.CounterValue, float64(s.Inserts))
}
