package taskgroup

import "github.com/prometheus/client_golang/prometheus"

// Collector adapts a Group's counters into a prometheus.Collector, the
// same additive-instrumentation pattern as package cache's Collector.
type Collector struct {
	group *Group
	name  string

	active     *prometheus.Desc
	succeeded  *prometheus.Desc
	failed     *prometheus.Desc
	queuedErrs *prometheus.Desc
}

// NewCollector builds a prometheus.Collector for g, labeled by name.
func NewCollector(name string, g *Group) *Collector {
	labels := prometheus.Labels{"task_group": name}
	mk := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc("tempusutil_taskgroup_"+metric, help, nil, labels)
	}
	return &Collector{
		group:      g,
		name:       name,
		active:     mk("active_tasks", "Number of tasks currently running."),
		succeeded:  mk("succeeded_total", "Total number of tasks that completed with Ok."),
		failed:     mk("failed_total", "Total number of tasks that completed with Failed."),
		queuedErrs: mk("queued_exceptions", "Length of the bounded failure queue."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.active
	ch <- c.succeeded
	ch <- c.failed
	ch <- c.queuedErrs
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(c.group.NumActiveTasks()))
	ch <- prometheus.MustNewConstMetric(c.succeeded, prometheus.CounterValue, float64(c.group.TasksSucceeded()))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(c.group.NumFailures()))
	ch <- prometheus.MustNewConstMetric(c.queuedErrs, prometheus.GaugeValue, float64(len(c.group.ExceptionInfo())))
}
