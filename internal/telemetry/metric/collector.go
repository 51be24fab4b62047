package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DispatcherStats is the part of *agent.Dispatcher read at scrape time.
type DispatcherStats interface {
	Queued() int
	Active() int
}

// DispatcherCollector reports dispatcher load when scraped.
type DispatcherCollector struct {
	stats  DispatcherStats
	queued *prometheus.Desc
	active *prometheus.Desc
}

// NewDispatcherCollector creates a collector for d.
func NewDispatcherCollector(d DispatcherStats) *DispatcherCollector {
	return &DispatcherCollector{
		stats: d,
		queued: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "agent", "queued_tasks"),
			"CPU tasks waiting for a dispatcher worker.",
			nil, nil,
		),
		active: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "agent", "active_agents"),
			"Agents with an action queued or running.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *DispatcherCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queued
	ch <- c.active
}

// Collect implements prometheus.Collector.
func (c *DispatcherCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(c.stats.Queued()))
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(c.stats.Active()))
}
