package cache

import "github.com/prometheus/client_golang/prometheus"

// StatsSource is anything that can report cache Stats.
type StatsSource interface {
	Stats() Stats
}

// Collector exports the counters of one or more caches as Prometheus metrics,
// labelled by cache name.
type Collector struct {
	sources map[string]StatsSource

	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
	entries   *prometheus.Desc
	weight    *prometheus.Desc
	maxWeight *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector for the given named caches.
func NewCollector(namespace string, sources map[string]StatsSource) *Collector {
	labels := []string{"cache"}
	return &Collector{
		sources:   sources,
		hits:      prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "hits_total"), "Number of cache lookups that found an entry.", labels, nil),
		misses:    prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "misses_total"), "Number of cache lookups that found nothing.", labels, nil),
		evictions: prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "evictions_total"), "Number of entries evicted to stay within the byte budget.", labels, nil),
		entries:   prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "entries"), "Number of cached entries.", labels, nil),
		weight:    prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "bytes"), "Bytes accounted to cached entries.", labels, nil),
		maxWeight: prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "max_bytes"), "Byte budget of the cache.", labels, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.entries
	ch <- c.weight
	ch <- c.maxWeight
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for name, src := range c.sources {
		if src == nil {
			continue
		}
		s := src.Stats()
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits), name)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses), name)
		ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions), name)
		ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(s.Entries), name)
		ch <- prometheus.MustNewConstMetric(c.weight, prometheus.GaugeValue, float64(s.Weight), name)
		ch <- prometheus.MustNewConstMetric(c.maxWeight, prometheus.GaugeValue, float64(s.MaxWeight), name)
	}
}
