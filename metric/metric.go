// Package metric exposes channel traffic counters as Prometheus
// metrics.
package metric

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JairusSW/wipc/channel"
)

var (
	framesInDesc = prometheus.NewDesc(
		prometheus.BuildFQName("wipc", "channel", "frames_in_total"),
		"Frames decoded from the transport.",
		[]string{"channel"}, nil,
	)
	bytesInDesc = prometheus.NewDesc(
		prometheus.BuildFQName("wipc", "channel", "bytes_in_total"),
		"Bytes read from the transport.",
		[]string{"channel"}, nil,
	)
	passRunsDesc = prometheus.NewDesc(
		prometheus.BuildFQName("wipc", "channel", "passthrough_runs_total"),
		"Runs of non-frame bytes delivered.",
		[]string{"channel"}, nil,
	)
	passBytesDesc = prometheus.NewDesc(
		prometheus.BuildFQName("wipc", "channel", "passthrough_bytes_total"),
		"Non-frame bytes delivered.",
		[]string{"channel"}, nil,
	)
	framesOutDesc = prometheus.NewDesc(
		prometheus.BuildFQName("wipc", "channel", "frames_out_total"),
		"Frames encoded onto the transport.",
		[]string{"channel"}, nil,
	)
	bytesOutDesc = prometheus.NewDesc(
		prometheus.BuildFQName("wipc", "channel", "bytes_out_total"),
		"Bytes written to the transport.",
		[]string{"channel"}, nil,
	)
)

// Collector exposes the traffic counters of tracked channels, labeled
// by channel id. It implements prometheus.Collector; counter values
// are read from each channel's Stats snapshot at scrape time.
type Collector struct {
	mu       sync.RWMutex
	channels map[string]*channel.Channel
}

func NewCollector() *Collector {
	return &Collector{channels: make(map[string]*channel.Channel)}
}

// Track adds c to the collector.
func (col *Collector) Track(c *channel.Channel) {
	col.mu.Lock()
	defer col.mu.Unlock()
	col.channels[c.ID()] = c
}

// Forget removes c from the collector. Its series stop being exported.
func (col *Collector) Forget(c *channel.Channel) {
	col.mu.Lock()
	defer col.mu.Unlock()
	delete(col.channels, c.ID())
}

func (col *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- framesInDesc
	ch <- bytesInDesc
	ch <- passRunsDesc
	ch <- passBytesDesc
	ch <- framesOutDesc
	ch <- bytesOutDesc
}

func (col *Collector) Collect(ch chan<- prometheus.Metric) {
	col.mu.RLock()
	defer col.mu.RUnlock()
	for id, c := range col.channels {
		s := c.Stats()
		ch <- prometheus.MustNewConstMetric(framesInDesc, prometheus.CounterValue, float64(s.FramesIn), id)
		ch <- prometheus.MustNewConstMetric(bytesInDesc, prometheus.CounterValue, float64(s.BytesIn), id)
		ch <- prometheus.MustNewConstMetric(passRunsDesc, prometheus.CounterValue, float64(s.PassthroughRuns), id)
		ch <- prometheus.MustNewConstMetric(passBytesDesc, prometheus.CounterValue, float64(s.PassthroughBytes), id)
		ch <- prometheus.MustNewConstMetric(framesOutDesc, prometheus.CounterValue, float64(s.FramesOut), id)
		ch <- prometheus.MustNewConstMetric(bytesOutDesc, prometheus.CounterValue, float64(s.BytesOut), id)
	}
}
