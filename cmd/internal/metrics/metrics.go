package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

type Metrics struct {
	registry *prometheus.Registry

	Dispatched   *prometheus.CounterVec
	ScanDuration prometheus.Histogram
	ScanBatch    prometheus.Gauge
	ShareViews   prometheus.Counter
	Generated    prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appointease",
			Name:      "notifications_dispatched_total",
			Help:      "Notifications dispatched, by channel and result.",
		}, []string{"channel", "result"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "appointease",
			Name:      "scan_duration_seconds",
			Help:      "Duration of one due-notification scan.",
			Buckets:   prometheus.DefBuckets,
		}),
		ScanBatch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "appointease",
			Name:      "scan_batch_size",
			Help:      "Due notifications picked up by the last scan.",
		}),
		ShareViews: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "appointease",
			Name:      "share_views_total",
			Help:      "Public views of shared appointments.",
		}),
		Generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "appointease",
			Name:      "notifications_generated_total",
			Help:      "Pending notifications created by the generator.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Dispatched,
		m.ScanDuration,
		m.ScanBatch,
		m.ShareViews,
		m.Generated,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
