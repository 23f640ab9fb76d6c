package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nao1215/siteaudit/internal/crawler"
	"github.com/nao1215/siteaudit/internal/model"
)

// Namespace prefixes every metric name.
const Namespace = "siteaudit"

// Metrics holds the collectors of one process.
// It satisfies pipeline.Recorder and crawler.FetchObserver.
type Metrics struct {
	PagesTotal        *prometheus.CounterVec
	IssuesTotal       *prometheus.CounterVec
	LinkCacheHits     prometheus.Counter
	LinkCacheMisses   prometheus.Counter
	LinkCacheEntries  prometheus.Gauge
	FetchDurationSecs *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// A nil reg registers with a fresh private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		PagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "pages_total",
				Help:      "Pages audited, labeled by fetch outcome.",
			},
			[]string{"outcome"},
		),
		IssuesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "issues_total",
				Help:      "Issues found, labeled by issue type.",
			},
			[]string{"kind"},
		),
		LinkCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "link_cache",
			Name:      "hits_total",
			Help:      "Link status lookups answered from the cache.",
		}),
		LinkCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "link_cache",
			Name:      "misses_total",
			Help:      "Link status lookups that fetched the URL.",
		}),
		LinkCacheEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "link_cache",
			Name:      "entries",
			Help:      "Distinct URLs in the link status cache of the last run.",
		}),
		FetchDurationSecs: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of page and link fetches in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"target", "outcome"},
		),
	}
}

// RecordPage counts one finished page and its issues.
func (m *Metrics) RecordPage(outcome model.FetchKind, issues []model.Issue) {
	m.PagesTotal.WithLabelValues(outcome.String()).Inc()
	for _, issue := range issues {
		m.IssuesTotal.WithLabelValues(issue.Kind.String()).Inc()
	}
}

// RecordCache adds the link cache statistics of a finished run.
func (m *Metrics) RecordCache(stats crawler.CacheStats) {
	m.LinkCacheHits.Add(float64(stats.Hits))
	m.LinkCacheMisses.Add(float64(stats.Misses))
	m.LinkCacheEntries.Set(float64(stats.Entries))
}

// ObserveFetch records the duration of one request.
func (m *Metrics) ObserveFetch(target string, kind model.FetchKind, elapsed time.Duration) {
	m.FetchDurationSecs.WithLabelValues(target, kind.String()).Observe(elapsed.Seconds())
}
