package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "blogbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	postsBuilt    prom.Gauge
	postsSkipped  prom.Counter
	watchEvents   *prom.CounterVec
	injections    prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total site build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.postsBuilt = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "posts_built",
			Help:      "Number of posts rendered by the last successful build",
		})
		pr.postsSkipped = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "posts_skipped_total",
			Help:      "Posts skipped for missing required frontmatter",
		})
		pr.watchEvents = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watch_events_total",
			Help:      "Filesystem change events by handling result",
		}, []string{"result"})
		pr.injections = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "livereload_injections_total",
			Help:      "HTML responses that received the live-reload script",
		})
		reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.postsBuilt, pr.postsSkipped, pr.watchEvents, pr.injections)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetPostsBuilt(n int) {
	if p == nil || p.postsBuilt == nil {
		return
	}
	p.postsBuilt.Set(float64(n))
}

func (p *PrometheusRecorder) AddPostsSkipped(n int) {
	if p == nil || p.postsSkipped == nil || n <= 0 {
		return
	}
	p.postsSkipped.Add(float64(n))
}

func (p *PrometheusRecorder) IncWatchEvent(result WatchResultLabel) {
	if p == nil || p.watchEvents == nil {
		return
	}
	p.watchEvents.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncLiveReloadInjection() {
	if p == nil || p.injections == nil {
		return
	}
	p.injections.Inc()
}
