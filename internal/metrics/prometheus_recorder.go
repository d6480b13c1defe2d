package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	jobDuration        *prom.HistogramVec
	jobOutcomes        *prom.CounterVec
	lintDuration       *prom.HistogramVec
	repositoryResults  *prom.CounterVec
	trackerConcurrency prom.Gauge
	ratingChanges      *prom.CounterVec
	viewsFlushed       prom.Counter
	viewsDropped       prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.jobDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "clomonitor",
			Name:      "job_duration_seconds",
			Help:      "Duration of one background job run",
			Buckets:   prom.DefBuckets,
		}, []string{"job"})
		pr.jobOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "clomonitor",
			Name:      "job_outcomes_total",
			Help:      "Job run counts by outcome",
		}, []string{"job", "result"})
		pr.lintDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "clomonitor",
			Name:      "lint_repository_duration_seconds",
			Help:      "Duration of individual repository lint operations",
			Buckets:   prom.DefBuckets,
		}, []string{"foundation", "result"})
		pr.repositoryResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "clomonitor",
			Name:      "repository_results_total",
			Help:      "Tracked repository results by outcome",
		}, []string{"result"})
		pr.trackerConcurrency = prom.NewGauge(prom.GaugeOpts{
			Namespace: "clomonitor",
			Name:      "tracker_concurrency",
			Help:      "Configured repository worker concurrency",
		})
		pr.ratingChanges = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "clomonitor",
			Name:      "rating_changes_total",
			Help:      "Project rating letter changes",
		}, []string{"foundation"})
		pr.viewsFlushed = prom.NewCounter(prom.CounterOpts{
			Namespace: "clomonitor",
			Name:      "views_flushed_total",
			Help:      "View count rows written to the database",
		})
		pr.viewsDropped = prom.NewCounter(prom.CounterOpts{
			Namespace: "clomonitor",
			Name:      "views_dropped_total",
			Help:      "Tracked views dropped because the buffer was full",
		})
		reg.MustRegister(pr.jobDuration, pr.jobOutcomes, pr.lintDuration, pr.repositoryResults, pr.trackerConcurrency, pr.ratingChanges, pr.viewsFlushed, pr.viewsDropped)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveJobDuration(job string, d time.Duration) {
	if p == nil || p.jobDuration == nil {
		return
	}
	p.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncJobOutcome(job string, result ResultLabel) {
	if p == nil || p.jobOutcomes == nil {
		return
	}
	p.jobOutcomes.WithLabelValues(job, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveLintDuration(foundation string, d time.Duration, success bool) {
	if p == nil || p.lintDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.lintDuration.WithLabelValues(foundation, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRepositoryResult(result ResultLabel) {
	if p == nil || p.repositoryResults == nil {
		return
	}
	p.repositoryResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) SetTrackerConcurrency(n int) {
	if p == nil || p.trackerConcurrency == nil {
		return
	}
	p.trackerConcurrency.Set(float64(n))
}

func (p *PrometheusRecorder) IncRatingChange(foundation string) {
	if p == nil || p.ratingChanges == nil {
		return
	}
	p.ratingChanges.WithLabelValues(foundation).Inc()
}

func (p *PrometheusRecorder) AddViewsFlushed(n int) {
	if p == nil || p.viewsFlushed == nil {
		return
	}
	p.viewsFlushed.Add(float64(n))
}

func (p *PrometheusRecorder) IncViewsDropped() {
	if p == nil || p.viewsDropped == nil {
		return
	}
	p.viewsDropped.Inc()
}
