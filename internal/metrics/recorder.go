package metrics

import "time"

// ResultLabel enumerates result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultSkipped  ResultLabel = "skipped"
	ResultCanceled ResultLabel = "canceled"
)

// Job names used as metric labels.
const (
	JobTracker   = "tracker"
	JobRegistrar = "registrar"
	JobArchiver  = "archiver"
)

// Recorder defines observability hooks for the background jobs and the view
// pipeline. Implementations must be safe for concurrent use and must accept
// calls on a nil pointer receiver.
type Recorder interface {
	ObserveJobDuration(job string, d time.Duration)
	IncJobOutcome(job string, result ResultLabel)
	ObserveLintDuration(foundation string, d time.Duration, success bool)
	IncRepositoryResult(result ResultLabel)
	SetTrackerConcurrency(n int)
	IncRatingChange(foundation string)
	AddViewsFlushed(n int)
	IncViewsDropped()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveJobDuration(string, time.Duration)        {}
func (NoopRecorder) IncJobOutcome(string, ResultLabel)               {}
func (NoopRecorder) ObserveLintDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncRepositoryResult(ResultLabel)                 {}
func (NoopRecorder) SetTrackerConcurrency(int)                       {}
func (NoopRecorder) IncRatingChange(string)                          {}
func (NoopRecorder) AddViewsFlushed(int)                             {}
func (NoopRecorder) IncViewsDropped()                                {}
