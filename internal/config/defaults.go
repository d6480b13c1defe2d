package config

// Default values applied by Parse when the corresponding field is unset.
const (
	DefaultTrackerConcurrency   = 10
	DefaultRegistrarConcurrency = 4
	DefaultScorecardBin         = "scorecard"
	DefaultRepositoryTimeout    = "600s"
	DefaultFoundationTimeout    = "300s"
	DefaultFlushFrequency       = "300s"
	DefaultViewsBufferSize      = 100
	DefaultServerAddr           = ":8000"
	DefaultSubjectPrefix        = "clomonitor"
)

func (c *Config) applyDefaults() {
	c.Log.Level = NormalizeLogLevel(string(c.Log.Level))
	c.Log.Format = NormalizeLogFormat(string(c.Log.Format))

	if c.Tracker.Concurrency == 0 {
		c.Tracker.Concurrency = DefaultTrackerConcurrency
	}
	if c.Tracker.ScorecardBin == "" {
		c.Tracker.ScorecardBin = DefaultScorecardBin
	}
	if c.Tracker.RepositoryTimeout == "" {
		c.Tracker.RepositoryTimeout = DefaultRepositoryTimeout
	}
	if c.Registrar.Concurrency == 0 {
		c.Registrar.Concurrency = DefaultRegistrarConcurrency
	}
	if c.Registrar.FoundationTimeout == "" {
		c.Registrar.FoundationTimeout = DefaultFoundationTimeout
	}
	if c.Views.FlushFrequency == "" {
		c.Views.FlushFrequency = DefaultFlushFrequency
	}
	if c.Views.BufferSize == 0 {
		c.Views.BufferSize = DefaultViewsBufferSize
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = DefaultSubjectPrefix
	}
}
