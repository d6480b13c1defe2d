package config

import "time"

// The duration accessors below parse fields Validate has already checked;
// an empty or unparseable value comes back as zero, which callers treat as
// "unset".

// Timeout returns the per-repository lint deadline.
func (c TrackerConfig) Timeout() time.Duration { return parseDuration(c.RepositoryTimeout) }

// Interval returns the tracker schedule, zero when tracking is not scheduled.
func (c TrackerConfig) Interval() time.Duration { return parseDuration(c.Schedule) }

// Timeout returns the per-foundation reconcile deadline.
func (c RegistrarConfig) Timeout() time.Duration { return parseDuration(c.FoundationTimeout) }

// Interval returns the registrar schedule, zero when not scheduled.
func (c RegistrarConfig) Interval() time.Duration { return parseDuration(c.Schedule) }

// Interval returns the archiver schedule, zero when not scheduled.
func (c ArchiverConfig) Interval() time.Duration { return parseDuration(c.Schedule) }

// Interval returns how often buffered views are flushed.
func (c ViewsConfig) Interval() time.Duration { return parseDuration(c.FlushFrequency) }

func parseDuration(value string) time.Duration {
	if value == "" {
		return 0
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}
