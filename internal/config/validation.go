package config

import (
	"fmt"
	"time"
)

// Validate checks field values and cross-field constraints. Schedules are
// optional (one-shot commands run without them); durations must parse and
// be positive when set.
func (c *Config) Validate() error {
	if c.Tracker.Concurrency < 1 {
		return fmt.Errorf("tracker concurrency must be at least 1, got %d", c.Tracker.Concurrency)
	}
	if c.Registrar.Concurrency < 1 {
		return fmt.Errorf("registrar concurrency must be at least 1, got %d", c.Registrar.Concurrency)
	}
	if c.Views.BufferSize < 1 {
		return fmt.Errorf("views buffer size must be at least 1, got %d", c.Views.BufferSize)
	}

	durations := map[string]string{
		"tracker.repository_timeout":   c.Tracker.RepositoryTimeout,
		"registrar.foundation_timeout": c.Registrar.FoundationTimeout,
		"views.flush_frequency":        c.Views.FlushFrequency,
	}
	for field, value := range durations {
		if err := validateDuration(field, value, true); err != nil {
			return err
		}
	}

	schedules := map[string]string{
		"tracker.schedule":   c.Tracker.Schedule,
		"registrar.schedule": c.Registrar.Schedule,
		"archiver.schedule":  c.Archiver.Schedule,
	}
	for field, value := range schedules {
		if err := validateDuration(field, value, false); err != nil {
			return err
		}
	}

	return nil
}

// RequireDB is used by commands that need database access.
func (c *Config) RequireDB() error {
	if c.DB.URL == "" {
		return fmt.Errorf("db.url must be configured")
	}
	return nil
}

// RequireGitHubTokens is used by commands that lint repositories.
func (c *Config) RequireGitHubTokens() error {
	if len(c.GitHub.Tokens) == 0 {
		return fmt.Errorf("at least one GitHub token must be configured")
	}
	for i, t := range c.GitHub.Tokens {
		if t == "" {
			return fmt.Errorf("github.tokens[%d] is empty", i)
		}
	}
	return nil
}

func validateDuration(field, value string, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("%s must be set", field)
		}
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", field, value)
	}
	return nil
}
