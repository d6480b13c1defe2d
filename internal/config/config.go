// Package config loads and validates the service configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Log       LogConfig       `yaml:"log"`
	DB        DBConfig        `yaml:"db"`
	GitHub    GitHubConfig    `yaml:"github"`
	Tracker   TrackerConfig   `yaml:"tracker"`
	Registrar RegistrarConfig `yaml:"registrar"`
	Archiver  ArchiverConfig  `yaml:"archiver"`
	Views     ViewsConfig     `yaml:"views"`
	Server    ServerConfig    `yaml:"server"`
	Events    EventsConfig    `yaml:"events"`
}

// DBConfig holds the database connection settings.
type DBConfig struct {
	URL string `yaml:"url"`
}

// GitHubConfig holds the credential pool used when talking to the GitHub API.
type GitHubConfig struct {
	Tokens []string `yaml:"tokens"`
}

// TrackerConfig controls how repositories are linted.
type TrackerConfig struct {
	Concurrency       int    `yaml:"concurrency"`
	Schedule          string `yaml:"schedule"`
	ScorecardBin      string `yaml:"scorecard_bin"`
	RepositoryTimeout string `yaml:"repository_timeout"`
}

// RegistrarConfig controls catalogue reconciliation.
type RegistrarConfig struct {
	Concurrency       int    `yaml:"concurrency"`
	Schedule          string `yaml:"schedule"`
	FoundationTimeout string `yaml:"foundation_timeout"`
}

// ArchiverConfig controls snapshot maintenance.
type ArchiverConfig struct {
	Schedule string `yaml:"schedule"`
}

// ViewsConfig controls how often buffered page views are flushed.
type ViewsConfig struct {
	FlushFrequency string `yaml:"flush_frequency"`
	BufferSize     int    `yaml:"buffer_size"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// EventsConfig holds the optional NATS notification settings. Events are
// disabled when NATSURL is empty.
type EventsConfig struct {
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load env files if present; existing environment wins, and .env.local
	// overrides .env.
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Note: %s couldn't be loaded: %v\n", name, err)
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes configuration from raw YAML, expanding environment
// variables referenced in the content before unmarshaling.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
