package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// JobConfig describes a single ingestion job: where records come from,
// how they are written, and how the run is observed.
type JobConfig struct {
	// Name identifies the job instance
	Name string `yaml:"name" json:"name"`

	// Store holds the flat connection settings for the target document store
	Store Settings `yaml:"store" json:"store"`

	// Import holds the write pipeline options
	Import ImportConfig `yaml:"import" json:"import"`

	// Logging configures structured log output
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ImportConfig contains the batched write pipeline options
type ImportConfig struct {
	// Source is the path to a JSON-lines file of input records
	Source string `yaml:"source" json:"source"`
	// BatchSize bounds the number of concurrently in-flight writes
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// InterBatchDelay pauses the pipeline between full batches
	InterBatchDelay time.Duration `yaml:"inter_batch_delay" json:"inter_batch_delay"`
	// RootField, when set, names the single row field whose string content
	// becomes the document body
	RootField string `yaml:"root_field" json:"root_field"`
	// Upsert selects create-or-replace semantics instead of create
	Upsert bool `yaml:"upsert" json:"upsert"`
	// RateLimitPerSec limits record submissions per second (0 = unlimited)
	RateLimitPerSec int `yaml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
}

// LoggingConfig configures the zap logger for the job
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Development bool   `yaml:"development" json:"development"`
	Encoding    string `yaml:"encoding" json:"encoding"`
}

// NewJobConfig returns a JobConfig with production defaults
func NewJobConfig(name string) *JobConfig {
	return &JobConfig{
		Name:  name,
		Store: make(Settings),
		Import: ImportConfig{
			BatchSize:       500,
			InterBatchDelay: 0,
			Upsert:          false,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Validate checks the job configuration for correctness
func (jc *JobConfig) Validate() error {
	if jc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if jc.Import.BatchSize < 1 {
		return fmt.Errorf("import.batch_size must be at least 1")
	}
	if jc.Import.InterBatchDelay < 0 {
		return fmt.Errorf("import.inter_batch_delay cannot be negative")
	}
	if jc.Import.RateLimitPerSec < 0 {
		return fmt.Errorf("import.rate_limit_per_sec cannot be negative")
	}
	return nil
}

// Load loads a job configuration from a YAML file
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Substitute environment variables
	content := string(data)
	content = substituteEnvVars(content)

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// Save saves a job configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
