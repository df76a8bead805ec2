package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	// EnvSourcePassword : overrides source.password when set
	EnvSourcePassword = "DBMIGRATE_SOURCE_PASSWORD"
	// EnvTargetPassword : overrides target.password when set
	EnvTargetPassword = "DBMIGRATE_TARGET_PASSWORD"

	defaultBatchRecordSize = 10000
	defaultMaxConcurrency  = 1
	defaultLogLevel        = "info"
)

// TableConfig : a table to migrate with an optional chunk size override
type TableConfig struct {
	Name      string `json:"name" yaml:"name"`
	ChunkSize int    `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
}

// Config : configuration for the job
type Config struct {
	MaxConcurrency  int           `json:"max_concurrency" yaml:"max_concurrency"`
	BatchRecordSize int           `json:"max_batch_record_size" yaml:"max_batch_record_size"`
	MaxRetry        int           `json:"max_retry" yaml:"max_retry"`
	Source          Endpoint      `json:"source" yaml:"source"`
	Target          Endpoint      `json:"target" yaml:"target"`
	Tables          []TableConfig `json:"tables,omitempty" yaml:"tables,omitempty"`
	Output          string        `json:"output,omitempty" yaml:"output,omitempty"`
	StateDB         string        `json:"state_db,omitempty" yaml:"state_db,omitempty"`
	LogLevel        string        `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// Load reads a job file from fs. JSON job files are accepted as well since
// JSON is valid YAML. Defaults and password env overrides are applied.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("config: could not read %s : %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: could not parse %s : %w", path, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func GetDefaultConfig() *Config {
	cfg := &Config{}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvSourcePassword); v != "" {
		cfg.Source.Password = v
	}
	if v := os.Getenv(EnvTargetPassword); v != "" {
		cfg.Target.Password = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = defaultMaxConcurrency
	}
	if cfg.BatchRecordSize == 0 {
		cfg.BatchRecordSize = defaultBatchRecordSize
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
}

// Validate reports every problem with the job at once.
func (c *Config) Validate() error {
	var result error
	if c.MaxConcurrency < 1 {
		result = multierror.Append(result, fmt.Errorf("max_concurrency must be at least 1, got %d", c.MaxConcurrency))
	}
	if c.BatchRecordSize < 1 {
		result = multierror.Append(result, fmt.Errorf("max_batch_record_size must be positive, got %d", c.BatchRecordSize))
	}
	if c.MaxRetry < 0 {
		result = multierror.Append(result, fmt.Errorf("max_retry must not be negative, got %d", c.MaxRetry))
	}
	if err := c.Source.Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("source : %w", err))
	}
	if err := c.Target.Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("target : %w", err))
	}
	for i, t := range c.Tables {
		if t.Name == "" {
			result = multierror.Append(result, fmt.Errorf("tables[%d] : name is required", i))
		}
		if t.ChunkSize < 0 {
			result = multierror.Append(result, fmt.Errorf("tables[%d] : chunk_size must not be negative, got %d", i, t.ChunkSize))
		}
	}
	return result
}

// ErrNoDialect : endpoint has no dialect tag
var ErrNoDialect = errors.New("dialect is required")
