package config

import (
	"fmt"
	"time"

	"github.com/kbukum/iockit/logger"
	"github.com/kbukum/iockit/validation"
)

// Config is the complete configuration of an iockit process.
//
// Example config.yml:
//
//	base:
//	  name: iocctl
//	logging:
//	  level: debug
//	manifest:
//	  dir: ./modules
//	container:
//	  initialize: true
//	inspect:
//	  addr: ":8089"
type Config struct {
	Base          BaseConfig          `yaml:"base" mapstructure:"base" json:"base"`
	Logging       logger.Config       `yaml:"logging" mapstructure:"logging" json:"logging"`
	Container     ContainerConfig     `yaml:"container" mapstructure:"container" json:"container"`
	Manifest      ManifestConfig      `yaml:"manifest" mapstructure:"manifest" json:"manifest"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability" json:"observability"`
	Inspect       InspectConfig       `yaml:"inspect" mapstructure:"inspect" json:"inspect"`
}

// ContainerConfig controls container start-up.
type ContainerConfig struct {
	// Initialize runs the eager resolution pass after manifests are loaded.
	Initialize bool `yaml:"initialize" mapstructure:"initialize" json:"initialize"`
	// FailOnUnresolved turns a failed initialization into a process error.
	FailOnUnresolved bool `yaml:"fail_on_unresolved" mapstructure:"fail_on_unresolved" json:"fail_on_unresolved"`
}

// ManifestConfig locates module manifests.
type ManifestConfig struct {
	Dir        string   `yaml:"dir" mapstructure:"dir" json:"dir"`
	Flat       bool     `yaml:"flat" mapstructure:"flat" json:"flat"`
	Extensions []string `yaml:"extensions" mapstructure:"extensions" json:"extensions" validate:"dive,oneof=.yaml .yml .hcl"`
}

// ObservabilityConfig configures OTLP export of container telemetry.
type ObservabilityConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint" json:"endpoint" validate:"omitempty,hostname_port"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure" json:"insecure"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate" json:"sample_rate" validate:"min=0,max=1"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval" json:"interval"`
}

// InspectConfig configures the introspection HTTP API.
type InspectConfig struct {
	// Disabled keeps serve from starting the HTTP server.
	Disabled bool   `yaml:"disabled" mapstructure:"disabled" json:"disabled"`
	Addr     string `yaml:"addr" mapstructure:"addr" json:"addr" validate:"omitempty,hostname_port"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Base.Name == "" {
		c.Base.Name = "iocctl"
	}
	c.Base.ApplyDefaults()
	c.Logging.ApplyDefaults()
	if c.Manifest.Dir == "" {
		c.Manifest.Dir = "."
	}
	if len(c.Manifest.Extensions) == 0 {
		c.Manifest.Extensions = []string{".yaml", ".yml", ".hcl"}
	}
	if c.Observability.Endpoint == "" {
		c.Observability.Endpoint = "localhost:4318"
	}
	if c.Observability.SampleRate == 0 {
		c.Observability.SampleRate = 1.0
	}
	if c.Observability.Interval == 0 {
		c.Observability.Interval = 15 * time.Second
	}
	if c.Inspect.Addr == "" {
		c.Inspect.Addr = ":8089"
	}
}

// Validate checks the section invariants and struct tags.
func (c *Config) Validate() error {
	if err := c.Base.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return validation.Validate(c)
}

// Load reads the configuration for serviceName, applies defaults and
// validates the result.
func Load(serviceName string, opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Base.Name == "" {
		cfg.Base.Name = serviceName
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
