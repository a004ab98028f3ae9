// Package config loads and validates the toolkit configuration from a
// YAML file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ocilift/ocilift/pkg/telemetry"
	"github.com/ocilift/ocilift/pkg/workreq"
)

// Backend names accepted in configuration.
const (
	BackendSDK = "sdk"
	BackendCLI = "cli"
)

// Config is the full toolkit configuration.
type Config struct {
	// Auth configures credential resolution for the cloud control plane.
	Auth AuthConfig `yaml:"auth"`

	// CompartmentID is the default compartment when a call names none.
	CompartmentID string `yaml:"compartment_id"`

	// Region overrides the region from the credential profile.
	Region string `yaml:"region"`

	// Backends configures the execution backends and their ordering.
	Backends BackendsConfig `yaml:"backends"`

	// Tracking bounds the work request poll loop.
	Tracking workreq.Config `yaml:"tracking"`

	// Policy configures the action guard.
	Policy PolicyConfig `yaml:"policy"`

	// Telemetry configures logging, tracing, and metrics.
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// AuthConfig configures credential resolution.
type AuthConfig struct {
	// ConfigFile is the path to the provider credential file. Empty
	// means the provider default (~/.oci/config).
	ConfigFile string `yaml:"config_file"`

	// Profile selects a profile within the credential file.
	Profile string `yaml:"profile"`
}

// BackendsConfig configures the execution backends.
type BackendsConfig struct {
	// Primary names the backend tried first.
	Primary string `yaml:"primary" validate:"required,oneof=sdk cli"`

	// Fallback names the backend tried when the primary is unavailable.
	// Empty disables fallback.
	Fallback string `yaml:"fallback" validate:"omitempty,oneof=sdk cli"`

	// CallTimeout bounds every individual backend call.
	CallTimeout time.Duration `yaml:"call_timeout" validate:"min=0"`

	// CLI configures the CLI-backed backend.
	CLI CLIConfig `yaml:"cli"`
}

// UnmarshalYAML decodes the backends section, accepting human-readable
// timeouts like "60s". Keys absent from the document keep their current
// values.
func (b *BackendsConfig) UnmarshalYAML(value *yaml.Node) error {
	raw := struct {
		Primary     *string    `yaml:"primary"`
		Fallback    *string    `yaml:"fallback"`
		CallTimeout *string    `yaml:"call_timeout"`
		CLI         *CLIConfig `yaml:"cli"`
	}{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Primary != nil {
		b.Primary = *raw.Primary
	}
	if raw.Fallback != nil {
		b.Fallback = *raw.Fallback
	}
	if raw.CallTimeout != nil {
		d, err := time.ParseDuration(*raw.CallTimeout)
		if err != nil {
			return fmt.Errorf("invalid call_timeout: %w", err)
		}
		b.CallTimeout = d
	}
	if raw.CLI != nil {
		b.CLI = *raw.CLI
	}
	return nil
}

// CLIConfig configures the CLI-backed execution backend.
type CLIConfig struct {
	// Binary is the CLI executable name or path.
	Binary string `yaml:"binary"`

	// SuppressLabelWarning silences the CLI's label warning via its
	// environment.
	SuppressLabelWarning bool `yaml:"suppress_label_warning"`
}

// PolicyConfig configures the action guard.
type PolicyConfig struct {
	// Enabled turns the guard on.
	Enabled bool `yaml:"enabled"`

	// Dir holds additional rego policy files. The builtin protection
	// policy is always loaded when the guard is enabled.
	Dir string `yaml:"dir"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Backends: BackendsConfig{
			Primary:     BackendSDK,
			Fallback:    BackendCLI,
			CallTimeout: 60 * time.Second,
			CLI: CLIConfig{
				Binary:               "oci",
				SuppressLabelWarning: true,
			},
		},
		Tracking: workreq.DefaultConfig(),
		Policy: PolicyConfig{
			Enabled: true,
		},
		Telemetry: *telemetry.DefaultConfig(),
	}
}

// Load reads configuration from path, applies environment overrides,
// and validates the result. An empty path loads defaults plus
// environment overrides only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func (c *Config) applyEnv() {
	if v := os.Getenv("OCILIFT_COMPARTMENT_ID"); v != "" {
		c.CompartmentID = v
	} else if v := os.Getenv("OCI_COMPARTMENT_ID"); v != "" {
		c.CompartmentID = v
	}
	if v := os.Getenv("OCILIFT_REGION"); v != "" {
		c.Region = v
	}
	if v := os.Getenv("OCILIFT_PROFILE"); v != "" {
		c.Auth.Profile = v
	}
	if v := os.Getenv("OCILIFT_CONFIG_FILE"); v != "" {
		c.Auth.ConfigFile = v
	}
	if v := os.Getenv("OCILIFT_PRIMARY_BACKEND"); v != "" {
		c.Backends.Primary = v
	}
	if v := os.Getenv("OCILIFT_FALLBACK_BACKEND"); v != "" {
		c.Backends.Fallback = v
	}
	if v := os.Getenv("OCILIFT_LOG_LEVEL"); v != "" {
		c.Telemetry.Logging.Level = v
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Backends.Fallback != "" && c.Backends.Fallback == c.Backends.Primary {
		return fmt.Errorf("invalid configuration: fallback backend %q duplicates the primary", c.Backends.Fallback)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	return nil
}
