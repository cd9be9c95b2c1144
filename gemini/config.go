package gemini

import (
	"time"

	"github.com/kbukum/lecturly/resilience"
	"github.com/kbukum/lecturly/validation"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"

	BackendREST = "rest"
	BackendSDK  = "sdk"
)

// Config configures access to the Gemini API.
type Config struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
	// Backend selects the raw REST protocol or the genai SDK.
	Backend string `yaml:"backend" mapstructure:"backend"`

	InitTimeout     time.Duration `yaml:"init_timeout" mapstructure:"init_timeout"`
	TransferTimeout time.Duration `yaml:"transfer_timeout" mapstructure:"transfer_timeout"`
	GenerateTimeout time.Duration `yaml:"generate_timeout" mapstructure:"generate_timeout"`
	ListTimeout     time.Duration `yaml:"list_timeout" mapstructure:"list_timeout"`

	CircuitBreaker BreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
}

// BreakerConfig configures the optional breaker around generation calls.
type BreakerConfig struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	MaxFailures int           `yaml:"max_failures" mapstructure:"max_failures"`
	Cooldown    time.Duration `yaml:"cooldown" mapstructure:"cooldown"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Backend == "" {
		c.Backend = BackendREST
	}
	if c.InitTimeout <= 0 {
		c.InitTimeout = 30 * time.Second
	}
	if c.TransferTimeout <= 0 {
		c.TransferTimeout = 60 * time.Second
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = 120 * time.Second
	}
	if c.ListTimeout <= 0 {
		c.ListTimeout = 30 * time.Second
	}
	if c.CircuitBreaker.MaxFailures <= 0 {
		c.CircuitBreaker.MaxFailures = 5
	}
	if c.CircuitBreaker.Cooldown <= 0 {
		c.CircuitBreaker.Cooldown = 30 * time.Second
	}
}

// Validate checks the configuration. A missing API key is fatal at startup.
func (c *Config) Validate() error {
	return validation.New().
		Required("gemini.api_key", c.APIKey).
		Required("gemini.model", c.Model).
		OneOf("gemini.backend", c.Backend, BackendREST, BackendSDK).
		Positive("gemini.generate_timeout", int64(c.GenerateTimeout)).
		Validate()
}

// breaker returns the resilience config for generation, or nil when disabled.
func (c *Config) breaker() *resilience.CircuitBreakerConfig {
	if !c.CircuitBreaker.Enabled {
		return nil
	}
	return &resilience.CircuitBreakerConfig{
		Name:        "gemini.generate",
		MaxFailures: c.CircuitBreaker.MaxFailures,
		Timeout:     c.CircuitBreaker.Cooldown,
	}
}
