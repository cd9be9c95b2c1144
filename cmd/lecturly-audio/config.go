package main

import (
	"fmt"

	"github.com/kbukum/lecturly/config"
	"github.com/kbukum/lecturly/gemini"
	"github.com/kbukum/lecturly/observability"
	"github.com/kbukum/lecturly/server"
)

const serviceName = "lecturly-audio"

// healthServiceName is the service name reported by /health.
const healthServiceName = "lecturly-audio-backend"

// Config is the lecturly-audio configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server  server.Config        `yaml:"server" mapstructure:"server"`
	Gemini  gemini.Config        `yaml:"gemini" mapstructure:"gemini"`
	Tracing observability.Config `yaml:"tracing" mapstructure:"tracing"`
}

// ApplyDefaults fills in defaults for every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Gemini.ApplyDefaults()
	c.Tracing.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Gemini.Validate(); err != nil {
		return fmt.Errorf("gemini: %w", err)
	}
	return c.Tracing.Validate()
}

// defaults registers every key so environment variables such as
// GEMINI_API_KEY or SERVER_PORT resolve even without a config file.
func defaults() map[string]any {
	return map[string]any{
		"name":                                serviceName,
		"environment":                         "development",
		"version":                             "",
		"debug":                               false,
		"logging.level":                       "info",
		"logging.format":                      "console",
		"logging.output":                      "stdout",
		"server.host":                         "0.0.0.0",
		"server.port":                         8000,
		"server.read_timeout":                 60,
		"server.write_timeout":                240,
		"server.idle_timeout":                 120,
		"server.max_body_size":                "25MB",
		"gemini.api_key":                      "",
		"gemini.base_url":                     gemini.DefaultBaseURL,
		"gemini.model":                        gemini.DefaultModel,
		"gemini.backend":                      gemini.BackendREST,
		"gemini.init_timeout":                 "30s",
		"gemini.transfer_timeout":             "60s",
		"gemini.generate_timeout":             "120s",
		"gemini.list_timeout":                 "30s",
		"gemini.circuit_breaker.enabled":      false,
		"gemini.circuit_breaker.max_failures": 5,
		"gemini.circuit_breaker.cooldown":     "30s",
		"tracing.enabled":                     false,
		"tracing.endpoint":                    "localhost:4318",
		"tracing.insecure":                    true,
		"tracing.sample_rate":                 1.0,
		"tracing.metric_interval":             "15s",
	}
}

func loadConfig() (*Config, error) {
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, config.WithDefaults(defaults())); err != nil {
		return nil, err
	}
	return &cfg, nil
}
