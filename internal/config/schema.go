// Package config handles YAML configuration loading, environment variable
// expansion, defaults and validation for the dashgram CLI.
package config

import "time"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// ProjectID and AccessKey identify the Dashgram project.
	ProjectID string `yaml:"project_id"`
	AccessKey string `yaml:"access_key"`

	// APIURL overrides the collector base URL (self-hosted collectors).
	APIURL string `yaml:"api_url,omitempty"`

	// Origin overrides the auto-detected origin string.
	Origin string `yaml:"origin,omitempty"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxInFlight bounds concurrent asynchronous tracking requests.
	MaxInFlight int `yaml:"max_in_flight,omitempty"`

	Relay     RelayConfig     `yaml:"relay,omitempty"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`
}

// RelayConfig configures the webhook relay started by `dashgram serve`.
type RelayConfig struct {
	Bind            string        `yaml:"bind,omitempty"`
	WebhookPath     string        `yaml:"webhook_path,omitempty"`
	SecretToken     string        `yaml:"secret_token,omitempty"`
	ForwardURL      string        `yaml:"forward_url,omitempty"`
	ReadTimeout     time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout    time.Duration `yaml:"write_timeout,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// TelemetryConfig configures metrics and tracing export.
type TelemetryConfig struct {
	// Metrics exposes Prometheus metrics on the relay's /metrics route.
	Metrics bool `yaml:"metrics,omitempty"`

	// OTLPEndpoint enables OTLP/HTTP trace export (host:port).
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
	OTLPInsecure bool   `yaml:"otlp_insecure,omitempty"`
	ServiceName  string `yaml:"service_name,omitempty"`
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = 64
	}
	if c.Relay.Bind == "" {
		c.Relay.Bind = "127.0.0.1:8080"
	}
	if c.Relay.WebhookPath == "" {
		c.Relay.WebhookPath = "/telegram/webhook"
	}
	if c.Relay.ReadTimeout <= 0 {
		c.Relay.ReadTimeout = 10 * time.Second
	}
	if c.Relay.WriteTimeout <= 0 {
		c.Relay.WriteTimeout = 30 * time.Second
	}
	if c.Relay.ShutdownTimeout <= 0 {
		c.Relay.ShutdownTimeout = 5 * time.Second
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "dashgram-relay"
	}
}
