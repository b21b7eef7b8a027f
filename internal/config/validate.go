package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/flemzord/dashgram/pkg/dashgram"
)

// Validate checks the structural validity of a Config and reports every
// problem at once.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if cfg.ProjectID == "" {
		errs = append(errs, errors.New("config: project_id is required"))
	}
	if cfg.AccessKey == "" {
		errs = append(errs, errors.New("config: access_key is required"))
	}
	if cfg.APIURL != "" {
		if err := validateHTTPURL(cfg.APIURL); err != nil {
			errs = append(errs, fmt.Errorf("config: api_url: %w", err))
		}
	}

	errs = append(errs, validateRelay(cfg.Relay)...)
	return errors.Join(errs...)
}

func validateRelay(r RelayConfig) []error {
	var errs []error
	if _, err := net.ResolveTCPAddr("tcp", r.Bind); err != nil {
		errs = append(errs, fmt.Errorf("config: relay.bind: invalid address %q", r.Bind))
	}
	if !strings.HasPrefix(r.WebhookPath, "/") {
		errs = append(errs, fmt.Errorf("config: relay.webhook_path must start with '/', got %q", r.WebhookPath))
	}
	if r.ForwardURL != "" {
		if err := validateHTTPURL(r.ForwardURL); err != nil {
			errs = append(errs, fmt.Errorf("config: relay.forward_url: %w", err))
		}
	}
	return errs
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be a valid http/https URL, got %q", raw)
	}
	return nil
}

// ClientOptions translates the configuration into client options.
func (c *Config) ClientOptions() []dashgram.Option {
	opts := []dashgram.Option{
		dashgram.WithTimeout(c.Timeout),
		dashgram.WithMaxInFlight(c.MaxInFlight),
	}
	if c.APIURL != "" {
		opts = append(opts, dashgram.WithAPIURL(c.APIURL))
	}
	if c.Origin != "" {
		opts = append(opts, dashgram.WithOrigin(c.Origin))
	}
	return opts
}
