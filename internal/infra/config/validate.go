package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
// An empty wallet is allowed here; commands that need one check it themselves.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateClient(cfg, ve)
	validateBreaker(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateClient(cfg *Config, ve *ValidationError) {
	c := cfg.Client
	if strings.HasPrefix(c.Wallet, "0x") && !common.IsHexAddress(c.Wallet) {
		ve.Add("client.wallet %q is not a valid hex address", c.Wallet)
	}
	if c.URL == "" {
		ve.Add("client.url must not be empty")
	} else if u, err := url.Parse(c.URL); err != nil || u.Host == "" {
		ve.Add("client.url %q is not an absolute URL", c.URL)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		ve.Add("client.url scheme must be http or https, got %q", u.Scheme)
	}
	if strings.Contains(c.Version, "/") {
		ve.Add("client.version must not contain '/'")
	}
	if c.Timeout < 0 {
		ve.Add("client.timeout must be >= 0")
	}
}

func validateBreaker(cfg *Config, ve *ValidationError) {
	if !cfg.Breaker.Enabled {
		return
	}
	if cfg.Breaker.MaxFailures == 0 {
		ve.Add("breaker.max_failures must be > 0 when the breaker is enabled")
	}
	if cfg.Breaker.Timeout < 0 {
		ve.Add("breaker.timeout must be >= 0")
	}
	if cfg.Breaker.Interval < 0 {
		ve.Add("breaker.interval must be >= 0")
	}
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "warning": true, "error": true,
}

var validLogFormats = map[string]bool{
	"text": true, "json": true,
}

func validateLogger(cfg *Config, ve *ValidationError) {
	if !validLogLevels[strings.ToLower(cfg.Logger.Level)] {
		ve.Add("logger.level %q is not one of debug, info, warn, error", cfg.Logger.Level)
	}
	if !validLogFormats[strings.ToLower(cfg.Logger.Format)] {
		ve.Add("logger.format %q is not one of text, json", cfg.Logger.Format)
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	switch cfg.Tracer.Exporter {
	case "", "noop", "stdout":
	default:
		ve.Add("tracer.exporter %q is not supported (want noop or stdout)", cfg.Tracer.Exporter)
	}
}
