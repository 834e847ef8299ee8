package ethpool

import (
	"log/slog"
	"net/http"
	"time"
)

// Default client settings.
const (
	DefaultURL     = "https://api.ethermine.org"
	DefaultVersion = "0"
	DefaultTimeout = 5 * time.Second
)

// Option configures a Client.
type Option func(*Client)

// WithOTP attaches a one-time password to every private call.
func WithOTP(otp string) Option {
	return func(c *Client) { c.cfg.OTP = otp }
}

// WithTimeout bounds each call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.cfg.Timeout = d }
}

// WithURL overrides the API base URL.
func WithURL(url string) Option {
	return func(c *Client) { c.cfg.URL = url }
}

// WithVersion sets the version segment of public paths.
func WithVersion(version string) Option {
	return func(c *Client) { c.cfg.Version = version }
}

// WithUserAgent replaces the client-identifying User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.cfg.UserAgent = ua }
}

// WithLogger sets a custom slog.Logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient sets the *http.Client used for dispatch.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMethods replaces the default method table.
func WithMethods(t MethodTable) Option {
	return func(c *Client) { c.methods = t }
}

// WithNonceSource replaces the nonce generator used for private calls.
func WithNonceSource(src NonceSource) Option {
	return func(c *Client) { c.nonces = src }
}

// WithCircuitBreaker routes dispatch through a circuit breaker.
func WithCircuitBreaker(cfg BreakerConfig) Option {
	return func(c *Client) { c.breakerCfg = &cfg }
}

// WithMetrics reports call outcomes to m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}
