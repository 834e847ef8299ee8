// Package ethpool is a client for the Ethermine-style mining pool HTTP API.
//
// Every call goes through a single entry point that resolves the method name
// to one of five fixed categories (public, private, pool, miner, worker),
// builds the request path, signs private requests, dispatches one HTTP
// attempt and normalizes the pool's error list into Go errors.
//
// Example:
//
//	client, err := ethpool.New("0x52bc44d5378309ee2abf1539bf71de1b7d7be3b5")
//	if err != nil {
//	    return err
//	}
//	stats, err := client.Call(ctx, "miner/:miner/currentStats", nil)
//
// Calls can also be issued without blocking:
//
//	pending := client.Go(ctx, "poolStats", nil, func(err error, result json.RawMessage) {
//	    // invoked exactly once
//	})
//	result, err := pending.Wait(ctx)
package ethpool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"ethpool/internal/infra/tracer"
)

// Config is the client configuration. It is fixed once New returns.
type Config struct {
	Wallet    string // wallet address or base64 API secret
	URL       string
	Version   string
	Timeout   time.Duration
	OTP       string
	UserAgent string
}

// Client issues calls against the pool API. It is safe for concurrent use;
// the only state shared between calls is the nonce source.
type Client struct {
	cfg        Config
	methods    MethodTable
	router     *router
	nonces     NonceSource
	httpClient *http.Client
	breakerCfg *BreakerConfig
	breaker    *breaker
	send       func(context.Context, dispatch) (*reply, error)
	metrics    *Metrics
	logger     *slog.Logger
}

// New creates a client for wallet. The wallet doubles as the API key for
// signed requests and as the default :miner identifier.
func New(wallet string, opts ...Option) (*Client, error) {
	c := &Client{
		cfg: Config{
			Wallet:    wallet,
			URL:       DefaultURL,
			Version:   DefaultVersion,
			Timeout:   DefaultTimeout,
			UserAgent: DefaultUserAgent,
		},
		methods: DefaultMethods(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if strings.TrimSpace(c.cfg.Wallet) == "" {
		return nil, newError("ethpool.New", ErrConfig, "wallet is required")
	}
	c.cfg.URL = strings.TrimRight(c.cfg.URL, "/")
	u, err := url.Parse(c.cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, newError("ethpool.New", ErrConfig, fmt.Sprintf("invalid url %q", c.cfg.URL))
	}
	if c.cfg.Timeout < 0 {
		return nil, newError("ethpool.New", ErrConfig, "timeout must be >= 0")
	}
	if c.cfg.UserAgent == "" {
		c.cfg.UserAgent = DefaultUserAgent
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	c.router, err = newRouter(c.methods)
	if err != nil {
		return nil, err
	}
	if c.nonces == nil {
		c.nonces = NewMonotonicNonce()
	}
	if c.httpClient == nil {
		c.httpClient = newHTTPClient()
	}

	t := &transport{client: c.httpClient, userAgent: c.cfg.UserAgent, timeout: c.cfg.Timeout}
	c.send = t.do
	if c.breakerCfg != nil {
		c.breaker = newBreaker(u.Host, *c.breakerCfg, c.logger)
		c.send = c.breaker.wrap(t.do)
	}
	return c, nil
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config { return c.cfg }

// Methods returns the method names registered for category cat.
func (c *Client) Methods(cat Category) []string {
	names := c.methods.Names(cat)
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Resolve returns the category method belongs to.
func (c *Client) Resolve(method string) (Category, error) {
	return c.router.Resolve(method)
}

// Go starts a call and returns its deferred result. If cb is non-nil it is
// invoked exactly once with the same outcome the Pending settles with.
// Routing, path and signing failures settle the Pending before any I/O.
func (c *Client) Go(ctx context.Context, method string, params Params, cb Callback) *Pending {
	p := newPending()
	p.subscribe(cb)

	pc, err := c.prepare(method, params)
	if err != nil {
		c.logger.Debug("ethpool call rejected",
			"method", method,
			"code", ErrorCodeOf(err),
			"error", err,
		)
		c.metrics.reject(err)
		p.settle(nil, err)
		return p
	}

	go func() {
		p.settle(c.execute(ctx, pc))
	}()
	return p
}

// Call performs a call and blocks until it completes. The returned payload is
// the response body exactly as received.
func (c *Client) Call(ctx context.Context, method string, params Params) (json.RawMessage, error) {
	p := c.Go(ctx, method, params, nil)
	<-p.Done()
	return p.result, p.err
}

// CallInto performs a call and decodes the payload into v.
func (c *Client) CallInto(ctx context.Context, method string, params Params, v any) error {
	payload, err := c.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return newError("ethpool.CallInto", ErrParse, err.Error())
	}
	return nil
}

// preparedCall is a fully built request awaiting dispatch.
type preparedCall struct {
	method    string
	category  Category
	requestID string
	req       dispatch
}

func (c *Client) prepare(method string, params Params) (*preparedCall, error) {
	cat, err := c.router.Resolve(method)
	if err != nil {
		return nil, err
	}

	path, rest, err := BuildPath(cat, method, c.cfg.Version, params, c.cfg.Wallet)
	if err != nil {
		return nil, err
	}

	pc := &preparedCall{
		method:    method,
		category:  cat,
		requestID: ulid.Make().String(),
	}
	pc.req.url = c.cfg.URL + path
	pc.req.headers = map[string]string{HeaderRequestID: pc.requestID}

	if !cat.Signed() {
		body, err := rest.Encode()
		if err != nil {
			return nil, err
		}
		pc.req.verb = http.MethodGet
		pc.req.body = body
		return pc, nil
	}

	if nonceAbsent(rest[ParamNonce]) {
		rest[ParamNonce] = c.nonces.Next()
	}
	if c.cfg.OTP != "" {
		rest[ParamOTP] = c.cfg.OTP
	}

	signed, err := NewSignedRequest(c.cfg.Wallet, path, rest)
	if err != nil {
		return nil, err
	}
	pc.req.verb = http.MethodPost
	pc.req.body = signed.EncodedBody
	pc.req.headers[HeaderAPIKey] = c.cfg.Wallet
	pc.req.headers[HeaderAPISign] = signed.Signature
	return pc, nil
}

func (c *Client) execute(ctx context.Context, pc *preparedCall) (json.RawMessage, error) {
	ctx, span := tracer.StartSpan(ctx, "ethpool.call",
		trace.WithAttributes(
			tracer.StringAttr("ethpool.method", pc.method),
			tracer.StringAttr("ethpool.category", pc.category.String()),
			tracer.StringAttr("ethpool.request_id", pc.requestID),
		),
	)
	defer span.End()

	start := time.Now()
	payload, err := c.roundTrip(ctx, pc, span)
	c.metrics.observe(pc.category, err, time.Since(start))
	if err != nil {
		tracer.RecordError(span, err)
		c.logger.Debug("ethpool call failed",
			"method", pc.method,
			"category", pc.category.String(),
			"request_id", pc.requestID,
			"code", ErrorCodeOf(err),
			"error", err,
		)
		return nil, err
	}

	tracer.SetOK(span)
	c.logger.Debug("ethpool call completed",
		"method", pc.method,
		"category", pc.category.String(),
		"request_id", pc.requestID,
		"duration", time.Since(start),
	)
	return payload, nil
}

func (c *Client) roundTrip(ctx context.Context, pc *preparedCall, span trace.Span) (json.RawMessage, error) {
	r, err := c.send(ctx, pc.req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.IntAttr("http.status_code", r.status))

	payload, err := Normalize(r.body)
	if err != nil {
		return nil, err
	}
	if r.status < 200 || r.status > 299 {
		return nil, statusError(r.status, r.body)
	}
	return payload, nil
}

// nonceAbsent reports whether a caller-supplied nonce should be replaced.
func nonceAbsent(v any) bool {
	if v == nil {
		return true
	}
	s, err := stringify(v)
	return err == nil && (s == "" || s == "0")
}
