package ethpool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// maxResponseBody is the maximum response body size read from the API.
const maxResponseBody = 10 * 1024 * 1024 // 10 MB

// DefaultUserAgent identifies this client on every request.
const DefaultUserAgent = "ethpool-go-client/1"

// HeaderRequestID carries the per-call correlation ID.
const HeaderRequestID = "X-Request-ID"

// dispatch describes a single HTTP exchange.
type dispatch struct {
	verb    string // http.MethodGet or http.MethodPost
	url     string
	headers map[string]string
	body    string // encoded parameters
}

// reply is a parsed response.
type reply struct {
	status int
	body   json.RawMessage
}

// transport performs one attempt per dispatch. It never retries.
type transport struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

// do sends d and parses the body as JSON. Transport failures map to
// ErrNetwork (ErrTimeout when the per-call bound is exceeded); a body that is
// not JSON maps to ErrParse.
func (t *transport) do(ctx context.Context, d dispatch) (*reply, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	target := d.url
	var reqBody io.Reader
	if d.verb == http.MethodGet {
		if d.body != "" {
			target += "?" + d.body
		}
	} else {
		reqBody = strings.NewReader(d.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, d.verb, target, reqBody)
	if err != nil {
		return nil, newError("ethpool.dispatch", ErrNetwork, fmt.Sprintf("create request: %v", err))
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range d.headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("User-Agent", t.userAgent)

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, classifyTransportError(ctx, fmt.Errorf("read response: %w", err))
	}

	if !json.Valid(respBody) {
		if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
			return nil, statusError(httpResp.StatusCode, respBody)
		}
		return nil, newError("ethpool.dispatch", ErrParse, truncate(string(respBody), 256))
	}

	return &reply{status: httpResp.StatusCode, body: respBody}, nil
}

// classifyTransportError wraps err as ErrTimeout, ErrCanceled or ErrNetwork.
func classifyTransportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return newError("ethpool.dispatch", ErrTimeout, err.Error())
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return newError("ethpool.dispatch", ErrCanceled, err.Error())
	}
	return newError("ethpool.dispatch", ErrNetwork, err.Error())
}

func statusError(status int, body []byte) error {
	return newError("ethpool.dispatch", ErrHTTPStatus,
		fmt.Sprintf("status %d: %s", status, truncate(strings.TrimSpace(string(body)), 256)))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// newHTTPClient returns the default client used when none is supplied. The
// per-call timeout is applied through the request context.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			DisableKeepAlives:   true,
		},
	}
}
