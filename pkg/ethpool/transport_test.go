package ethpool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTripFunc is a function type that implements http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// errorReadCloser is an io.ReadCloser whose Read always returns an error.
type errorReadCloser struct{}

func (e *errorReadCloser) Read([]byte) (int, error) {
	return 0, fmt.Errorf("simulated body read error")
}

func (e *errorReadCloser) Close() error { return nil }

func newTestTransport(hc *http.Client, timeout time.Duration) *transport {
	return &transport{client: hc, userAgent: DefaultUserAgent, timeout: timeout}
}

func TestTransportGETCarriesQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/poolStats", r.URL.Path)
		assert.Equal(t, "a=1&b=x+y", r.URL.RawQuery)
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.Write([]byte(`{"status":"OK"}`))
	}))
	defer server.Close()

	tr := newTestTransport(server.Client(), time.Second)
	r, err := tr.do(context.Background(), dispatch{
		verb: http.MethodGet,
		url:  server.URL + "/poolStats",
		body: "a=1&b=x+y",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, r.status)
	assert.JSONEq(t, `{"status":"OK"}`, string(r.body))
}

func TestTransportPOSTCarriesFormBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "value", r.Header.Get("X-Custom"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "nonce=1&otp=2", string(body))
		w.Write([]byte(`{"result":{}}`))
	}))
	defer server.Close()

	tr := newTestTransport(server.Client(), time.Second)
	_, err := tr.do(context.Background(), dispatch{
		verb:    http.MethodPost,
		url:     server.URL + "/Balance",
		headers: map[string]string{"X-Custom": "value", "User-Agent": "spoofed"},
		body:    "nonce=1&otp=2",
	})
	require.NoError(t, err)
}

func TestTransportUserAgentCannotBeOverridden(t *testing.T) {
	var got string
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		got = r.Header.Get("User-Agent")
		return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(`{}`)), Header: make(http.Header)}, nil
	})}

	tr := newTestTransport(hc, 0)
	_, err := tr.do(context.Background(), dispatch{
		verb:    http.MethodGet,
		url:     "http://pool.invalid/poolStats",
		headers: map[string]string{"User-Agent": "spoofed"},
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, got)
}

func TestTransportTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	tr := newTestTransport(server.Client(), 20*time.Millisecond)
	_, err := tr.do(context.Background(), dispatch{verb: http.MethodGet, url: server.URL})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, CodeTimeout, ErrorCodeOf(err))
}

func TestTransportConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	tr := newTestTransport(&http.Client{}, time.Second)
	_, err := tr.do(context.Background(), dispatch{verb: http.MethodGet, url: url})
	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, CodeNetwork, ErrorCodeOf(err))
}

func TestTransportCanceledIsNotNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	defer cancel()

	tr := newTestTransport(server.Client(), time.Second)
	_, err := tr.do(ctx, dispatch{verb: http.MethodGet, url: server.URL})
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrNetwork)
	assert.Equal(t, CodeCanceled, ErrorCodeOf(err))
}

func TestTransportBodyReadError(t *testing.T) {
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: 200, Body: &errorReadCloser{}, Header: make(http.Header)}, nil
	})}

	tr := newTestTransport(hc, time.Second)
	_, err := tr.do(context.Background(), dispatch{verb: http.MethodGet, url: "http://pool.invalid/"})
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestTransportNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	tr := newTestTransport(server.Client(), time.Second)
	_, err := tr.do(context.Background(), dispatch{verb: http.MethodGet, url: server.URL})
	assert.ErrorIs(t, err, ErrParse)
	assert.Equal(t, CodeParse, ErrorCodeOf(err))
}

func TestTransportNonJSONErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer server.Close()

	tr := newTestTransport(server.Client(), time.Second)
	_, err := tr.do(context.Background(), dispatch{verb: http.MethodGet, url: server.URL})
	assert.ErrorIs(t, err, ErrHTTPStatus)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Contains(t, err.Error(), "status 502")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab...", truncate("abc", 2))
}
