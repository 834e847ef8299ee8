package ethpool

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"
)

// Headers attached to signed requests.
const (
	HeaderAPIKey  = "API-Key"
	HeaderAPISign = "API-Sign"
)

// Sign computes the request signature:
//
//	base64(HMAC-SHA512(base64decode(secret), path + SHA256(nonce + body)))
//
// The inner digest is appended to the path as raw bytes.
func Sign(secret, path string, nonce int64, body string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return "", newError("ethpool.Sign", ErrInvalidSecret, err.Error())
	}

	inner := sha256.Sum256([]byte(strconv.FormatInt(nonce, 10) + body))

	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(path))
	mac.Write(inner[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// SignedRequest is the material produced for one private call.
type SignedRequest struct {
	Path        string
	EncodedBody string
	Nonce       int64
	Signature   string
}

// NewSignedRequest encodes params and signs them for path. params must
// already contain the nonce under ParamNonce.
func NewSignedRequest(secret, path string, params Params) (*SignedRequest, error) {
	nonce, err := nonceOf(params)
	if err != nil {
		return nil, err
	}
	body, err := params.Encode()
	if err != nil {
		return nil, err
	}
	sig, err := Sign(secret, path, nonce, body)
	if err != nil {
		return nil, err
	}
	return &SignedRequest{Path: path, EncodedBody: body, Nonce: nonce, Signature: sig}, nil
}

func nonceOf(params Params) (int64, error) {
	v, ok := params[ParamNonce]
	if !ok {
		return 0, newError("ethpool.NewSignedRequest", ErrEncoding, "nonce is required")
	}
	s, err := stringify(v)
	if err != nil {
		return 0, newError("ethpool.NewSignedRequest", ErrEncoding, fmt.Sprintf("nonce: %v", err))
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != s {
		return 0, newError("ethpool.NewSignedRequest", ErrEncoding, fmt.Sprintf("nonce %q is not a canonical integer", s))
	}
	return n, nil
}

// NonceSource produces nonces for private requests.
type NonceSource interface {
	Next() int64
}

// MonotonicNonce issues microsecond timestamps, bumped by one whenever the
// clock has not advanced past the previous value. Safe for concurrent use.
// The zero value reads the wall clock.
type MonotonicNonce struct {
	last atomic.Int64
	now  func() time.Time
}

// NewMonotonicNonce returns a nonce source backed by the wall clock.
func NewMonotonicNonce() *MonotonicNonce {
	return &MonotonicNonce{now: time.Now}
}

// Next implements NonceSource.
func (m *MonotonicNonce) Next() int64 {
	clock := m.now
	if clock == nil {
		clock = time.Now
	}
	now := clock().UnixMicro()
	for {
		last := m.last.Load()
		next := now
		if next <= last {
			next = last + 1
		}
		if m.last.CompareAndSwap(last, next) {
			return next
		}
	}
}
