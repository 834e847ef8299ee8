package ethpool

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Match with errors.Is.
var (
	ErrUnknownMethod     = fmt.Errorf("unknown api method")
	ErrMissingIdentifier = fmt.Errorf("missing path identifier")
	ErrEncoding          = fmt.Errorf("parameter encoding failed")
	ErrInvalidSecret     = fmt.Errorf("invalid api secret")
	ErrParse             = fmt.Errorf("response is not valid json")
	ErrAPI               = fmt.Errorf("api returned an error")
	ErrUnknownAPI        = fmt.Errorf("api returned an unknown error")
	ErrConfig            = fmt.Errorf("invalid client configuration")

	// ErrCanceled matches context.Canceled. The caller gave up on the call;
	// it says nothing about the pool.
	ErrCanceled = fmt.Errorf("%w: call canceled", context.Canceled)

	// Transport errors. All of them match ErrNetwork.
	ErrNetwork     = fmt.Errorf("network error")
	ErrTimeout     = fmt.Errorf("%w: request timed out", ErrNetwork)
	ErrHTTPStatus  = fmt.Errorf("%w: unexpected http status", ErrNetwork)
	ErrCircuitOpen = fmt.Errorf("%w: circuit open", ErrNetwork)
)

// Error wraps a sentinel error with call context.
type Error struct {
	Op     string // operation name (e.g., "ethpool.Call")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the ErrorCode for the wrapped sentinel.
func (e *Error) Code() ErrorCode { return ErrorCodeOf(e.Err) }

func newError(op string, err error, detail string) *Error {
	return &Error{Op: op, Err: err, Detail: detail}
}

// APIError is returned when the pool reports one or more marked error codes.
// The codes have their leading marker stripped.
type APIError struct {
	Codes []string
}

func (e *APIError) Error() string {
	return "ethpool api: " + strings.Join(e.Codes, ", ")
}

// Is makes APIError match ErrAPI.
func (e *APIError) Is(target error) bool { return target == ErrAPI }

// HasCode reports whether code is among the returned codes.
func (e *APIError) HasCode(code string) bool {
	for _, c := range e.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// ErrorCode is a machine-parseable error category for logs and metrics.
type ErrorCode string

const (
	CodeUnknown           ErrorCode = "UNKNOWN"
	CodeUnknownMethod     ErrorCode = "UNKNOWN_METHOD"
	CodeMissingIdentifier ErrorCode = "MISSING_IDENTIFIER"
	CodeEncoding          ErrorCode = "ENCODING"
	CodeInvalidSecret     ErrorCode = "INVALID_SECRET"
	CodeNetwork           ErrorCode = "NETWORK"
	CodeTimeout           ErrorCode = "TIMEOUT"
	CodeHTTPStatus        ErrorCode = "HTTP_STATUS"
	CodeCircuitOpen       ErrorCode = "CIRCUIT_OPEN"
	CodeCanceled          ErrorCode = "CANCELED"
	CodeParse             ErrorCode = "PARSE"
	CodeAPI               ErrorCode = "API"
	CodeUnknownAPI        ErrorCode = "UNKNOWN_API"
	CodeConfig            ErrorCode = "CONFIG"
)

// errorCodes is ordered most specific first: the network variants must be
// checked before ErrNetwork itself.
var errorCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrUnknownMethod, CodeUnknownMethod},
	{ErrMissingIdentifier, CodeMissingIdentifier},
	{ErrEncoding, CodeEncoding},
	{ErrInvalidSecret, CodeInvalidSecret},
	{ErrTimeout, CodeTimeout},
	{ErrHTTPStatus, CodeHTTPStatus},
	{ErrCircuitOpen, CodeCircuitOpen},
	{ErrNetwork, CodeNetwork},
	{context.Canceled, CodeCanceled},
	{ErrParse, CodeParse},
	{ErrAPI, CodeAPI},
	{ErrUnknownAPI, CodeUnknownAPI},
	{ErrConfig, CodeConfig},
}

// ErrorCodeOf returns the machine-parseable code for err, or CodeUnknown.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeUnknown
}
