package ethpool

import (
	"fmt"
	"net/url"
	"strconv"
)

// Parameter names with special meaning on signed requests.
const (
	ParamNonce = "nonce"
	ParamOTP   = "otp"
)

// Params maps request parameter names to string or numeric values.
type Params map[string]any

// Clone returns a shallow copy of p. A nil p yields an empty, non-nil map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Encode serializes p as a query string. Keys are sorted so the output is
// stable for signing; reserved characters are percent-escaped.
func (p Params) Encode() (string, error) {
	values := make(url.Values, len(p))
	for k, v := range p {
		s, err := stringify(v)
		if err != nil {
			return "", newError("ethpool.Encode", ErrEncoding, fmt.Sprintf("param %q: %v", k, err))
		}
		values.Set(k, s)
	}
	return values.Encode(), nil
}

// stringify renders a scalar parameter value.
func stringify(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.FormatInt(int64(x), 10), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case fmt.Stringer:
		return x.String(), nil
	case nil:
		return "", fmt.Errorf("nil value")
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}
