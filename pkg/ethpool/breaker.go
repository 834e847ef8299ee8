package ethpool

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// BreakerConfig configures the optional dispatch circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive network failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before allowing a probe.
	Timeout time.Duration
	// Interval is the cyclic period of the closed state for clearing failure counts.
	Interval time.Duration
}

// breaker fails calls fast while the pool API is unreachable. Only network
// failures count against it. API, parse and HTTP status errors are replies
// from the pool, and canceled calls are the caller's doing.
type breaker struct {
	cb *gobreaker.CircuitBreaker[*reply]
}

func newBreaker(name string, cfg BreakerConfig, logger *slog.Logger) *breaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	cb := gobreaker.NewCircuitBreaker[*reply](gobreaker.Settings{
		Name:        "ethpool:" + name,
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return !countsAsFailure(err)
		},
	})
	return &breaker{cb: cb}
}

// wrap routes do through the circuit breaker.
func (b *breaker) wrap(do func(context.Context, dispatch) (*reply, error)) func(context.Context, dispatch) (*reply, error) {
	return func(ctx context.Context, d dispatch) (*reply, error) {
		r, err := b.cb.Execute(func() (*reply, error) {
			return do(ctx, d)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, newError("ethpool.dispatch", ErrCircuitOpen, err.Error())
		}
		return r, err
	}
}

// State returns the current breaker state.
func (b *breaker) State() gobreaker.State { return b.cb.State() }

// countsAsFailure reports whether err means the pool could not be reached.
func countsAsFailure(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, ErrHTTPStatus):
		return false
	default:
		return errors.Is(err, ErrNetwork)
	}
}
