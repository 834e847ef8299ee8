package ethpool

import (
	"context"
	"encoding/json"
	"sync"
)

// Callback receives the outcome of a call. Exactly one of err and result is
// non-nil.
type Callback func(err error, result json.RawMessage)

// Pending is the deferred result of a call. It settles exactly once.
type Pending struct {
	done   chan struct{}
	once   sync.Once
	result json.RawMessage
	err    error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// settle records the outcome. Later calls are ignored.
func (p *Pending) settle(result json.RawMessage, err error) {
	p.once.Do(func() {
		if err != nil {
			result = nil
		}
		p.result, p.err = result, err
		close(p.done)
	})
}

// Done is closed once the call has settled.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the call settles or ctx is done. A ctx error is returned
// without affecting the pending call.
func (p *Pending) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Settled reports whether the call has completed.
func (p *Pending) Settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// subscribe invokes cb once after p settles, with the same outcome Wait sees.
func (p *Pending) subscribe(cb Callback) {
	if cb == nil {
		return
	}
	go func() {
		<-p.done
		if p.err != nil {
			cb(p.err, nil)
			return
		}
		cb(nil, p.result)
	}()
}
