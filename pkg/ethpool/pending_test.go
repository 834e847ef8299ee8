package ethpool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingSettlesOnce(t *testing.T) {
	p := newPending()
	assert.False(t, p.Settled())

	p.settle(json.RawMessage(`{"a":1}`), nil)
	p.settle(nil, errors.New("late"))
	assert.True(t, p.Settled())

	result, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(result))
}

func TestPendingErrorDropsResult(t *testing.T) {
	p := newPending()
	p.settle(json.RawMessage(`{}`), ErrParse)

	result, err := p.Wait(context.Background())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrParse)
}

func TestPendingWaitHonoursContext(t *testing.T) {
	p := newPending()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, p.Settled())
}

func TestPendingSubscribeAfterSettle(t *testing.T) {
	p := newPending()
	p.settle(json.RawMessage(`1`), nil)

	got := make(chan json.RawMessage, 2)
	p.subscribe(func(err error, result json.RawMessage) {
		assert.NoError(t, err)
		got <- result
	})

	select {
	case r := <-got:
		assert.Equal(t, "1", string(r))
	case <-time.After(time.Second):
		t.Fatal("callback not invoked")
	}
}
