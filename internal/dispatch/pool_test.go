package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/internal/plugin"
	"github.com/alttch/roboger/pkg/models"
)

type countingSender struct {
	name  string
	calls int64
	err   error
	block chan struct{}
}

func (c *countingSender) Name() string { return c.name }

func (c *countingSender) ValidateConfig(plugin.Config) error { return nil }

func (c *countingSender) Send(ctx context.Context, _ plugin.Config, _ *models.EventContext) error {
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	atomic.AddInt64(&c.calls, 1)
	return c.err
}

func testEvent() *models.EventContext {
	return &models.EventContext{EventID: "ev-1", Msg: "hi"}
}

func TestPoolDeliversAll(t *testing.T) {
	pool := NewPool(4, 64, time.Second, logger.NopLogger())
	sender := &countingSender{name: "count"}

	for i := 0; i < 50; i++ {
		require.NoError(t, pool.Submit(context.Background(), sendUnit{
			endpointID: "ep-1",
			sender:     sender,
			event:      testEvent(),
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))
	assert.Equal(t, int64(50), atomic.LoadInt64(&sender.calls))
}

func TestPoolReportsResults(t *testing.T) {
	pool := NewPool(1, 8, time.Second, logger.NopLogger())

	var mu sync.Mutex
	var statuses []string
	onResult := func(status string, _ error) {
		mu.Lock()
		statuses = append(statuses, status)
		mu.Unlock()
	}

	require.NoError(t, pool.Submit(context.Background(), sendUnit{
		endpointID: "ep-1",
		sender:     &countingSender{name: "ok"},
		event:      testEvent(),
		onResult:   onResult,
	}))
	require.NoError(t, pool.Submit(context.Background(), sendUnit{
		endpointID: "ep-2",
		sender:     &countingSender{name: "bad", err: fmt.Errorf("boom")},
		event:      testEvent(),
		onResult:   onResult,
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"ok", "error"}, statuses)
}

func TestPoolSubmitBlocksUntilContextDone(t *testing.T) {
	pool := NewPool(1, 1, time.Minute, logger.NopLogger())
	block := make(chan struct{})
	sender := &countingSender{name: "slow", block: block}

	// One unit running, one queued.
	require.NoError(t, pool.Submit(context.Background(), sendUnit{
		endpointID: "ep-1", sender: sender, event: testEvent(),
	}))
	require.NoError(t, pool.Submit(context.Background(), sendUnit{
		endpointID: "ep-2", sender: sender, event: testEvent(),
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := pool.Submit(ctx, sendUnit{endpointID: "ep-3", sender: sender, event: testEvent()})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(block)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	require.NoError(t, pool.Shutdown(shutdownCtx))
}

type panickySender struct{}

func (panickySender) Name() string { return "panicky" }

func (panickySender) ValidateConfig(plugin.Config) error { return nil }

func (panickySender) Send(context.Context, plugin.Config, *models.EventContext) error {
	panic("plugin bug")
}

func TestPoolSurvivesPanic(t *testing.T) {
	pool := NewPool(1, 8, time.Second, logger.NopLogger())
	sender := &countingSender{name: "after"}

	require.NoError(t, pool.Submit(context.Background(), sendUnit{
		endpointID: "ep-1", sender: panickySender{}, event: testEvent(),
	}))
	require.NoError(t, pool.Submit(context.Background(), sendUnit{
		endpointID: "ep-2", sender: sender, event: testEvent(),
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))
	assert.Equal(t, int64(1), atomic.LoadInt64(&sender.calls))
}
