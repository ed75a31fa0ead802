package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/alttch/roboger/internal/constants"
	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/internal/plugin"
	"github.com/alttch/roboger/pkg/circuitbreaker"
	"github.com/alttch/roboger/pkg/metrics"
	"github.com/alttch/roboger/pkg/models"
)

// sendUnit is one event bound to one endpoint, queued for delivery.
type sendUnit struct {
	endpointID string
	sender     plugin.Sender
	config     plugin.Config
	event      *models.EventContext
	onResult   func(status string, err error)
}

// Pool runs deliveries on a fixed set of workers behind a bounded queue.
// Submit blocks when the queue is full, which backpressures the push
// handler instead of growing memory without bound.
type Pool struct {
	queue       chan sendUnit
	sendTimeout time.Duration
	logger      logger.Logger

	breakersMu sync.Mutex
	breakers   map[string]*circuitbreaker.Wrapper

	wg sync.WaitGroup
}

func NewPool(workers, queueDepth int, sendTimeout time.Duration, log logger.Logger) *Pool {
	if workers <= 0 {
		workers = constants.DefaultDispatchWorkers
	}
	if queueDepth <= 0 {
		queueDepth = constants.DefaultDispatchQueueDepth
	}
	if sendTimeout <= 0 {
		sendTimeout = constants.DefaultSendTimeout
	}

	p := &Pool{
		queue:       make(chan sendUnit, queueDepth),
		sendTimeout: sendTimeout,
		logger:      log,
		breakers:    make(map[string]*circuitbreaker.Wrapper),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	return p
}

// Submit queues one delivery. It blocks until the queue has room or ctx is
// done.
func (p *Pool) Submit(ctx context.Context, unit sendUnit) error {
	select {
	case p.queue <- unit:
		metrics.DispatchQueueDepth.Set(float64(len(p.queue)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting work and waits for queued deliveries to finish,
// up to ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	close(p.queue)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for unit := range p.queue {
		metrics.DispatchQueueDepth.Set(float64(len(p.queue)))
		p.deliver(unit)
	}
}

func (p *Pool) deliver(unit sendUnit) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorw("delivery panic recovered",
				"plugin", unit.sender.Name(), "endpoint_id", unit.endpointID, "panic", r)
			metrics.DeliveriesTotal.WithLabelValues(unit.sender.Name(), "panic").Inc()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), p.sendTimeout)
	defer cancel()

	pluginName := unit.sender.Name()
	start := time.Now()

	_, err := p.breaker(pluginName).ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, unit.sender.Send(ctx, unit.config, unit.event)
	})

	status := "ok"
	switch {
	case circuitbreaker.IsOpen(err):
		status = "breaker_open"
	case err != nil:
		status = "error"
	}

	metrics.DeliveriesTotal.WithLabelValues(pluginName, status).Inc()
	metrics.ObserveSendDuration(pluginName, status, time.Since(start))

	if err != nil {
		p.logger.Errorw("delivery failed",
			"plugin", pluginName, "endpoint_id", unit.endpointID,
			"event_id", unit.event.EventID, "status", status, "error", err)
	} else {
		p.logger.Debugw("delivery complete",
			"plugin", pluginName, "endpoint_id", unit.endpointID,
			"event_id", unit.event.EventID,
			"duration_ms", time.Since(start).Milliseconds())
	}

	if unit.onResult != nil {
		unit.onResult(status, err)
	}
}

func (p *Pool) breaker(pluginName string) *circuitbreaker.Wrapper {
	p.breakersMu.Lock()
	defer p.breakersMu.Unlock()

	cb, ok := p.breakers[pluginName]
	if !ok {
		cb = circuitbreaker.NewWrapper(circuitbreaker.DefaultConfig("plugin_" + pluginName))
		p.breakers[pluginName] = cb
	}
	return cb
}
