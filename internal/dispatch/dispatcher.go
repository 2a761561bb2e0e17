package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"wahook/internal/config"
	"wahook/internal/constants"
	"wahook/internal/logger"
	apperrors "wahook/pkg/errors"
	"wahook/pkg/logging"
	"wahook/pkg/metrics"
	"wahook/pkg/models"
)

var (
	ErrQueueFull = errors.New("dispatch queue full")
	ErrDropped   = errors.New("dispatch queue full, event dropped")
	ErrStopped   = errors.New("dispatcher stopped")
)

type Deliverer interface {
	Deliver(ctx context.Context, ev models.InboundEvent) bool
}

type job struct {
	ev       models.InboundEvent
	enqueued time.Time
}

// Dispatcher runs deliveries on a fixed pool of workers fed by a bounded queue.
// Each event is owned by one worker, so its attempts stay sequential.
type Dispatcher struct {
	deliverer Deliverer
	overflow  string
	workers   int
	queue     chan job
	stopped   chan struct{}
	stopOnce  sync.Once
	logger    logger.Logger
}

func New(cfg config.DispatchConfig, deliverer Deliverer, log logger.Logger) *Dispatcher {
	workers := cfg.MaxConcurrency
	if workers <= 0 {
		workers = constants.DefaultMaxConcurrency
	}
	size := cfg.QueueSize
	if size < 0 {
		size = constants.DefaultQueueSize
	}
	overflow := strings.ToLower(cfg.Overflow)
	if overflow == "" {
		overflow = constants.OverflowBlock
	}

	return &Dispatcher{
		deliverer: deliverer,
		overflow:  overflow,
		workers:   workers,
		queue:     make(chan job, size),
		stopped:   make(chan struct{}),
		logger:    log,
	}
}

// Run starts the workers and blocks until ctx is done and every in-flight
// delivery has returned. Events still queued at that point are discarded.
func (d *Dispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.worker(ctx)
		}()
	}

	d.logger.Infow("Dispatcher started",
		"workers", d.workers,
		"queue_size", cap(d.queue),
		"overflow", d.overflow,
	)

	<-ctx.Done()
	d.stopOnce.Do(func() { close(d.stopped) })
	wg.Wait()

	if discarded := len(d.queue); discarded > 0 {
		d.logger.Warnw("Discarding queued events on shutdown", "count", discarded)
	}
	metrics.DispatchQueueSize.Set(0)

	return nil
}

// Submit enqueues ev according to the overflow policy. It returns ErrQueueFull
// (reject), ErrDropped (drop) or, for block, the ctx error if ctx ends first.
func (d *Dispatcher) Submit(ctx context.Context, ev models.InboundEvent) error {
	select {
	case <-d.stopped:
		return ErrStopped
	default:
	}

	j := job{ev: ev, enqueued: time.Now()}

	if d.overflow == constants.OverflowBlock {
		select {
		case d.queue <- j:
			d.updateQueueSize()
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-d.stopped:
			return ErrStopped
		}
	}

	select {
	case d.queue <- j:
		d.updateQueueSize()
		return nil
	default:
	}

	metrics.DispatchOverflowTotal.WithLabelValues(d.overflow).Inc()
	if d.overflow == constants.OverflowDrop {
		d.logger.WarnwCtx(ctx, "Dispatch queue full, dropping event",
			"message_id", ev.MessageID,
			"sender", ev.Sender,
		)
		return ErrDropped
	}
	return ErrQueueFull
}

func (d *Dispatcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.queue:
			d.updateQueueSize()
			if ctx.Err() != nil {
				return
			}
			metrics.ObserveQueueWait(time.Since(j.enqueued))
			d.deliver(ctx, j.ev)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev models.InboundEvent) {
	metrics.DispatchInFlight.Inc()
	defer metrics.DispatchInFlight.Dec()

	if ev.MessageID != "" {
		ctx = logging.WithMessageID(ctx, ev.MessageID)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorwCtx(ctx, "Panic recovered during delivery",
				"error", apperrors.RecoverPanic(r),
			)
		}
	}()

	d.deliverer.Deliver(ctx, ev)
}

func (d *Dispatcher) updateQueueSize() {
	metrics.DispatchQueueSize.Set(float64(len(d.queue)))
}
