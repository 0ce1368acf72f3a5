package queue

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/semaphore"
)

// ErrQueueFull is returned by InlinePool.Dispatch when the pending buffer
// is saturated.
var ErrQueueFull = errors.New("processing queue full")

const inlineQueueDepth = 100

// InlinePool runs handlers in-process with a bounded pending buffer and a
// weighted semaphore capping concurrent jobs. It is the dispatcher used
// when no Redis broker is configured.
type InlinePool struct {
	pending chan Message
	sem     *semaphore.Weighted
	handler Handler
}

var _ Dispatcher = (*InlinePool)(nil)

// NewInlinePool builds a pool allowing up to concurrency jobs at once.
func NewInlinePool(concurrency int, handler Handler) *InlinePool {
	limit := int64(concurrency)
	if limit <= 0 {
		limit = 2
	}
	return &InlinePool{
		pending: make(chan Message, inlineQueueDepth),
		sem:     semaphore.NewWeighted(limit),
		handler: handler,
	}
}

// Start launches the consumer loop. It returns immediately; the loop stops
// when ctx is cancelled. Jobs still running at shutdown finish on their own.
func (p *InlinePool) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				slog.Info("stopping processing pool")
				return
			case msg := <-p.pending:
				if err := p.sem.Acquire(ctx, 1); err != nil {
					slog.Error("failed to acquire worker slot", "error", err)
					return
				}
				go func(m Message) {
					defer p.sem.Release(1)
					if err := p.handler(ctx, m); err != nil {
						slog.Error("job processing failed", "job_id", m.JobID, "error", err)
					}
				}(msg)
			}
		}
	}()
}

// Dispatch queues msg for in-process handling. It fails fast with
// ErrQueueFull when the buffer is saturated instead of blocking the
// upload request behind slow transcriptions.
func (p *InlinePool) Dispatch(ctx context.Context, msg Message) error {
	select {
	case p.pending <- msg:
		slog.Info("job queued", "job_id", msg.JobID)
		return nil
	default:
		return ErrQueueFull
	}
}

// Close is a no-op; shutdown is driven by the Start context.
func (p *InlinePool) Close() error {
	return nil
}
