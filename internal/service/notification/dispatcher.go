package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"kisah-comments/internal/domain"
	"kisah-comments/internal/pkg/metrics"
)

const deliveryTimeout = 10 * time.Second

// Dispatcher delivers comment events on a small worker pool behind a bounded
// queue. Enqueue never blocks: when the queue is full the event is dropped.
type Dispatcher struct {
	deliver func(ctx context.Context, event domain.CommentEvent) error
	queue   chan domain.CommentEvent
	workers int
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(svc Service, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		deliver: svc.Deliver,
		queue:   make(chan domain.CommentEvent, queueSize),
		workers: workers,
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	slog.Info("notification dispatcher started", "workers", d.workers, "queue_size", cap(d.queue))
}

// Enqueue reports whether the event was accepted.
func (d *Dispatcher) Enqueue(event domain.CommentEvent) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		slog.Warn("notification dispatcher closed, event dropped", "type", event.Type, "comment_id", event.CommentID)
		metrics.NotificationsDropped.Inc()
		return false
	}

	select {
	case d.queue <- event:
		return true
	default:
		slog.Warn("notification queue full, event dropped", "type", event.Type, "comment_id", event.CommentID)
		metrics.NotificationsDropped.Inc()
		return false
	}
}

// Shutdown stops accepting events and waits for queued ones to drain, or for
// ctx to end.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		if err := d.deliver(ctx, event); err != nil {
			slog.Error("notification delivery failed",
				"worker", id, "type", event.Type, "comment_id", event.CommentID, "error", err)
		}
		cancel()
	}
}
