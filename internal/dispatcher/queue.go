package dispatcher

import (
	"fmt"
	"sync"
)

// queue feeds one buffered handler from a single worker goroutine.
type queue struct {
	d        *Dispatcher
	command  string
	blocking bool
	handler  HandlerFunc
	events   chan Event
	done     chan struct{}
}

func (d *Dispatcher) newQueue(command string, size int, blocking bool, h HandlerFunc) *queue {
	return &queue{
		d:        d,
		command:  command,
		blocking: blocking,
		handler:  h,
		events:   make(chan Event, size),
		done:     make(chan struct{}),
	}
}

func (q *queue) run() {
	defer close(q.done)
	for e := range q.events {
		if _, err := q.handler(e); err != nil {
			q.d.logger.Error("buffered event failed", "command", q.command, "error", err)
		}
		q.d.metrics.processed(q.command)
		q.d.inflight.add(-1)
	}
}

// enqueue is the HandlerFunc registered in place of the buffered handler.
func (q *queue) enqueue(e Event) (any, error) {
	q.d.inflight.add(1)
	if q.blocking {
		q.events <- e
		return "queued", nil
	}
	select {
	case q.events <- e:
		return "queued", nil
	default:
		q.d.inflight.add(-1)
		q.d.metrics.dropped(q.command)
		return nil, fmt.Errorf("queue full: %s", q.command)
	}
}

// inflight counts events accepted by queues but not yet handled.
type inflight struct {
	mu   sync.Mutex
	zero *sync.Cond
	n    int
}

func newInflight() *inflight {
	f := &inflight{}
	f.zero = sync.NewCond(&f.mu)
	return f
}

func (f *inflight) add(delta int) {
	f.mu.Lock()
	f.n += delta
	if f.n == 0 {
		f.zero.Broadcast()
	}
	f.mu.Unlock()
}

func (f *inflight) wait() {
	f.mu.Lock()
	for f.n > 0 {
		f.zero.Wait()
	}
	f.mu.Unlock()
}
