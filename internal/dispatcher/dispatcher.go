// Package dispatcher routes race-loop events to handlers by command name.
// Handlers run inline by default; Buffered handlers get their own queue and
// goroutine so the simulation never waits on storage.
package dispatcher

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrClosed is returned by Dispatch after Close.
var ErrClosed = errors.New("dispatcher closed")

// Event is one notification from the race loop.
type Event struct {
	Command   string
	RaceID    string
	Tick      uint64
	Payload   any
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	logger  Logger
	metrics *metrics

	mu       sync.RWMutex
	routes   map[string]HandlerFunc
	queues   map[string]*queue
	closed   bool
	inflight *inflight
}

// New creates a Dispatcher. Metrics go to the global OTel meter, a no-op
// unless a provider was installed.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		logger:   logger,
		routes:   make(map[string]HandlerFunc),
		queues:   make(map[string]*queue),
		inflight: newInflight(),
	}
	m, err := newMetrics(d.queueDepths)
	if err != nil {
		return nil, err
	}
	d.metrics = m
	return d, nil
}

// Register adds a handler for command. A later registration replaces an
// earlier one; a replaced buffered handler finishes its queue first.
// Registering after Close does nothing.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var q *queue
	if o.bufferSize > 0 {
		q = d.newQueue(command, o.bufferSize, o.blocking, h)
		h = q.enqueue
	}
	if o.logged {
		h = d.logged(command, h)
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	prev := d.queues[command]
	d.routes[command] = h
	if q != nil {
		d.queues[command] = q
		go q.run()
	} else {
		delete(d.queues, command)
	}
	if prev != nil {
		// no Dispatch can reach prev once routes is swapped under the lock
		close(prev.events)
	}
	d.mu.Unlock()

	if prev != nil {
		<-prev.done
	}
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	// held across the call so Close cannot close a queue mid-send
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, ErrClosed
	}
	h, ok := d.routes[e.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", e.Command)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.routes[command]
	return ok
}

// QueueDepth sums the events waiting in every buffered handler.
func (d *Dispatcher) QueueDepth() int {
	n := 0
	for _, depth := range d.queueDepths() {
		n += depth
	}
	return n
}

func (d *Dispatcher) queueDepths() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]int, len(d.queues))
	for cmd, q := range d.queues {
		out[cmd] = len(q.events)
	}
	return out
}

// Drain blocks until every event accepted by a buffered handler so far has
// been handled. Sync handlers call it to order themselves after the
// buffered stream.
func (d *Dispatcher) Drain() {
	d.inflight.wait()
}

// Close stops accepting events and waits for buffered handlers to finish
// what they already accepted. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	queues := make([]*queue, 0, len(d.queues))
	for _, q := range d.queues {
		close(q.events)
		queues = append(queues, q)
	}
	d.mu.Unlock()

	for _, q := range queues {
		<-q.done
	}
}
