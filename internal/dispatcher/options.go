package dispatcher

import "time"

// Option configures handler registration.
type Option func(*options)

type options struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered queues events for the handler and runs it on its own goroutine.
// A full queue drops the event with an error unless Blocking is set.
func Buffered(size int) Option {
	return func(o *options) { o.bufferSize = size }
}

// Blocking makes a full buffered queue wait for room instead of dropping.
func Blocking() Option {
	return func(o *options) { o.blocking = true }
}

// Logged logs each event and its outcome at debug, failures at error.
func Logged() Option {
	return func(o *options) { o.logged = true }
}

func (d *Dispatcher) logged(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		d.logger.Debug("handling event", "command", command, "race", e.RaceID, "tick", e.Tick)
		start := time.Now()
		result, err := h(e)
		took := time.Since(start)
		if err != nil {
			d.logger.Error("event failed", "command", command, "duration", took, "error", err)
			return result, err
		}
		d.logger.Debug("event complete", "command", command, "duration", took)
		return result, nil
	}
}
