// Package input turns held-key snapshots into the intent the vehicle consumes.
package input

import "github.com/ringline/racecore/internal/vehicle"

// Source yields one intent per tick.
type Source interface {
	Next() vehicle.Intent
}

// Debouncer passes continuous controls through and reduces the one-shot
// controls (shifts and transmission toggle) to their press edge.
type Debouncer struct {
	prev vehicle.Intent
}

// Apply returns held with ShiftUp, ShiftDown and ToggleTransmission true
// only on the tick they went down.
func (d *Debouncer) Apply(held vehicle.Intent) vehicle.Intent {
	out := held
	out.ShiftUp = held.ShiftUp && !d.prev.ShiftUp
	out.ShiftDown = held.ShiftDown && !d.prev.ShiftDown
	out.ToggleTransmission = held.ToggleTransmission && !d.prev.ToggleTransmission
	d.prev = held
	return out
}

// Reset forgets the previous snapshot.
func (d *Debouncer) Reset() { d.prev = vehicle.Intent{} }

// Debounced wraps a held-state source.
type Debounced struct {
	src Source
	d   Debouncer
}

func NewDebounced(src Source) *Debounced {
	return &Debounced{src: src}
}

func (s *Debounced) Next() vehicle.Intent {
	return s.d.Apply(s.src.Next())
}

// Constant repeats the same intent forever.
type Constant vehicle.Intent

func (c Constant) Next() vehicle.Intent { return vehicle.Intent(c) }
