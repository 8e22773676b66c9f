package race

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an action does not apply to the current status.
var ErrInvalidTransition = errors.New("invalid race transition")

// Status is the lifecycle state of a race.
type Status int

const (
	Idle Status = iota
	Playing
	Paused
	Finished
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText lets Status appear by name in JSON snapshots.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Action drives a status transition.
type Action int

const (
	ActionStart Action = iota
	ActionPause
	ActionResume
	ActionFinish
	ActionReset
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionPause:
		return "pause"
	case ActionResume:
		return "resume"
	case ActionFinish:
		return "finish"
	case ActionReset:
		return "reset"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// transitions lists the allowed moves. Reset is accepted from any status.
var transitions = map[Status]map[Action]Status{
	Idle:     {ActionStart: Playing},
	Playing:  {ActionPause: Paused, ActionFinish: Finished},
	Paused:   {ActionResume: Playing},
	Finished: {},
}

// Next returns the status reached by applying a to s.
func Next(s Status, a Action) (Status, error) {
	if a == ActionReset {
		return Idle, nil
	}
	if to, ok := transitions[s][a]; ok {
		return to, nil
	}
	return s, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, a, s)
}
