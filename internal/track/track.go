// Package track models a circular course: the drivable annulus, two rings of
// barriers, and an ordered ring of checkpoints with the start line at index 0.
package track

import (
	"errors"
	"fmt"
	"math"

	"github.com/ringline/racecore/internal/vecmath"
)

// ErrInvalidLayout is returned when a layout cannot describe a closed course.
var ErrInvalidLayout = errors.New("invalid track layout")

// Layout describes the course geometry. Distances are metres, angles radians.
type Layout struct {
	Name            string  `json:"name" mapstructure:"name"`
	CenterRadius    float64 `json:"centerRadius" mapstructure:"centerRadius"`
	Width           float64 `json:"width" mapstructure:"width"`
	CheckpointCount int     `json:"checkpointCount" mapstructure:"checkpointCount"`
	CheckpointRange float64 `json:"checkpointRange" mapstructure:"checkpointRange"`
	BarriersPerRing int     `json:"barriersPerRing" mapstructure:"barriersPerRing"`
	BarrierOffset   float64 `json:"barrierOffset" mapstructure:"barrierOffset"`
	CarRadius       float64 `json:"carRadius" mapstructure:"carRadius"`
	StartOffset     float64 `json:"startOffset" mapstructure:"startOffset"`
}

// DefaultLayout is the stock 100 m oval.
func DefaultLayout() Layout {
	return Layout{
		Name:            "oval",
		CenterRadius:    100,
		Width:           10,
		CheckpointCount: 8,
		CheckpointRange: 8,
		BarriersPerRing: 64,
		BarrierOffset:   2,
		CarRadius:       2,
		StartOffset:     0.15,
	}
}

// Validate checks the layout can be built.
func (l Layout) Validate() error {
	switch {
	case !(l.CenterRadius > 0):
		return fmt.Errorf("%w: centerRadius must be > 0", ErrInvalidLayout)
	case !(l.Width > 0) || l.Width/2 >= l.CenterRadius:
		return fmt.Errorf("%w: width %v does not fit radius %v", ErrInvalidLayout, l.Width, l.CenterRadius)
	case l.CheckpointCount < 2:
		return fmt.Errorf("%w: need at least 2 checkpoints, got %d", ErrInvalidLayout, l.CheckpointCount)
	case !(l.CheckpointRange > 0):
		return fmt.Errorf("%w: checkpointRange must be > 0", ErrInvalidLayout)
	case l.BarriersPerRing < 0:
		return fmt.Errorf("%w: barriersPerRing must be >= 0", ErrInvalidLayout)
	case l.CarRadius < 0:
		return fmt.Errorf("%w: carRadius must be >= 0", ErrInvalidLayout)
	}
	return nil
}

// Checkpoint is a trigger point on the centerline.
type Checkpoint struct {
	Index       int          `json:"index"`
	Position    vecmath.Vec3 `json:"position"`
	Passed      bool         `json:"passed"`
	IsStartLine bool         `json:"isStartLine"`
}

// Barrier is a fixed obstacle.
type Barrier struct {
	Position vecmath.Vec3 `json:"position"`
}

// Track is immutable after New except for checkpoint passed flags.
type Track struct {
	layout      Layout
	checkpoints []Checkpoint
	barriers    []Barrier
}

// New builds the course described by l.
func New(l Layout) (*Track, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	t := &Track{layout: l}

	for i := 0; i < l.CheckpointCount; i++ {
		angle := float64(i) / float64(l.CheckpointCount) * 2 * math.Pi
		t.checkpoints = append(t.checkpoints, Checkpoint{
			Index:       i,
			Position:    onCircle(l.CenterRadius, angle),
			IsStartLine: i == 0,
		})
	}

	inner := l.CenterRadius - l.Width/2 - l.BarrierOffset
	outer := l.CenterRadius + l.Width/2 + l.BarrierOffset
	for _, r := range []float64{inner, outer} {
		for i := 0; i < l.BarriersPerRing; i++ {
			angle := float64(i) / float64(l.BarriersPerRing) * 2 * math.Pi
			t.barriers = append(t.barriers, Barrier{Position: onCircle(r, angle)})
		}
	}
	return t, nil
}

func onCircle(r, angle float64) vecmath.Vec3 {
	return vecmath.Vec3{r * math.Cos(angle), 0, r * math.Sin(angle)}
}

func (t *Track) Layout() Layout        { return t.layout }
func (t *Track) Name() string          { return t.layout.Name }
func (t *Track) CenterRadius() float64 { return t.layout.CenterRadius }
func (t *Track) Width() float64        { return t.layout.Width }
func (t *Track) CarRadius() float64    { return t.layout.CarRadius }

// Checkpoints returns a copy of the checkpoint ring.
func (t *Track) Checkpoints() []Checkpoint {
	out := make([]Checkpoint, len(t.checkpoints))
	copy(out, t.checkpoints)
	return out
}

// Barriers returns a copy of the barrier list.
func (t *Track) Barriers() []Barrier {
	out := make([]Barrier, len(t.barriers))
	copy(out, t.barriers)
	return out
}

// IsOnTrack reports whether position lies within the drivable annulus.
func (t *Track) IsOnTrack(position vecmath.Vec3) bool {
	d := vecmath.LengthXZ(position)
	half := t.layout.Width / 2
	return d >= t.layout.CenterRadius-half && d <= t.layout.CenterRadius+half
}

// StartPosition is on the centerline just past the start line so the start
// line is the last checkpoint reached on the first lap.
func (t *Track) StartPosition() vecmath.Vec3 {
	return onCircle(t.layout.CenterRadius, t.layout.StartOffset)
}

// StartRotation is the yaw pointing along the direction of travel.
func (t *Track) StartRotation() float64 {
	return -t.layout.StartOffset
}
