package track

import "github.com/ringline/racecore/internal/vecmath"

// Collision is the result of a barrier test.
type Collision struct {
	Hit     bool
	Normal  vecmath.Vec3 // unit vector from barrier to car, zero when Hit is false
	Barrier int          // index into Barriers, -1 when Hit is false
}

// CheckBarrierCollision tests position against every barrier and returns the
// first one within carRadius+1. Only one contact is reported per call.
func (t *Track) CheckBarrierCollision(position vecmath.Vec3, carRadius float64) Collision {
	limit := carRadius + 1
	for i, b := range t.barriers {
		d := vecmath.DistanceXZ(position, b.Position)
		if d < limit {
			return Collision{
				Hit:     true,
				Normal:  vecmath.Normalize(vecmath.Flat(position.Sub(b.Position))),
				Barrier: i,
			}
		}
	}
	return Collision{Barrier: -1}
}
