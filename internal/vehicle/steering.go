package vehicle

import "github.com/ringline/racecore/internal/vecmath"

// steer moves angle towards full lock while a direction is held and back to
// centre otherwise. Left is positive. Holding both directions counts as released.
func steer(angle float64, in Intent, p Params, dt float64) float64 {
	switch {
	case in.SteerLeft && !in.SteerRight:
		angle += p.SteerSpeed * dt
	case in.SteerRight && !in.SteerLeft:
		angle -= p.SteerSpeed * dt
	default:
		step := p.SteerReturnSpeed * dt
		if angle > 0 {
			angle = max(0, angle-step)
		} else if angle < 0 {
			angle = min(0, angle+step)
		}
	}
	return vecmath.Clamp(angle, -p.MaxSteerAngle, p.MaxSteerAngle)
}
