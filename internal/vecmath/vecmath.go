// Package vecmath holds the small set of vector helpers the simulation needs on
// top of mgl64. Everything here is pure and allocation free.
package vecmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a world-space vector. Y is up; the track lies in the XZ plane.
type Vec3 = mgl64.Vec3

// Zero is the zero vector.
var Zero = Vec3{}

// Length returns the euclidean length of v.
func Length(v Vec3) float64 {
	return v.Len()
}

// Normalize returns v scaled to unit length. A zero-length input yields the
// zero vector instead of NaN components.
func Normalize(v Vec3) Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

// Dot returns the dot product of a and b.
func Dot(a, b Vec3) float64 {
	return a.Dot(b)
}

// Cross returns the cross product of a and b.
func Cross(a, b Vec3) Vec3 {
	return a.Cross(b)
}

// Lerp interpolates between a and b by t. t is not clamped.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpVec interpolates each component of a towards b by t.
func LerpVec(a, b Vec3, t float64) Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return mgl64.Clamp(v, lo, hi)
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return mgl64.DegToRad(deg)
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return mgl64.RadToDeg(rad)
}

// Distance returns the distance between a and b.
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Len()
}

// DistanceXZ returns the distance between a and b projected onto the ground plane.
func DistanceXZ(a, b Vec3) float64 {
	return math.Hypot(a.X()-b.X(), a.Z()-b.Z())
}

// LengthXZ returns the length of v projected onto the ground plane.
func LengthXZ(v Vec3) float64 {
	return math.Hypot(v.X(), v.Z())
}

// Flat returns v with its Y component removed.
func Flat(v Vec3) Vec3 {
	return Vec3{v.X(), 0, v.Z()}
}

// RotateY rotates v around the world up axis by yaw radians. A yaw of zero maps
// +Z to +Z; positive yaw turns +Z towards +X.
func RotateY(v Vec3, yaw float64) Vec3 {
	return mgl64.Rotate3DY(yaw).Mul3x1(v)
}

// Forward returns the unit heading vector for a yaw angle.
func Forward(yaw float64) Vec3 {
	return Vec3{math.Sin(yaw), 0, math.Cos(yaw)}
}
