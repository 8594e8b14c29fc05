package world

import "math"

// Vec3 is a world-space position. Y is up.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// IsFinite reports whether all three coordinates are finite numbers.
// NaN or Inf positions come from upstream bugs and must never drive AI.
func (v Vec3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Distance is the full 3D euclidean distance between two points.
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Length()
}

// Distance2D is the planar (XZ) distance, ignoring height. Aggro and leash
// checks use the full 3D distance; this exists for ground placement.
func Distance2D(a, b Vec3) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// WithinRange reports whether a and b are at most r apart, without the sqrt.
func WithinRange(a, b Vec3, r float64) bool {
	d := a.Sub(b)
	return d.X*d.X+d.Y*d.Y+d.Z*d.Z <= r*r
}
