package numeric

import "math"

// Vec3 is a position or direction in simulation space.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v.X * f, v.Y * f, v.Z * f}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Unit returns v scaled to length 1, or the zero vector when v is
// degenerate.
func (v Vec3) Unit() Vec3 {
	n := v.Norm()
	if n < 1e-12 {
		return Vec3{}
	}
	return v.Scale(1 / n)
}

func (v Vec3) Distance(o Vec3) float64 {
	return v.Sub(o).Norm()
}

func (v Vec3) IsValid() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
