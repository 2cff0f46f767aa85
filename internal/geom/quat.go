package geom

import "math"

// Quat is a unit quaternion (X, Y, Z imaginary, W real).
type Quat struct {
	X, Y, Z, W float64
}

var Identity = Quat{W: 1}

// YawRotation rotates by angle radians about +Y.
func YawRotation(angle float64) Quat {
	s, c := math.Sincos(angle / 2)
	return Quat{Y: s, W: c}
}

// RotationArc returns the shortest rotation taking unit vector from onto
// unit vector to. Opposite vectors rotate half a turn about Y, which keeps
// horizontal facings horizontal.
func RotationArc(from, to Vec3) Quat {
	d := from.Dot(to)
	if d < -1+1e-9 {
		return Quat{Y: 1}
	}
	c := from.Cross(to)
	q := Quat{X: c.X, Y: c.Y, Z: c.Z, W: 1 + d}
	return q.Normalize()
}

// FacingRotation orients -Z along the horizontal part of dir. ok is false
// when dir has no usable horizontal component.
func FacingRotation(dir Vec3) (q Quat, ok bool) {
	h := dir.Horizontal()
	if h.Length() <= 0.01 {
		return Identity, false
	}
	return RotationArc(Forward, h.NormalizeOrZero()), true
}

func (q Quat) Normalize() Quat {
	l := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if l == 0 {
		return Identity
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

func (q Quat) ApproxEqual(o Quat, eps float64) bool {
	return math.Abs(q.X-o.X) <= eps && math.Abs(q.Y-o.Y) <= eps &&
		math.Abs(q.Z-o.Z) <= eps && math.Abs(q.W-o.W) <= eps
}
