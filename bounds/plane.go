package bounds

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Plane represents a half-space: Normal·p + D = 0.
// Points with positive signed distance lie on the side Normal points to.
type Plane struct {
	Normal mgl64.Vec3
	D      float64
}

func NewPlane(a, b, c, d float64) Plane {
	return Plane{Normal: mgl64.Vec3{a, b, c}, D: d}
}

// Normalize scales all four coefficients so the normal has unit length.
// A zero normal is returned unchanged.
func (p Plane) Normalize() Plane {
	l := p.Normal.Len()
	if l == 0 {
		return p
	}
	inv := 1.0 / l
	return Plane{Normal: p.Normal.Mul(inv), D: p.D * inv}
}

// DistanceTo returns the signed distance from a point to the plane,
// assuming the plane is normalized.
func (p Plane) DistanceTo(pt mgl64.Vec3) float64 {
	return p.Normal.Dot(pt) + p.D
}

// SignedDistance returns the signed distance from a point to the plane.
// When assumeNormalized is false the raw half-space value is divided by
// the normal's length.
func (p Plane) SignedDistance(pt mgl64.Vec3, assumeNormalized bool) float64 {
	d := p.Normal.Dot(pt) + p.D
	if assumeNormalized {
		return d
	}
	l := p.Normal.Len()
	if l == 0 {
		return d
	}
	return d / l
}

// TangentBasis returns two unit vectors spanning the plane, orthogonal to
// each other and to the normal. The plane must be normalized.
func (p Plane) TangentBasis() (mgl64.Vec3, mgl64.Vec3) {
	// Cross against the world axis least aligned with the normal.
	axis := mgl64.Vec3{1, 0, 0}
	ax, ay, az := math.Abs(p.Normal[0]), math.Abs(p.Normal[1]), math.Abs(p.Normal[2])
	if ay <= ax && ay <= az {
		axis = mgl64.Vec3{0, 1, 0}
	} else if az <= ax && az <= ay {
		axis = mgl64.Vec3{0, 0, 1}
	}
	u := p.Normal.Cross(axis).Normalize()
	v := p.Normal.Cross(u)
	return u, v
}
