package bounds

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Sphere is the alternative bound volume: a center and a radius.
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

func NewSphere(center mgl64.Vec3, radius float64) Sphere {
	return Sphere{Center: center, Radius: radius}
}

// Bounds returns the tight axis-aligned box around the sphere.
func (s Sphere) Bounds() Aabb {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return Aabb{Min: s.Center.Sub(r), Max: s.Center.Add(r)}
}

// IntersectsSphere reports whether two spheres touch or overlap.
func (s Sphere) IntersectsSphere(o Sphere) bool {
	r := s.Radius + o.Radius
	d := s.Center.Sub(o.Center)
	return d.Dot(d) <= r*r
}

// IntersectsAabb reports whether the sphere touches the box, by clamping
// the center onto the box and comparing the residual distance.
func (s Sphere) IntersectsAabb(b Aabb) bool {
	d := 0.0
	for i := 0; i < 3; i++ {
		c := s.Center[i]
		if c < b.Min[i] {
			e := b.Min[i] - c
			d += e * e
		} else if c > b.Max[i] {
			e := c - b.Max[i]
			d += e * e
		}
	}
	return d <= s.Radius*s.Radius
}

// Transform moves the center through m and scales the radius by the
// largest column scale, which keeps the result conservative under
// non-uniform scaling.
func (s Sphere) Transform(m mgl64.Mat4) Sphere {
	c := m.Mul4x1(s.Center.Vec4(1)).Vec3()
	scale := 0.0
	for j := 0; j < 3; j++ {
		l := math.Sqrt(m.At(0, j)*m.At(0, j) + m.At(1, j)*m.At(1, j) + m.At(2, j)*m.At(2, j))
		if l > scale {
			scale = l
		}
	}
	return Sphere{Center: c, Radius: s.Radius * scale}
}

// Enclose grows the sphere minimally so it contains p.
func (s Sphere) Enclose(p mgl64.Vec3) Sphere {
	d := p.Sub(s.Center)
	dist := d.Len()
	if dist <= s.Radius {
		return s
	}
	newR := (dist + s.Radius) * 0.5
	return Sphere{
		Center: s.Center.Add(d.Mul((newR - s.Radius) / dist)),
		Radius: newR,
	}
}

// TestFrustum classifies the sphere against a frustum with the same
// three-state result and PlaneState discipline as the box test.
func (s Sphere) TestFrustum(f *Frustum, state *PlaneState) FrustumResult {
	if f.dirty {
		f.Update()
	}
	if state != nil && !state.TestsRequired() {
		return Inside
	}
	result := Inside
	for k := 0; k < FrustumPlaneCount; k++ {
		if state != nil && state.Get(k) {
			continue
		}
		d := f.planes[k].DistanceTo(s.Center)
		if d < -s.Radius {
			return Outside
		}
		if d < s.Radius {
			result = Intersect
		} else if state != nil {
			state.Set(k)
		}
	}
	return result
}
