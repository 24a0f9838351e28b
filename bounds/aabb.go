package bounds

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Aabb is an axis-aligned bounding box, stored as its two extreme corners.
// A consistent box satisfies Min[k] <= Max[k] on every axis; the only
// legal source of an inconsistent box is Intersect on disjoint inputs.
type Aabb struct {
	Min, Max mgl64.Vec3
}

func NewAabb(min, max mgl64.Vec3) Aabb {
	return Aabb{Min: min, Max: max}
}

// NewAabbAround returns the cube of the given half-width centered on c.
func NewAabbAround(c mgl64.Vec3, halfWidth float64) Aabb {
	h := mgl64.Vec3{halfWidth, halfWidth, halfWidth}
	return Aabb{Min: c.Sub(h), Max: c.Add(h)}
}

// AabbFromVertices fits a box around count vertices read from a packed
// float array. Each vertex starts at data[offset + i*stride] and occupies
// three consecutive values.
func AabbFromVertices(data []float64, offset, stride, count int) Aabb {
	if count <= 0 {
		return Aabb{}
	}
	b := Aabb{
		Min: mgl64.Vec3{data[offset], data[offset+1], data[offset+2]},
		Max: mgl64.Vec3{data[offset], data[offset+1], data[offset+2]},
	}
	for i := 1; i < count; i++ {
		at := offset + i*stride
		b.EnclosePoint(data[at], data[at+1], data[at+2])
	}
	return b
}

// AabbFromVertices32 is AabbFromVertices over a float32 array, the layout
// vertex buffers usually arrive in.
func AabbFromVertices32(data []float32, offset, stride, count int) Aabb {
	if count <= 0 {
		return Aabb{}
	}
	b := Aabb{
		Min: mgl64.Vec3{float64(data[offset]), float64(data[offset+1]), float64(data[offset+2])},
		Max: mgl64.Vec3{float64(data[offset]), float64(data[offset+1]), float64(data[offset+2])},
	}
	for i := 1; i < count; i++ {
		at := offset + i*stride
		b.EnclosePoint(float64(data[at]), float64(data[at+1]), float64(data[at+2]))
	}
	return b
}

// IsConsistent reports whether Min <= Max on every axis.
func (a Aabb) IsConsistent() bool {
	return a.Min[0] <= a.Max[0] && a.Min[1] <= a.Max[1] && a.Min[2] <= a.Max[2]
}

// Contains reports whether other lies entirely inside a, boundary included.
func (a Aabb) Contains(other Aabb) bool {
	return a.Min[0] <= other.Min[0] && a.Max[0] >= other.Max[0] &&
		a.Min[1] <= other.Min[1] && a.Max[1] >= other.Max[1] &&
		a.Min[2] <= other.Min[2] && a.Max[2] >= other.Max[2]
}

// ContainsPoint reports whether p lies inside a, boundary included.
func (a Aabb) ContainsPoint(p mgl64.Vec3) bool {
	return a.Min[0] <= p[0] && p[0] <= a.Max[0] &&
		a.Min[1] <= p[1] && p[1] <= a.Max[1] &&
		a.Min[2] <= p[2] && p[2] <= a.Max[2]
}

// Intersects reports whether the two boxes share at least one point.
// Touching faces count as intersecting.
func (a Aabb) Intersects(other Aabb) bool {
	return a.Min[0] <= other.Max[0] && a.Max[0] >= other.Min[0] &&
		a.Min[1] <= other.Max[1] && a.Max[1] >= other.Min[1] &&
		a.Min[2] <= other.Max[2] && a.Max[2] >= other.Min[2]
}

// Intersect returns the overlap of the two boxes. If they are disjoint the
// result is inconsistent; callers that cannot rule that out must check
// IsConsistent before using it.
func (a Aabb) Intersect(other Aabb) Aabb {
	return Aabb{
		Min: mgl64.Vec3{
			math.Max(a.Min[0], other.Min[0]),
			math.Max(a.Min[1], other.Min[1]),
			math.Max(a.Min[2], other.Min[2]),
		},
		Max: mgl64.Vec3{
			math.Min(a.Max[0], other.Max[0]),
			math.Min(a.Max[1], other.Max[1]),
			math.Min(a.Max[2], other.Max[2]),
		},
	}
}

// Union returns the smallest box containing both inputs.
func (a Aabb) Union(other Aabb) Aabb {
	return Aabb{
		Min: mgl64.Vec3{
			math.Min(a.Min[0], other.Min[0]),
			math.Min(a.Min[1], other.Min[1]),
			math.Min(a.Min[2], other.Min[2]),
		},
		Max: mgl64.Vec3{
			math.Max(a.Max[0], other.Max[0]),
			math.Max(a.Max[1], other.Max[1]),
			math.Max(a.Max[2], other.Max[2]),
		},
	}
}

// EnclosePoint grows the box in place so it contains (x, y, z).
func (a *Aabb) EnclosePoint(x, y, z float64) {
	if x < a.Min[0] {
		a.Min[0] = x
	}
	if y < a.Min[1] {
		a.Min[1] = y
	}
	if z < a.Min[2] {
		a.Min[2] = z
	}
	if x > a.Max[0] {
		a.Max[0] = x
	}
	if y > a.Max[1] {
		a.Max[1] = y
	}
	if z > a.Max[2] {
		a.Max[2] = z
	}
}

// Transform returns the tight axis-aligned bounds of this box after the
// affine transform m. The translation column seeds both corners; each of
// the nine linear terms then contributes its signed min to the new min and
// its signed max to the new max. For a non-affine m the result is merely
// conservative.
func (a Aabb) Transform(m mgl64.Mat4) Aabb {
	t := mgl64.Vec3{m.At(0, 3), m.At(1, 3), m.At(2, 3)}
	out := Aabb{Min: t, Max: t}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			c := m.At(i, j)
			lo := c * a.Min[j]
			hi := c * a.Max[j]
			if lo > hi {
				lo, hi = hi, lo
			}
			out.Min[i] += lo
			out.Max[i] += hi
		}
	}
	return out
}

// Center returns the midpoint of the box.
func (a Aabb) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// HalfExtent returns the half-widths along each axis.
func (a Aabb) HalfExtent() mgl64.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// Volume returns the enclosed volume; zero or negative for flat or
// inconsistent boxes.
func (a Aabb) Volume() float64 {
	d := a.Max.Sub(a.Min)
	return d[0] * d[1] * d[2]
}

// SurfaceArea returns the total area of the six faces.
func (a Aabb) SurfaceArea() float64 {
	d := a.Max.Sub(a.Min)
	return 2 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}

// ApproxEqual compares two boxes within tolerance eps per component.
func (a Aabb) ApproxEqual(other Aabb, eps float64) bool {
	return mgl64.FloatEqualThreshold(a.Min[0], other.Min[0], eps) &&
		mgl64.FloatEqualThreshold(a.Min[1], other.Min[1], eps) &&
		mgl64.FloatEqualThreshold(a.Min[2], other.Min[2], eps) &&
		mgl64.FloatEqualThreshold(a.Max[0], other.Max[0], eps) &&
		mgl64.FloatEqualThreshold(a.Max[1], other.Max[1], eps) &&
		mgl64.FloatEqualThreshold(a.Max[2], other.Max[2], eps)
}

// extentAlong returns the corner of the box farthest along n (positive) or
// farthest against it (negative). This is the p-vertex/n-vertex pair of
// the plane test.
func (a Aabb) extentAlong(n mgl64.Vec3, positive bool) mgl64.Vec3 {
	var out mgl64.Vec3
	for i := 0; i < 3; i++ {
		if (n[i] >= 0) == positive {
			out[i] = a.Max[i]
		} else {
			out[i] = a.Min[i]
		}
	}
	return out
}
