package bounds

import "github.com/go-gl/mathgl/mgl64"

// Volume is the small sum type over the two bound-volume kinds. Both Aabb
// and Sphere satisfy it, so code that only cares about culling can hold
// either.
type Volume interface {
	// Bounds returns the tight axis-aligned box around the volume.
	Bounds() Aabb
	// TransformVolume returns the volume moved through an affine matrix.
	TransformVolume(m mgl64.Mat4) Volume
	// EnclosePointVolume returns the volume grown to contain p.
	EnclosePointVolume(p mgl64.Vec3) Volume
	// TestFrustum classifies the volume against a frustum.
	TestFrustum(f *Frustum, state *PlaneState) FrustumResult
	// IntersectsVolume reports overlap with another volume of either kind.
	IntersectsVolume(o Volume) bool
}

// Bounds returns the box itself, satisfying Volume.
func (a Aabb) Bounds() Aabb { return a }

func (a Aabb) TransformVolume(m mgl64.Mat4) Volume { return a.Transform(m) }

func (a Aabb) EnclosePointVolume(p mgl64.Vec3) Volume {
	a.EnclosePoint(p[0], p[1], p[2])
	return a
}

// TestFrustum classifies the box against a frustum, satisfying Volume.
func (a Aabb) TestFrustum(f *Frustum, state *PlaneState) FrustumResult {
	return f.Intersects(a, state)
}

func (a Aabb) IntersectsVolume(o Volume) bool {
	switch v := o.(type) {
	case Aabb:
		return a.Intersects(v)
	case Sphere:
		return v.IntersectsAabb(a)
	}
	return a.Intersects(o.Bounds())
}

func (s Sphere) TransformVolume(m mgl64.Mat4) Volume { return s.Transform(m) }

func (s Sphere) EnclosePointVolume(p mgl64.Vec3) Volume { return s.Enclose(p) }

func (s Sphere) IntersectsVolume(o Volume) bool {
	switch v := o.(type) {
	case Aabb:
		return s.IntersectsAabb(v)
	case Sphere:
		return s.IntersectsSphere(v)
	}
	return s.IntersectsAabb(o.Bounds())
}
