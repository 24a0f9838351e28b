package bounds

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Fixed plane indices within a Frustum.
const (
	PlaneNear = iota
	PlaneFar
	PlaneTop
	PlaneBottom
	PlaneLeft
	PlaneRight

	FrustumPlaneCount = 6
)

// FrustumResult classifies a volume against a frustum.
type FrustumResult int

const (
	Outside FrustumResult = iota
	Intersect
	Inside
)

func (r FrustumResult) String() string {
	switch r {
	case Outside:
		return "outside"
	case Intersect:
		return "intersect"
	case Inside:
		return "inside"
	}
	return fmt.Sprintf("FrustumResult(%d)", int(r))
}

var (
	ErrBadFOV        = errors.New("field of view must be in (0, 180] degrees")
	ErrBadAspect     = errors.New("aspect ratio must be positive")
	ErrInvertedEdges = errors.New("frustum edges inverted: require left <= right, bottom <= top, near <= far")
	ErrBadNear       = errors.New("near plane must be positive for a perspective frustum")
)

// Frustum is a six-plane convex viewing volume. It is defined by a world
// orientation (location, direction, up) and six edge parameters measured
// in eye space; Update derives the orthonormal basis, the projection and
// view matrices, and the six world-space planes. Plane normals point into
// the volume.
//
// Matrix recomputation is deferred behind a dirty flag: setters only mark
// the frustum dirty and the next query or accessor pays for the update.
type Frustum struct {
	location  mgl64.Vec3
	direction mgl64.Vec3
	up        mgl64.Vec3

	left, right  float64
	bottom, top  float64
	near, far    float64
	ortho        bool

	view       mgl64.Mat4
	projection mgl64.Mat4
	planes     [6]Plane
	dirty      bool
}

// NewPerspectiveFrustum builds a perspective frustum from a vertical field
// of view in degrees, an aspect ratio and the near/far distances. The
// frustum starts at the origin looking down -Z with +Y up.
func NewPerspectiveFrustum(fovDeg, aspect, near, far float64) (*Frustum, error) {
	f := defaultOriented()
	if err := f.SetPerspective(fovDeg, aspect, near, far); err != nil {
		return nil, err
	}
	return f, nil
}

// NewFrustum builds a frustum from raw edge parameters. When ortho is
// false the edges describe the view window on the near plane, as in
// glFrustum. The frustum starts at the origin looking down -Z with +Y up.
func NewFrustum(ortho bool, left, right, bottom, top, near, far float64) (*Frustum, error) {
	f := defaultOriented()
	if err := f.SetFrustum(ortho, left, right, bottom, top, near, far); err != nil {
		return nil, err
	}
	return f, nil
}

func defaultOriented() *Frustum {
	return &Frustum{
		location:  mgl64.Vec3{0, 0, 0},
		direction: mgl64.Vec3{0, 0, -1},
		up:        mgl64.Vec3{0, 1, 0},
		dirty:     true,
	}
}

// SetPerspective reconfigures the view window from perspective parameters.
func (f *Frustum) SetPerspective(fovDeg, aspect, near, far float64) error {
	if fovDeg <= 0 || fovDeg > 180 {
		return fmt.Errorf("%w: %v", ErrBadFOV, fovDeg)
	}
	if aspect <= 0 {
		return fmt.Errorf("%w: %v", ErrBadAspect, aspect)
	}
	h := math.Tan(mgl64.DegToRad(fovDeg)*0.5) * near
	return f.SetFrustum(false, -h*aspect, h*aspect, -h, h, near, far)
}

// SetFrustum reconfigures the view window from raw edges.
func (f *Frustum) SetFrustum(ortho bool, left, right, bottom, top, near, far float64) error {
	if !ortho && near <= 0 {
		return fmt.Errorf("%w: %v", ErrBadNear, near)
	}
	if left > right || bottom > top || near > far {
		return fmt.Errorf("%w: (%v,%v) (%v,%v) (%v,%v)", ErrInvertedEdges, left, right, bottom, top, near, far)
	}
	f.left, f.right = left, right
	f.bottom, f.top = bottom, top
	f.near, f.far = near, far
	f.ortho = ortho
	f.dirty = true
	return nil
}

// SetOrientation repositions the frustum in world space. direction and up
// need not be unit length but must not be parallel.
func (f *Frustum) SetOrientation(location, direction, up mgl64.Vec3) {
	f.location = location
	f.direction = direction
	f.up = up
	f.dirty = true
}

func (f *Frustum) Location() mgl64.Vec3  { return f.location }
func (f *Frustum) Direction() mgl64.Vec3 { return f.direction }
func (f *Frustum) Up() mgl64.Vec3        { return f.up }
func (f *Frustum) Ortho() bool           { return f.ortho }

// ViewMatrix returns the world-to-eye matrix for the current orientation.
func (f *Frustum) ViewMatrix() mgl64.Mat4 {
	if f.dirty {
		f.Update()
	}
	return f.view
}

// ProjectionMatrix returns the eye-to-clip matrix for the current edges.
func (f *Frustum) ProjectionMatrix() mgl64.Mat4 {
	if f.dirty {
		f.Update()
	}
	return f.projection
}

// WorldPlane returns world plane k (normalized, normal pointing inward).
func (f *Frustum) WorldPlane(k int) Plane {
	if f.dirty {
		f.Update()
	}
	return f.planes[k]
}

// Update recomputes the basis, the matrices, and the six world planes.
// Callers normally never need this; it runs lazily on the next query
// after a setter.
func (f *Frustum) Update() {
	// Right-handed orthonormal basis. n points backward, fwd = -n.
	n := f.direction.Normalize().Mul(-1)
	u := f.up.Cross(n).Normalize()
	v := n.Cross(u).Normalize()

	loc := f.location
	f.view = mgl64.Mat4{
		u[0], v[0], n[0], 0,
		u[1], v[1], n[1], 0,
		u[2], v[2], n[2], 0,
		-u.Dot(loc), -v.Dot(loc), -n.Dot(loc), 1,
	}

	if f.ortho {
		f.projection = mgl64.Ortho(f.left, f.right, f.bottom, f.top, f.near, f.far)
	} else {
		f.projection = mgl64.Frustum(f.left, f.right, f.bottom, f.top, f.near, f.far)
	}

	fwd := n.Mul(-1)
	f.planes[PlaneNear] = Plane{Normal: fwd, D: -fwd.Dot(loc) - f.near}
	f.planes[PlaneFar] = Plane{Normal: n, D: fwd.Dot(loc) + f.far}

	if f.ortho {
		// Side planes are parallel offsets of the basis axes.
		f.planes[PlaneLeft] = Plane{Normal: u, D: -u.Dot(loc) - f.left}
		f.planes[PlaneRight] = Plane{Normal: u.Mul(-1), D: u.Dot(loc) + f.right}
		f.planes[PlaneBottom] = Plane{Normal: v, D: -v.Dot(loc) - f.bottom}
		f.planes[PlaneTop] = Plane{Normal: v.Mul(-1), D: v.Dot(loc) + f.top}
	} else {
		// Side planes pass through the eye, tilted by the edge offsets on
		// the near plane; 1/hyp normalizes each normal in one step.
		f.planes[PlaneLeft] = perspectiveSidePlane(loc, u, fwd, f.left, f.near, false)
		f.planes[PlaneRight] = perspectiveSidePlane(loc, u, fwd, f.right, f.near, true)
		f.planes[PlaneBottom] = perspectiveSidePlane(loc, v, fwd, f.bottom, f.near, false)
		f.planes[PlaneTop] = perspectiveSidePlane(loc, v, fwd, f.top, f.near, true)
	}

	f.dirty = false
}

// perspectiveSidePlane builds the world plane through the eye whose trace
// on the near plane is axis = edge. For the max-side planes (right, top)
// the normal tilts the other way.
func perspectiveSidePlane(loc, axis, fwd mgl64.Vec3, edge, near float64, maxSide bool) Plane {
	invHyp := 1.0 / math.Sqrt(near*near+edge*edge)
	var normal mgl64.Vec3
	if maxSide {
		normal = fwd.Mul(edge * invHyp).Sub(axis.Mul(near * invHyp))
	} else {
		normal = axis.Mul(near * invHyp).Sub(fwd.Mul(edge * invHyp))
	}
	return Plane{Normal: normal, D: -normal.Dot(loc)}
}

// FrustumFromMatrix extracts the six planes from a composed
// view-projection matrix (Gribb/Hartmann). The result classifies volumes
// like a parametric frustum but carries no basis, so the orientation and
// edge setters do not apply to it.
func FrustumFromMatrix(vp mgl64.Mat4) *Frustum {
	row := func(i int) mgl64.Vec4 {
		return mgl64.Vec4{vp.At(i, 0), vp.At(i, 1), vp.At(i, 2), vp.At(i, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	f := &Frustum{}
	set := func(k int, v mgl64.Vec4) {
		f.planes[k] = NewPlane(v[0], v[1], v[2], v[3]).Normalize()
	}
	set(PlaneNear, r3.Add(r2))
	set(PlaneFar, r3.Sub(r2))
	set(PlaneTop, r3.Sub(r1))
	set(PlaneBottom, r3.Add(r1))
	set(PlaneLeft, r3.Add(r0))
	set(PlaneRight, r3.Sub(r0))
	return f
}

// Intersects classifies box against the frustum. state, when non-nil,
// carries the cull cache across a hierarchical traversal: planes whose bit
// is set are skipped, and planes the box lies fully inside of get their
// bit set for the subtree below.
func (f *Frustum) Intersects(box Aabb, state *PlaneState) FrustumResult {
	r, _ := f.IntersectsHinted(box, state, PlaneNear)
	return r
}

// IntersectsHinted is Intersects with a test-order hint: firstPlane is
// tried first, which pays off when it is the plane that rejected the
// previous box in a coherent query stream. It returns the classification
// and the index of the rejecting plane, or -1 if the box was not
// rejected.
func (f *Frustum) IntersectsHinted(box Aabb, state *PlaneState, firstPlane int) (FrustumResult, int) {
	if f.dirty {
		f.Update()
	}
	if state != nil && !state.TestsRequired() {
		return Inside, -1
	}
	if firstPlane < 0 || firstPlane >= FrustumPlaneCount {
		firstPlane = PlaneNear
	}

	result := Inside
	for i := 0; i < FrustumPlaneCount; i++ {
		k := firstPlane + i
		if k >= FrustumPlaneCount {
			k -= FrustumPlaneCount
		}
		if state != nil && state.Get(k) {
			continue
		}
		p := &f.planes[k]
		if p.DistanceTo(box.extentAlong(p.Normal, true)) < 0 {
			return Outside, k
		}
		if p.DistanceTo(box.extentAlong(p.Normal, false)) < 0 {
			result = Intersect
		} else if state != nil {
			// Box is fully inside plane k; descendants can skip it.
			state.Set(k)
		}
	}
	return result, -1
}

// ContainsPoint reports whether p is inside or on the frustum boundary.
func (f *Frustum) ContainsPoint(p mgl64.Vec3) bool {
	if f.dirty {
		f.Update()
	}
	for k := 0; k < FrustumPlaneCount; k++ {
		if f.planes[k].DistanceTo(p) < 0 {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether the sphere touches the frustum.
func (f *Frustum) IntersectsSphere(s Sphere) bool {
	if f.dirty {
		f.Update()
	}
	for k := 0; k < FrustumPlaneCount; k++ {
		if f.planes[k].DistanceTo(s.Center) < -s.Radius {
			return false
		}
	}
	return true
}
