package bounds

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standardFrustum(t *testing.T) *Frustum {
	t.Helper()
	f, err := NewPerspectiveFrustum(90, 1, 1, 10)
	require.NoError(t, err)
	return f
}

func TestFrustumConstructionValidation(t *testing.T) {
	_, err := NewPerspectiveFrustum(0, 1, 1, 10)
	assert.ErrorIs(t, err, ErrBadFOV)
	_, err = NewPerspectiveFrustum(181, 1, 1, 10)
	assert.ErrorIs(t, err, ErrBadFOV)
	_, err = NewPerspectiveFrustum(90, -1, 1, 10)
	assert.ErrorIs(t, err, ErrBadAspect)
	_, err = NewPerspectiveFrustum(90, 1, -1, 10)
	assert.ErrorIs(t, err, ErrBadNear)
	_, err = NewPerspectiveFrustum(90, 1, 0, 10)
	assert.ErrorIs(t, err, ErrBadNear)

	_, err = NewFrustum(false, 1, -1, -1, 1, 1, 10)
	assert.ErrorIs(t, err, ErrInvertedEdges)
	_, err = NewFrustum(false, -1, 1, 1, -1, 1, 10)
	assert.ErrorIs(t, err, ErrInvertedEdges)
	_, err = NewFrustum(false, -1, 1, -1, 1, 10, 1)
	assert.ErrorIs(t, err, ErrInvertedEdges)
	_, err = NewFrustum(false, -1, 1, -1, 1, 0, 10)
	assert.ErrorIs(t, err, ErrBadNear)

	// Orthographic volumes may start at or behind the eye.
	_, err = NewFrustum(true, -5, 5, -5, 5, -2, 10)
	assert.NoError(t, err)

	_, err = NewPerspectiveFrustum(180, 1, 1, 10)
	assert.NoError(t, err, "180 degrees is the inclusive limit")
}

func TestFrustumIntersectsBox(t *testing.T) {
	f := standardFrustum(t)

	// Fully in view along -Z.
	assert.Equal(t, Inside, f.Intersects(box(-1, -1, -5, 1, 1, -4), nil))
	// Off to the side.
	assert.Equal(t, Outside, f.Intersects(box(10, 0, 0, 11, 1, 1), nil))
	// Behind the eye.
	assert.Equal(t, Outside, f.Intersects(box(-1, -1, 4, 1, 1, 5), nil))
	// Straddling the near plane.
	assert.Equal(t, Intersect, f.Intersects(box(-0.2, -0.2, -2, 0.2, 0.2, -0.5), nil))
	// Straddling the far plane.
	assert.Equal(t, Intersect, f.Intersects(box(-0.2, -0.2, -12, 0.2, 0.2, -8), nil))
	// Enormous box containing the whole frustum still intersects.
	assert.Equal(t, Intersect, f.Intersects(box(-100, -100, -100, 100, 100, 100), nil))
}

func TestFrustumContainsPoint(t *testing.T) {
	f := standardFrustum(t)
	assert.True(t, f.ContainsPoint(mgl64.Vec3{0, 0, -5}))
	assert.True(t, f.ContainsPoint(mgl64.Vec3{4, 4, -5}), "fov 90 reaches |x|=z")
	assert.False(t, f.ContainsPoint(mgl64.Vec3{6, 0, -5}))
	assert.False(t, f.ContainsPoint(mgl64.Vec3{0, 0, -0.5}), "in front of near")
	assert.False(t, f.ContainsPoint(mgl64.Vec3{0, 0, 5}))
}

func TestFrustumOrientation(t *testing.T) {
	f := standardFrustum(t)
	f.SetOrientation(mgl64.Vec3{0, 0, -20}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 1, 0})

	// The same box is now behind the eye; one at +Z is visible.
	assert.Equal(t, Outside, f.Intersects(box(-1, -1, -25, 1, 1, -24), nil))
	assert.Equal(t, Inside, f.Intersects(box(-1, -1, -16, 1, 1, -15), nil))
}

func TestFrustumOrtho(t *testing.T) {
	f, err := NewFrustum(true, -5, 5, -5, 5, 0, 10)
	require.NoError(t, err)

	assert.Equal(t, Inside, f.Intersects(box(-1, -1, -6, 1, 1, -4), nil))
	assert.Equal(t, Outside, f.Intersects(box(6, -1, -6, 8, 1, -4), nil))
	assert.Equal(t, Intersect, f.Intersects(box(4, -1, -6, 6, 1, -4), nil))
	// Depth is a slab, not a wedge: far corners stay in view.
	assert.Equal(t, Inside, f.Intersects(box(3, 3, -10, 5, 5, -9), nil))
}

func TestFrustumPlaneState(t *testing.T) {
	f := standardFrustum(t)
	inner := box(-0.5, -0.5, -6, 0.5, 0.5, -5)

	var state PlaneState
	require.Equal(t, Inside, f.Intersects(inner, &state))
	assert.False(t, state.TestsRequired(), "fully-inside box proves every plane")

	// With all bits set the test short-circuits, even for a box that is
	// actually outside.
	assert.Equal(t, Inside, f.Intersects(box(50, 50, 50, 51, 51, 51), &state))

	// A straddling box proves only the planes it is fully inside of.
	state.Reset()
	require.Equal(t, Intersect, f.Intersects(box(-0.2, -0.2, -2, 0.2, 0.2, -0.5), &state))
	assert.True(t, state.TestsRequired())
	assert.True(t, state.Get(PlaneFar), "far plane is proven")
	assert.False(t, state.Get(PlaneNear), "near plane is straddled")
}

func TestFrustumIntersectsHinted(t *testing.T) {
	f := standardFrustum(t)

	res, failed := f.IntersectsHinted(box(10, 0, 0, 11, 1, 1), nil, PlaneNear)
	assert.Equal(t, Outside, res)
	require.GreaterOrEqual(t, failed, 0)

	// Retesting with the failing plane as the hint rejects on it again.
	res2, failed2 := f.IntersectsHinted(box(10, 0, 0, 11, 1, 1), nil, failed)
	assert.Equal(t, Outside, res2)
	assert.Equal(t, failed, failed2)

	res, failed = f.IntersectsHinted(box(-1, -1, -5, 1, 1, -4), nil, PlaneRight)
	assert.Equal(t, Inside, res)
	assert.Equal(t, -1, failed)
}

func TestFrustumFromMatrixAgrees(t *testing.T) {
	f := standardFrustum(t)
	f.SetOrientation(mgl64.Vec3{3, 2, 1}, mgl64.Vec3{-1, 0.2, -0.5}, mgl64.Vec3{0, 1, 0})

	vp := f.ProjectionMatrix().Mul4(f.ViewMatrix())
	extracted := FrustumFromMatrix(vp)

	boxes := []Aabb{
		box(-1, -1, -5, 1, 1, -4),
		box(10, 0, 0, 11, 1, 1),
		box(-0.2, -0.2, -2, 0.2, 0.2, -0.5),
		box(-4, -3, -8, -2, -1, -6),
		box(2, 2, -1, 3, 3, 0),
		box(-20, -20, -20, 20, 20, 20),
	}
	for _, b := range boxes {
		assert.Equal(t, f.Intersects(b, nil), extracted.Intersects(b, nil),
			"classification mismatch for %v", b)
	}
}

func TestFrustumSphere(t *testing.T) {
	f := standardFrustum(t)
	assert.True(t, f.IntersectsSphere(NewSphere(mgl64.Vec3{0, 0, -5}, 1)))
	assert.True(t, f.IntersectsSphere(NewSphere(mgl64.Vec3{0, 0, 0}, 2)), "straddles near plane")
	assert.False(t, f.IntersectsSphere(NewSphere(mgl64.Vec3{20, 0, 0}, 1)))
}
