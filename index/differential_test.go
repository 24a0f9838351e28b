package index

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spatial-index/bounds"
)

// randomScene fills every index with the same boxes, all inside the
// default extent so the bounded variant accepts them.
func randomScene(t *testing.T, r *rand.Rand, n int, indices ...SpatialIndex[int]) []bounds.Aabb {
	t.Helper()
	boxes := make([]bounds.Aabb, n)
	for i := range boxes {
		c := mgl64.Vec3{
			r.Float64()*90 - 45,
			r.Float64()*90 - 45,
			r.Float64()*90 - 45,
		}
		h := mgl64.Vec3{
			r.Float64()*2 + 0.1,
			r.Float64()*2 + 0.1,
			r.Float64()*2 + 0.1,
		}
		boxes[i] = bounds.NewAabb(c.Sub(h), c.Add(h))
		for _, idx := range indices {
			require.True(t, idx.Add(i, boxes[i]))
		}
	}
	return boxes
}

func randomVolume(r *rand.Rand) bounds.Aabb {
	c := mgl64.Vec3{r.Float64()*100 - 50, r.Float64()*100 - 50, r.Float64()*100 - 50}
	h := mgl64.Vec3{r.Float64()*15 + 1, r.Float64()*15 + 1, r.Float64()*15 + 1}
	return bounds.NewAabb(c.Sub(h), c.Add(h))
}

func randomFrustum(t *testing.T, r *rand.Rand) *bounds.Frustum {
	t.Helper()
	f, err := bounds.NewPerspectiveFrustum(
		r.Float64()*60+60, // 60..120 degrees
		r.Float64()*1.5+0.5,
		r.Float64()*0.9+0.1,
		r.Float64()*100+50,
	)
	require.NoError(t, err)
	dir := mgl64.Vec3{r.Float64()*2 - 1, r.Float64()*0.8 - 0.4, r.Float64()*2 - 1}
	if dir.Len() < 0.1 {
		dir = mgl64.Vec3{0, 0, -1}
	}
	loc := mgl64.Vec3{r.Float64()*40 - 20, r.Float64()*40 - 20, r.Float64()*40 - 20}
	f.SetOrientation(loc, dir, mgl64.Vec3{0, 1, 0})
	return f
}

// differentialIndices builds the optimized variants next to the linear
// oracle they are compared against.
func differentialIndices(t *testing.T) (oracle *LinearIndex[int], grid *GridOctree[int], tree *HierarchicalOctree[int]) {
	t.Helper()
	oracle = NewLinearIndex[int]()
	grid = NewDefaultGridOctree[int]()
	var err error
	tree, err = NewHierarchicalOctree[int](DefaultExtent(), DefaultDepth)
	require.NoError(t, err)
	return oracle, grid, tree
}

func TestDifferentialAabbQueries(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	oracle, grid, tree := differentialIndices(t)
	randomScene(t, r, 300, oracle, grid, tree)

	for q := 0; q < 50; q++ {
		vol := randomVolume(r)
		want := queryItems[int](oracle, vol)
		assert.ElementsMatch(t, want, queryItems[int](grid, vol), "grid, volume %d", q)
		assert.ElementsMatch(t, want, queryItems[int](tree, vol), "tree, volume %d", q)
	}
}

func TestDifferentialFrustumQueries(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	oracle, grid, tree := differentialIndices(t)
	randomScene(t, r, 300, oracle, grid, tree)

	for q := 0; q < 30; q++ {
		f := randomFrustum(t, r)
		want := frustumItems[int](oracle, f)
		assert.ElementsMatch(t, want, frustumItems[int](grid, f), "grid, frustum %d", q)
		assert.ElementsMatch(t, want, frustumItems[int](tree, f), "tree, frustum %d", q)
	}
}

func TestDifferentialPairs(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	oracle, grid, tree := differentialIndices(t)
	randomScene(t, r, 250, oracle, grid, tree)

	want := pairCounts(oracle)
	for _, c := range want {
		require.Equal(t, 1, c)
	}
	assert.Equal(t, want, pairCounts(grid), "grid pair set")
	assert.Equal(t, want, pairCounts(tree), "tree pair set")
}

func TestDifferentialAfterRemovals(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	oracle, grid, tree := differentialIndices(t)
	randomScene(t, r, 200, oracle, grid, tree)

	for i := 0; i < 200; i += 2 {
		require.True(t, oracle.Remove(i))
		require.True(t, grid.Remove(i))
		require.True(t, tree.Remove(i))
	}

	for q := 0; q < 25; q++ {
		vol := randomVolume(r)
		want := queryItems[int](oracle, vol)
		assert.ElementsMatch(t, want, queryItems[int](grid, vol), "grid, volume %d", q)
		assert.ElementsMatch(t, want, queryItems[int](tree, vol), "tree, volume %d", q)
	}
	assert.Equal(t, pairCounts(oracle), pairCounts(grid))
	assert.Equal(t, pairCounts(oracle), pairCounts(tree))
}

func TestDifferentialRebuildAfterClear(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	oracle, grid, tree := differentialIndices(t)

	// Clear-and-rebuild every round, the per-frame usage pattern.
	for round := 0; round < 4; round++ {
		fast := round%2 == 0
		oracle.Clear(fast)
		grid.Clear(fast)
		tree.Clear(fast)
		randomScene(t, r, 150, oracle, grid, tree)

		vol := randomVolume(r)
		want := queryItems[int](oracle, vol)
		assert.ElementsMatch(t, want, queryItems[int](grid, vol), "round %d", round)
		assert.ElementsMatch(t, want, queryItems[int](tree, vol), "round %d", round)
	}
}

func ExampleGridOctree() {
	scene := NewDefaultGridOctree[string]()
	scene.Add("crate", b3(1, 0, -6, 2, 1, -5))
	scene.Add("tower", b3(30, 0, 30, 34, 12, 34))

	view, _ := bounds.NewPerspectiveFrustum(90, 16.0/9.0, 0.5, 100)
	scene.QueryFrustum(view, func(item string, _ bounds.Aabb) {
		fmt.Println(item)
	})
	// Output: crate
}
