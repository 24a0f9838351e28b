package index

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"spatial-index/bounds"
)

// Child octant bits: set means the positive half of the axis relative to
// the parent node's center.
const (
	octPosX = 1
	octPosY = 2
	octPosZ = 4
)

// A cell that survives this many consecutive clears without receiving an
// item is released.
const maxCellLifetime = 15

// gridCell is one leaf bucket: the indices of every item whose bounds
// intersect the cell.
type gridCell struct {
	keys     []int
	size     int
	hash     int // flat index into cells
	leaf     int // level-relative leaf index in the counts tree
	lifetime int // clears since the last add
}

func (c *gridCell) add(key int) {
	if c.size == len(c.keys) {
		keys := make([]int, grownCap(len(c.keys), c.size+1))
		copy(keys, c.keys)
		c.keys = keys
	}
	c.keys[c.size] = key
	c.size++
	c.lifetime = 0
}

func (c *gridCell) remove(key int) {
	for i := 0; i < c.size; i++ {
		if c.keys[i] == key {
			c.size--
			c.keys[i] = c.keys[c.size]
			return
		}
	}
}

func (c *gridCell) replace(old, new int) {
	for i := 0; i < c.size; i++ {
		if c.keys[i] == old {
			c.keys[i] = new
			return
		}
	}
}

// GridOctree is the packed grid-backed complete octree. A fully allocated
// counts tree sits on top of a flat N³ leaf grid (N = 2^(depth-1)): the
// internal levels hold conservative occupancy sums used to skip empty
// subtrees, the last level links each octree leaf to its grid cell, and
// the cells hold item indices into packed parallel arrays. Cells are
// allocated lazily and retained across clears while they keep seeing
// items.
//
// Counts are cell-occupancy sums, not item counts: an item spanning M
// cells adds M to every shared ancestor. Only zero versus non-zero is
// ever consumed.
type GridOctree[T comparable] struct {
	extent bounds.Aabb
	depth  int
	n      int // leaf cells per axis

	levelOffsets []int // offset of level L in counts: (8^L - 1) / 7
	counts       []int
	cells        []*gridCell

	elements []T
	aabbs    []float64 // 6 scalars per item
	queryIDs []int
	size     int

	queryIDCounter int

	scale  [3]float64
	offset [3]float64
}

// NewGridOctree builds a grid octree covering extent with the given tree
// depth. Depth 1 degenerates to a single cell.
func NewGridOctree[T comparable](extent bounds.Aabb, depth int) (*GridOctree[T], error) {
	if depth < 1 {
		return nil, fmt.Errorf("%w: %d", ErrBadDepth, depth)
	}
	g := &GridOctree[T]{
		depth: depth,
		n:     1 << (depth - 1),
	}
	g.levelOffsets = make([]int, depth)
	for l := 1; l < depth; l++ {
		g.levelOffsets[l] = g.levelOffsets[l-1]*8 + 1
	}
	g.counts = make([]int, g.levelOffsets[depth-1]*8+1)
	for i := g.levelOffsets[depth-1]; i < len(g.counts); i++ {
		g.counts[i] = -1 // no cell linked yet
	}
	g.cells = make([]*gridCell, g.n*g.n*g.n)
	g.setExtent(extent)
	return g, nil
}

// NewGridOctreeSized derives the depth from a world side length and a
// typical object size, covering the origin-centered cube of that side.
func NewGridOctreeSized[T comparable](sideLength, objectSize float64) (*GridOctree[T], error) {
	if sideLength <= 0 || objectSize <= 0 || objectSize > sideLength {
		return nil, fmt.Errorf("%w: side %v, object %v", ErrBadDepth, sideLength, objectSize)
	}
	depth := int(math.Ceil(math.Log2(sideLength / objectSize)))
	if depth < 1 {
		depth = 1
	}
	half := sideLength / 2
	extent := bounds.NewAabbAround(mgl64.Vec3{0, 0, 0}, half)
	return NewGridOctree[T](extent, depth)
}

// NewDefaultGridOctree uses the package default extent and depth.
func NewDefaultGridOctree[T comparable]() *GridOctree[T] {
	g, _ := NewGridOctree[T](DefaultExtent(), DefaultDepth)
	return g
}

func (g *GridOctree[T]) Size() int { return g.size }

func (g *GridOctree[T]) Extent() bounds.Aabb { return g.extent }

// SetExtent replaces the covered volume. Legal only while empty; retained
// empty cells keep their grid slots, which stay valid because the grid
// shape does not change.
func (g *GridOctree[T]) SetExtent(extent bounds.Aabb) error {
	if g.size != 0 {
		return ErrNotEmpty
	}
	g.setExtent(extent)
	return nil
}

func (g *GridOctree[T]) setExtent(extent bounds.Aabb) {
	g.extent = extent
	for i := 0; i < 3; i++ {
		g.offset[i] = -extent.Min[i]
		g.scale[i] = float64(g.n) / (extent.Max[i] - extent.Min[i])
	}
}

// cellCoord hashes one coordinate to its cell index, clamped to
// [0, n-1] so a value exactly on the far extent face lands in the last
// cell instead of one past it.
func (g *GridOctree[T]) cellCoord(v float64, axis int) int {
	c := int(math.Floor((v + g.offset[axis]) * g.scale[axis]))
	if c < 0 {
		return 0
	}
	if c >= g.n {
		return g.n - 1
	}
	return c
}

func (g *GridOctree[T]) hashCell(x, y, z int) int {
	return x + g.n*(y+g.n*z)
}

// leafIndexForCell walks the octree from the root to the leaf covering
// cell (x, y, z), consuming one coordinate bit per level, and returns the
// level-relative leaf index.
func (g *GridOctree[T]) leafIndexForCell(x, y, z int) int {
	idx := 0
	for i := g.depth - 2; i >= 0; i-- {
		oct := (x>>i)&1 | ((y>>i)&1)<<1 | ((z>>i)&1)<<2
		idx = idx<<3 | oct
	}
	return idx
}

// bumpCounts adds d to every ancestor of the given leaf, from its parent
// up to the root.
func (g *GridOctree[T]) bumpCounts(leaf, d int) {
	rel := leaf
	for level := g.depth - 1; level > 0; level-- {
		rel >>= 3
		g.counts[g.levelOffsets[level-1]+rel] += d
	}
}

func (g *GridOctree[T]) cellAt(x, y, z int) *gridCell {
	h := g.hashCell(x, y, z)
	cell := g.cells[h]
	if cell == nil {
		leaf := g.leafIndexForCell(x, y, z)
		cell = &gridCell{hash: h, leaf: leaf}
		g.cells[h] = cell
		g.counts[g.levelOffsets[g.depth-1]+leaf] = h
	}
	return cell
}

func (g *GridOctree[T]) Add(item T, b bounds.Aabb) bool {
	if !g.extent.Contains(b) {
		return false
	}
	if g.size == len(g.elements) {
		g.grow(g.size + 1)
	}
	idx := g.size
	g.elements[idx] = item
	putAabb(g.aabbs, idx, b)
	g.queryIDs[idx] = 0

	x0, y0, z0 := g.cellCoord(b.Min[0], 0), g.cellCoord(b.Min[1], 1), g.cellCoord(b.Min[2], 2)
	x1, y1, z1 := g.cellCoord(b.Max[0], 0), g.cellCoord(b.Max[1], 1), g.cellCoord(b.Max[2], 2)
	for z := z0; z <= z1; z++ {
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				cell := g.cellAt(x, y, z)
				cell.add(idx)
				g.bumpCounts(cell.leaf, 1)
			}
		}
	}
	g.size++
	return true
}

func (g *GridOctree[T]) grow(needed int) {
	c := grownCap(len(g.elements), needed)
	elements := make([]T, c)
	copy(elements, g.elements)
	g.elements = elements
	aabbs := make([]float64, c*6)
	copy(aabbs, g.aabbs)
	g.aabbs = aabbs
	queryIDs := make([]int, c)
	copy(queryIDs, g.queryIDs)
	g.queryIDs = queryIDs
}

// Remove drops item, finding its slot by linear scan (slots are not
// exposed to callers). The tail item is swapped into the freed slot and
// every cell it covers is repointed at its new index.
func (g *GridOctree[T]) Remove(item T) bool {
	slot := -1
	for i := 0; i < g.size; i++ {
		if g.elements[i] == item {
			slot = i
			break
		}
	}
	if slot < 0 {
		return false
	}

	g.forEachCoveredCell(getAabb(g.aabbs, slot), func(cell *gridCell) {
		cell.remove(slot)
		g.bumpCounts(cell.leaf, -1)
	})

	tail := g.size - 1
	if slot != tail {
		g.elements[slot] = g.elements[tail]
		copy(g.aabbs[slot*6:slot*6+6], g.aabbs[tail*6:tail*6+6])
		g.queryIDs[slot] = g.queryIDs[tail]
		g.forEachCoveredCell(getAabb(g.aabbs, slot), func(cell *gridCell) {
			cell.replace(tail, slot)
		})
	}
	var zero T
	g.elements[tail] = zero
	g.size--
	return true
}

func (g *GridOctree[T]) forEachCoveredCell(b bounds.Aabb, fn func(*gridCell)) {
	x0, y0, z0 := g.cellCoord(b.Min[0], 0), g.cellCoord(b.Min[1], 1), g.cellCoord(b.Min[2], 2)
	x1, y1, z1 := g.cellCoord(b.Max[0], 0), g.cellCoord(b.Max[1], 1), g.cellCoord(b.Max[2], 2)
	for z := z0; z <= z1; z++ {
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				if cell := g.cells[g.hashCell(x, y, z)]; cell != nil {
					fn(cell)
				}
			}
		}
	}
}

// Clear empties the index. Internal counts are zeroed and every cell is
// reset in place; cells that have sat empty through more than
// maxCellLifetime clears are released. With fast false, item references
// are additionally nulled for the collector.
func (g *GridOctree[T]) Clear(fast bool) {
	for i := 0; i < g.levelOffsets[g.depth-1]; i++ {
		g.counts[i] = 0
	}
	leafBase := g.levelOffsets[g.depth-1]
	for i, cell := range g.cells {
		if cell == nil {
			continue
		}
		cell.lifetime++
		if cell.lifetime > maxCellLifetime && cell.size == 0 {
			g.cells[i] = nil
			g.counts[leafBase+cell.leaf] = -1
			continue
		}
		cell.size = 0
	}
	if !fast {
		var zero T
		for i := 0; i < g.size; i++ {
			g.elements[i] = zero
		}
	}
	g.size = 0
}

// QueryAabb visits the cells covered by volume; the query id stamp keeps
// items spanning several of them from being reported twice.
func (g *GridOctree[T]) QueryAabb(volume bounds.Aabb, fn QueryFunc[T]) {
	g.queryIDCounter++
	qid := g.queryIDCounter
	g.forEachCoveredCell(volume, func(cell *gridCell) {
		for i := 0; i < cell.size; i++ {
			k := cell.keys[i]
			if g.queryIDs[k] == qid {
				continue
			}
			g.queryIDs[k] = qid
			b := getAabb(g.aabbs, k)
			if volume.Intersects(b) {
				fn(g.elements[k], b)
			}
		}
	})
}

// stepIntoChild narrows b in place to the given child octant, and
// stepOutOfChild reflects the halved side back out. The reflection is
// exact only when the two calls are strictly paired around one descent;
// traversal code keeps both in a single call site.
func stepIntoChild(b *bounds.Aabb, oct int) {
	for i, bit := 0, 1; i < 3; i, bit = i+1, bit<<1 {
		mid := (b.Min[i] + b.Max[i]) * 0.5
		if oct&bit != 0 {
			b.Min[i] = mid
		} else {
			b.Max[i] = mid
		}
	}
}

func stepOutOfChild(b *bounds.Aabb, oct int) {
	for i, bit := 0, 1; i < 3; i, bit = i+1, bit<<1 {
		if oct&bit != 0 {
			b.Min[i] = 2*b.Min[i] - b.Max[i]
		} else {
			b.Max[i] = 2*b.Max[i] - b.Min[i]
		}
	}
}

// QueryFrustum walks the counts tree from the root, stepping the node
// bounds in place, skipping empty subtrees, and threading the PlaneState
// cull cache and the last-failed-plane hint through the descent. Once a
// node tests fully inside, the whole subtree skips plane tests.
func (g *GridOctree[T]) QueryFrustum(f *bounds.Frustum, fn QueryFunc[T]) {
	g.queryIDCounter++
	nb := g.extent
	var state bounds.PlaneState
	hint := bounds.PlaneNear
	g.frustumVisit(f, fn, 0, 0, &nb, &state, false, g.queryIDCounter, &hint)
}

func (g *GridOctree[T]) frustumVisit(f *bounds.Frustum, fn QueryFunc[T], level, rel int, nb *bounds.Aabb, state *bounds.PlaneState, inside bool, qid int, hint *int) {
	if !inside {
		res, failed := f.IntersectsHinted(*nb, state, *hint)
		if res == bounds.Outside {
			*hint = failed
			return
		}
		if res == bounds.Inside {
			inside = true
		}
	}

	if level == g.depth-1 {
		link := g.counts[g.levelOffsets[level]+rel]
		if link < 0 {
			return
		}
		cell := g.cells[link]
		if cell == nil {
			return
		}
		for i := 0; i < cell.size; i++ {
			k := cell.keys[i]
			if g.queryIDs[k] == qid {
				continue
			}
			g.queryIDs[k] = qid
			b := getAabb(g.aabbs, k)
			if inside {
				fn(g.elements[k], b)
				continue
			}
			// The item box intersects this leaf, so the leaf's plane
			// state stays valid for it; each item gets a scratch copy.
			st := *state
			if f.Intersects(b, &st) != bounds.Outside {
				fn(g.elements[k], b)
			}
		}
		return
	}

	childLevel := level + 1
	childBase := g.levelOffsets[childLevel]
	leafChildren := childLevel == g.depth-1
	for oct := 0; oct < 8; oct++ {
		child := rel<<3 | oct
		if leafChildren {
			link := g.counts[childBase+child]
			if link < 0 {
				continue
			}
			if cell := g.cells[link]; cell == nil || cell.size == 0 {
				continue
			}
		} else if g.counts[childBase+child] <= 0 {
			continue
		}
		stepIntoChild(nb, oct)
		saved := *state
		g.frustumVisit(f, fn, childLevel, child, nb, state, inside, qid, hint)
		*state = saved
		stepOutOfChild(nb, oct)
	}
}

// QueryPairs enumerates unordered pairs per cell. A pair sharing several
// cells is owned by the cell of the per-axis maximum of the two minima,
// a point inside both boxes and therefore a cell both items are listed
// in, and is reported only from its owner.
func (g *GridOctree[T]) QueryPairs(fn PairFunc[T]) {
	for h, cell := range g.cells {
		if cell == nil || cell.size < 2 {
			continue
		}
		for i := 0; i < cell.size; i++ {
			ka := cell.keys[i]
			a := getAabb(g.aabbs, ka)
			for j := i + 1; j < cell.size; j++ {
				kb := cell.keys[j]
				b := getAabb(g.aabbs, kb)
				if !a.Intersects(b) {
					continue
				}
				ox := g.cellCoord(math.Max(a.Min[0], b.Min[0]), 0)
				oy := g.cellCoord(math.Max(a.Min[1], b.Min[1]), 1)
				oz := g.cellCoord(math.Max(a.Min[2], b.Min[2]), 2)
				if g.hashCell(ox, oy, oz) != h {
					continue
				}
				fn(g.elements[ka], a, g.elements[kb], b)
			}
		}
	}
}
