// Package index provides the spatial index family: a linear reference
// implementation, a pointer-based hierarchical octree, and the packed
// grid-backed octree that is the intended production structure.
//
// All three answer the same standing queries over a dynamic set of
// labeled bounding boxes: box overlap, frustum visibility, and all-pairs
// intersection. An index instance is single-threaded; callbacks run
// synchronously on the caller and must not mutate the index while a
// query is in flight.
package index

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"spatial-index/bounds"
)

// QueryFunc receives one matching item with its stored bounds. The bounds
// value is a copy; retaining it is safe.
type QueryFunc[T any] func(item T, b bounds.Aabb)

// PairFunc receives one intersecting pair. A pair is reported exactly
// once per query, in an implementation-defined item order.
type PairFunc[T any] func(a T, aBounds bounds.Aabb, b T, bBounds bounds.Aabb)

// SpatialIndex is the contract shared by all index variants. Items are
// compared by identity (==); the stored bounds are copies, so later
// mutation of the caller's box does not affect the index.
type SpatialIndex[T comparable] interface {
	// Add indexes item under b. It returns false when the bounds do not
	// fit the index extent, in which case the item is not indexed.
	Add(item T, b bounds.Aabb) bool
	// Remove drops item from the index, returning false if absent.
	Remove(item T) bool
	// Clear empties the index. With fast true, internal storage is reset
	// but item references are kept to be overwritten; with fast false
	// they are released for the collector.
	Clear(fast bool)
	// Size returns the number of indexed items.
	Size() int
	// QueryAabb invokes fn for every item whose bounds intersect volume.
	QueryAabb(volume bounds.Aabb, fn QueryFunc[T])
	// QueryFrustum invokes fn for every item whose bounds are not
	// entirely outside f.
	QueryFrustum(f *bounds.Frustum, fn QueryFunc[T])
	// QueryPairs invokes fn once for every unordered pair of items with
	// intersecting bounds.
	QueryPairs(fn PairFunc[T])
}

// BoundedSpatialIndex is implemented by variants that only cover a fixed
// spatial extent; Add rejects items that do not fit inside it.
type BoundedSpatialIndex[T comparable] interface {
	SpatialIndex[T]
	Extent() bounds.Aabb
	// SetExtent replaces the covered volume. It is legal only while the
	// index is empty.
	SetExtent(bounds.Aabb) error
}

var (
	ErrBadDepth = errors.New("octree depth must be at least 1")
	ErrNotEmpty = errors.New("extent can only change while the index is empty")
)

var (
	_ SpatialIndex[int]        = (*LinearIndex[int])(nil)
	_ SpatialIndex[int]        = (*HierarchicalOctree[int])(nil)
	_ BoundedSpatialIndex[int] = (*GridOctree[int])(nil)
)

// DefaultDepth is the tree depth used by the zero-argument constructors.
const DefaultDepth = 6

// DefaultExtent returns the default covered volume, a 100-unit cube
// centered on the origin.
func DefaultExtent() bounds.Aabb {
	return bounds.NewAabb(mgl64.Vec3{-50, -50, -50}, mgl64.Vec3{50, 50, 50})
}

// putAabb packs b into the 6-scalar slot i of a packed bounds array.
func putAabb(dst []float64, i int, b bounds.Aabb) {
	at := i * 6
	dst[at+0] = b.Min[0]
	dst[at+1] = b.Min[1]
	dst[at+2] = b.Min[2]
	dst[at+3] = b.Max[0]
	dst[at+4] = b.Max[1]
	dst[at+5] = b.Max[2]
}

// getAabb unpacks slot i of a packed bounds array.
func getAabb(src []float64, i int) bounds.Aabb {
	at := i * 6
	return bounds.Aabb{
		Min: mgl64.Vec3{src[at+0], src[at+1], src[at+2]},
		Max: mgl64.Vec3{src[at+3], src[at+4], src[at+5]},
	}
}

// grownCap returns the next capacity for amortized 1.5x growth.
func grownCap(current, needed int) int {
	next := current + current/2
	if next < 10 {
		next = 10
	}
	if next < needed {
		next = needed
	}
	return next
}
