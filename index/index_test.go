package index

import (
	"github.com/go-gl/mathgl/mgl64"

	"spatial-index/bounds"
)

func b3(minX, minY, minZ, maxX, maxY, maxZ float64) bounds.Aabb {
	return bounds.NewAabb(mgl64.Vec3{minX, minY, minZ}, mgl64.Vec3{maxX, maxY, maxZ})
}

func queryItems[T comparable](idx SpatialIndex[T], vol bounds.Aabb) []T {
	var out []T
	idx.QueryAabb(vol, func(item T, _ bounds.Aabb) {
		out = append(out, item)
	})
	return out
}

func frustumItems[T comparable](idx SpatialIndex[T], f *bounds.Frustum) []T {
	var out []T
	idx.QueryFrustum(f, func(item T, _ bounds.Aabb) {
		out = append(out, item)
	})
	return out
}

// pairCounts returns how often each unordered pair was reported.
func pairCounts(idx SpatialIndex[int]) map[[2]int]int {
	out := make(map[[2]int]int)
	idx.QueryPairs(func(a int, _ bounds.Aabb, b int, _ bounds.Aabb) {
		if a > b {
			a, b = b, a
		}
		out[[2]int{a, b}]++
	})
	return out
}
