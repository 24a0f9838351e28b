package index

import "spatial-index/bounds"

// Key is the opaque handle returned by AddKeyed; it lets Update relocate
// an item without a lookup.
type Key[T comparable] struct {
	item T
	aabb bounds.Aabb
	node *treeNode[T]
}

type treeNode[T comparable] struct {
	parent     *treeNode[T]
	children   [8]*treeNode[T]
	childCount int
	octant     int
	depth      int
	bounds     bounds.Aabb
	entries    []*Key[T]
}

// HierarchicalOctree is the pointer-based dynamic octree. Each node keeps
// the items whose bounds it fully contains but that span at least two of
// its children. The root is unbounded: items outside it trigger root
// growth, so Add never fails. Nodes emptied by removals collect on a
// pending set and are detached in bulk before the next query.
type HierarchicalOctree[T comparable] struct {
	root     *treeNode[T]
	maxDepth int
	entries  map[T]*Key[T]
	pending  map[*treeNode[T]]struct{}
	size     int
}

// NewHierarchicalOctree builds an octree over an initial extent. The
// extent is a starting hint, not a limit. maxDepth bounds subdivision
// below the root level set at construction (or by the last Clear): nodes
// sit at most maxDepth-1 levels below it, and root growth adds levels
// above it without changing that limit.
func NewHierarchicalOctree[T comparable](extent bounds.Aabb, maxDepth int) (*HierarchicalOctree[T], error) {
	if maxDepth < 1 {
		return nil, ErrBadDepth
	}
	return &HierarchicalOctree[T]{
		root:     &treeNode[T]{bounds: extent},
		maxDepth: maxDepth,
		entries:  make(map[T]*Key[T]),
		pending:  make(map[*treeNode[T]]struct{}),
	}, nil
}

// NewDefaultHierarchicalOctree uses the package default extent and depth.
func NewDefaultHierarchicalOctree[T comparable]() *HierarchicalOctree[T] {
	h, _ := NewHierarchicalOctree[T](DefaultExtent(), DefaultDepth)
	return h
}

func (h *HierarchicalOctree[T]) Size() int { return h.size }

func (h *HierarchicalOctree[T]) Add(item T, b bounds.Aabb) bool {
	h.AddKeyed(item, b)
	return true
}

// AddKeyed indexes item and returns its relocation key for Update.
func (h *HierarchicalOctree[T]) AddKeyed(item T, b bounds.Aabb) *Key[T] {
	k := &Key[T]{item: item, aabb: b}
	h.insert(k)
	h.entries[item] = k
	h.size++
	return k
}

func (h *HierarchicalOctree[T]) insert(k *Key[T]) {
	h.growRootFor(k.aabb)
	node := h.root
	for node.depth < h.maxDepth-1 {
		oct, ok := childOctantFor(node.bounds, k.aabb)
		if !ok {
			break
		}
		node = h.childAt(node, oct)
	}
	node.entries = append(node.entries, k)
	k.node = node
}

// childOctantFor returns the child octant that strictly contains b, or
// ok=false when b spans or touches a center plane and must stay on the
// current node. Strictness matters: boxes that merely touch across a
// split plane still intersect, and the pair walk relies on them landing
// on ancestor-related nodes.
func childOctantFor(nb, b bounds.Aabb) (int, bool) {
	c := nb.Center()
	oct := 0
	for i := 0; i < 3; i++ {
		switch {
		case b.Min[i] > c[i]:
			oct |= 1 << i
		case b.Max[i] < c[i]:
			// negative half, bit stays 0
		default:
			return 0, false
		}
	}
	return oct, true
}

func (h *HierarchicalOctree[T]) childAt(node *treeNode[T], oct int) *treeNode[T] {
	if child := node.children[oct]; child != nil {
		return child
	}
	cb := node.bounds
	stepIntoChild(&cb, oct)
	child := &treeNode[T]{
		parent: node,
		octant: oct,
		depth:  node.depth + 1,
		bounds: cb,
	}
	node.children[oct] = child
	node.childCount++
	return child
}

// growRootFor re-roots the tree until the root contains b. Each round
// doubles the root's side length, extending toward the box on every axis
// it sticks out of; the old root becomes the child octant on the far
// side of the growth.
func (h *HierarchicalOctree[T]) growRootFor(b bounds.Aabb) {
	for !h.root.bounds.Contains(b) {
		rb := h.root.bounds
		size := rb.Max.Sub(rb.Min)
		pb := rb
		oct := 0
		for i := 0; i < 3; i++ {
			if b.Min[i] < rb.Min[i] {
				pb.Min[i] -= size[i]
				oct |= 1 << i // old root sits in the positive half
			} else {
				pb.Max[i] += size[i]
			}
		}
		parent := &treeNode[T]{bounds: pb, depth: h.root.depth - 1, childCount: 1}
		parent.children[oct] = h.root
		h.root.parent = parent
		h.root.octant = oct
		h.root = parent
	}
}

func (h *HierarchicalOctree[T]) Remove(item T) bool {
	k, ok := h.entries[item]
	if !ok {
		return false
	}
	h.detach(k)
	delete(h.entries, item)
	h.size--
	return true
}

func (h *HierarchicalOctree[T]) detach(k *Key[T]) {
	node := k.node
	for i, e := range node.entries {
		if e == k {
			last := len(node.entries) - 1
			node.entries[i] = node.entries[last]
			node.entries[last] = nil
			node.entries = node.entries[:last]
			break
		}
	}
	k.node = nil
	if len(node.entries) == 0 && node.childCount == 0 && node != h.root {
		h.pending[node] = struct{}{}
	}
}

// Update moves an item to new bounds using the key returned by AddKeyed.
// It returns false when the key does not belong to a live entry for item.
func (h *HierarchicalOctree[T]) Update(item T, b bounds.Aabb, key *Key[T]) bool {
	if key == nil || h.entries[item] != key {
		return false
	}
	h.detach(key)
	key.aabb = b
	h.insert(key)
	return true
}

func (h *HierarchicalOctree[T]) Clear(fast bool) {
	h.root = &treeNode[T]{bounds: h.root.bounds}
	if fast {
		clear(h.entries)
		clear(h.pending)
	} else {
		h.entries = make(map[T]*Key[T])
		h.pending = make(map[*treeNode[T]]struct{})
	}
	h.size = 0
}

// prune detaches nodes emptied since the last query, walking up while the
// chain stays empty and childless.
func (h *HierarchicalOctree[T]) prune() {
	for node := range h.pending {
		for node != h.root && len(node.entries) == 0 && node.childCount == 0 {
			p := node.parent
			if p == nil || p.children[node.octant] != node {
				break
			}
			p.children[node.octant] = nil
			p.childCount--
			node.parent = nil
			node = p
		}
	}
	clear(h.pending)
}

func (h *HierarchicalOctree[T]) QueryAabb(volume bounds.Aabb, fn QueryFunc[T]) {
	h.prune()
	h.queryAabbNode(h.root, volume, fn)
}

func (h *HierarchicalOctree[T]) queryAabbNode(n *treeNode[T], volume bounds.Aabb, fn QueryFunc[T]) {
	for _, k := range n.entries {
		if volume.Intersects(k.aabb) {
			fn(k.item, k.aabb)
		}
	}
	if n.childCount == 0 {
		return
	}
	c := n.bounds.Center()
	for oct, child := range n.children {
		if child == nil {
			continue
		}
		// Skip children on the wrong side of every axis the volume does
		// not reach across.
		if oct&octPosX != 0 {
			if volume.Max[0] < c[0] {
				continue
			}
		} else if volume.Min[0] > c[0] {
			continue
		}
		if oct&octPosY != 0 {
			if volume.Max[1] < c[1] {
				continue
			}
		} else if volume.Min[1] > c[1] {
			continue
		}
		if oct&octPosZ != 0 {
			if volume.Max[2] < c[2] {
				continue
			}
		} else if volume.Min[2] > c[2] {
			continue
		}
		h.queryAabbNode(child, volume, fn)
	}
}

func (h *HierarchicalOctree[T]) QueryFrustum(f *bounds.Frustum, fn QueryFunc[T]) {
	h.prune()
	var state bounds.PlaneState
	hint := bounds.PlaneNear
	h.queryFrustumNode(h.root, f, fn, &state, false, &hint)
}

func (h *HierarchicalOctree[T]) queryFrustumNode(n *treeNode[T], f *bounds.Frustum, fn QueryFunc[T], state *bounds.PlaneState, inside bool, hint *int) {
	if !inside {
		res, failed := f.IntersectsHinted(n.bounds, state, *hint)
		if res == bounds.Outside {
			*hint = failed
			return
		}
		if res == bounds.Inside {
			inside = true
		}
	}
	for _, k := range n.entries {
		if inside {
			fn(k.item, k.aabb)
			continue
		}
		// Entry bounds are contained in the node, so the node's plane
		// state applies; each entry gets a scratch copy.
		st := *state
		if f.Intersects(k.aabb, &st) != bounds.Outside {
			fn(k.item, k.aabb)
		}
	}
	if n.childCount == 0 {
		return
	}
	for _, child := range n.children {
		if child == nil {
			continue
		}
		saved := *state
		h.queryFrustumNode(child, f, fn, state, inside, hint)
		*state = saved
	}
}

func (h *HierarchicalOctree[T]) QueryPairs(fn PairFunc[T]) {
	h.prune()
	stack := make([]*Key[T], 0, h.size)
	h.queryPairsNode(h.root, stack, fn)
}

// queryPairsNode reports pairs within the node and between the node and
// its ancestor stack. Intersecting boxes always land on ancestor-related
// nodes (siblings are separated by a split plane), so every pair is seen
// exactly once.
func (h *HierarchicalOctree[T]) queryPairsNode(n *treeNode[T], stack []*Key[T], fn PairFunc[T]) {
	for i, a := range n.entries {
		for j := i + 1; j < len(n.entries); j++ {
			b := n.entries[j]
			if a.aabb.Intersects(b.aabb) {
				fn(a.item, a.aabb, b.item, b.aabb)
			}
		}
		for _, anc := range stack {
			if a.aabb.Intersects(anc.aabb) {
				fn(anc.item, anc.aabb, a.item, a.aabb)
			}
		}
	}
	if n.childCount == 0 {
		return
	}
	stack = append(stack, n.entries...)
	for _, child := range n.children {
		if child != nil {
			h.queryPairsNode(child, stack, fn)
		}
	}
}
