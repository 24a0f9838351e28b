package bounds

// PlaneState is the six-bit cull cache threaded through hierarchical
// frustum traversal. Bit k set means plane k has already been proven
// redundant for every descendant of the current subtree and may be
// skipped. Traversal code must save the state before descending into a
// child and restore it on ascent.
type PlaneState uint8

const allPlaneBits PlaneState = (1 << FrustumPlaneCount) - 1

// Get reports whether plane k may be skipped.
func (s PlaneState) Get(plane int) bool {
	return s&(1<<plane) != 0
}

// Set marks plane k as proven redundant for the current subtree.
func (s *PlaneState) Set(plane int) {
	*s |= 1 << plane
}

// Reset clears all six bits.
func (s *PlaneState) Reset() {
	*s = 0
}

// TestsRequired is true while any plane still needs testing.
func (s PlaneState) TestsRequired() bool {
	return s != allPlaneBits
}
