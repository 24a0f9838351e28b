package bounds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaneState(t *testing.T) {
	var s PlaneState
	assert.True(t, s.TestsRequired())
	for k := 0; k < FrustumPlaneCount; k++ {
		assert.False(t, s.Get(k))
	}

	s.Set(PlaneTop)
	assert.True(t, s.Get(PlaneTop))
	assert.False(t, s.Get(PlaneBottom))
	assert.True(t, s.TestsRequired())

	for k := 0; k < FrustumPlaneCount; k++ {
		s.Set(k)
	}
	assert.False(t, s.TestsRequired())

	s.Reset()
	assert.True(t, s.TestsRequired())
	assert.False(t, s.Get(PlaneTop))
}
