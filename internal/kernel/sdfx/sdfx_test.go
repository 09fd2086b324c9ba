package sdfx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox(t *testing.T) {
	k := New()

	s, err := k.Box(2, 4, 6)
	require.NoError(t, err)

	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 0, min[i], 1e-9)
	}
	assert.InDelta(t, 2, max[0], 1e-9)
	assert.InDelta(t, 4, max[1], 1e-9)
	assert.InDelta(t, 6, max[2], 1e-9)

	_, err = k.Box(-1, 1, 1)
	assert.Error(t, err)
}

func TestCylinder(t *testing.T) {
	k := New()

	s, err := k.Cylinder(10, 2)
	require.NoError(t, err)

	min, max := s.BoundingBox()
	assert.InDelta(t, -2, min[0], 1e-9)
	assert.InDelta(t, -5, min[2], 1e-9)
	assert.InDelta(t, 2, max[0], 1e-9)
	assert.InDelta(t, 5, max[2], 1e-9)
}

func TestUnionAndTranslate(t *testing.T) {
	k := New()

	a, err := k.Box(1, 1, 1)
	require.NoError(t, err)
	b, err := k.Box(1, 1, 1)
	require.NoError(t, err)

	moved, err := k.Translate(b, 3, 0, 0)
	require.NoError(t, err)

	u, err := k.Union(a, moved)
	require.NoError(t, err)

	min, max := u.BoundingBox()
	assert.InDelta(t, 0, min[0], 1e-9)
	assert.InDelta(t, 4, max[0], 1e-9)

	_, err = k.Union(a, nil)
	assert.Error(t, err)
	_, err = k.Translate(nil, 1, 0, 0)
	assert.Error(t, err)
}
