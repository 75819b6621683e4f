package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffineInverseRoundTrip(t *testing.T) {
	tr := Translation(150, -20).Compose(Scale(2.5, 2.5))
	inv, ok := tr.Inverse()
	require.True(t, ok)

	p := Pt(13.25, 77)
	back := inv.Apply(tr.Apply(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)
}

func TestComposeOrder(t *testing.T) {
	// scale first, then translate
	tr := Translation(10, 20).Compose(Scale(2, 2))
	assert.Equal(t, Pt(12, 22), tr.Apply(Pt(1, 1)))
}

func TestSingularInverse(t *testing.T) {
	_, ok := Scale(0, 1).Inverse()
	assert.False(t, ok)
}

func TestRectIntersect(t *testing.T) {
	a := NewRect(0, 0, 100, 100)
	b := NewRect(50, -10, 100, 30)
	assert.Equal(t, NewRect(50, 0, 50, 20), a.Intersect(b))
	assert.Equal(t, Rect{}, a.Intersect(NewRect(200, 200, 5, 5)))
	assert.True(t, a.Contains(a.Center()))
}
