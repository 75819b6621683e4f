package stroke

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgedit/pkg/colorutil"
	"imgedit/pkg/geometry"
)

var red = Brush{Color: colorutil.Red, Size: 10}

func TestStrokeThroughAllPoints(t *testing.T) {
	r := NewRecorder()
	r.Begin(geometry.Pt(0, 0))
	r.Extend(geometry.Pt(10, 0), red, 1)
	r.Extend(geometry.Pt(10, 10), red, 1)
	r.Finish(geometry.Pt(20, 10), red, 1)

	segs := r.Segments()
	require.Len(t, segs, 3)
	assert.Equal(t, geometry.Pt(0, 0), segs[0].Start)
	assert.Equal(t, geometry.Pt(10, 0), segs[0].End)
	assert.Equal(t, geometry.Pt(10, 10), segs[2].Start)
	assert.Equal(t, geometry.Pt(20, 10), segs[2].End)
	assert.False(t, r.Active())
}

func TestFinishAtLastPointAddsNothing(t *testing.T) {
	r := NewRecorder()
	r.Begin(geometry.Pt(50, 50))
	r.Extend(geometry.Pt(100, 50), red, 1)
	r.Finish(geometry.Pt(100, 50), red, 1)
	assert.Len(t, r.Segments(), 1)
}

func TestTapRecordsDot(t *testing.T) {
	r := NewRecorder()
	r.Begin(geometry.Pt(5, 5))
	r.Finish(geometry.Pt(5, 5), red, 1)

	segs := r.Segments()
	require.Len(t, segs, 1)
	assert.True(t, segs[0].IsPoint())
}

func TestWidthInImageUnits(t *testing.T) {
	r := NewRecorder()
	r.Begin(geometry.Pt(0, 0))
	r.Extend(geometry.Pt(1, 1), red, 2)
	r.Extend(geometry.Pt(2, 2), red, 0.5)
	segs := r.Segments()
	assert.Equal(t, 5.0, segs[0].Width)
	assert.Equal(t, 20.0, segs[1].Width)
}

func TestBrushChangeMidStroke(t *testing.T) {
	r := NewRecorder()
	brush := red
	r.Begin(geometry.Pt(0, 0))
	r.Extend(geometry.Pt(1, 0), brush, 1)

	brush.Color = colorutil.Black
	brush.Size = 3
	r.Extend(geometry.Pt(2, 0), brush, 1)
	r.End()

	segs := r.Segments()
	assert.Equal(t, colorutil.Red, segs[0].Color)
	assert.Equal(t, 10.0, segs[0].Width)
	assert.Equal(t, colorutil.Black, segs[1].Color)
	assert.Equal(t, 3.0, segs[1].Width)
}

func TestCancelKeepsRecordedSegments(t *testing.T) {
	r := NewRecorder()
	r.Begin(geometry.Pt(0, 0))
	r.Extend(geometry.Pt(1, 0), red, 1)
	r.Finish(geometry.Pt(2, 0), red, 1)

	r.Begin(geometry.Pt(5, 5))
	r.Extend(geometry.Pt(6, 6), red, 1)
	r.Cancel()
	assert.False(t, r.Active())
	assert.Len(t, r.Strokes(), 2)
	assert.Len(t, r.Segments(), 3)

	// extending after cancel is ignored
	r.Extend(geometry.Pt(9, 9), red, 1)
	assert.Len(t, r.Segments(), 3)
}

func TestEmptyStrokeDropped(t *testing.T) {
	r := NewRecorder()
	r.Begin(geometry.Pt(0, 0))
	r.End()
	assert.Empty(t, r.Strokes())
}

func TestEraseMode(t *testing.T) {
	r := NewRecorder()
	r.Begin(geometry.Pt(0, 0))
	r.Finish(geometry.Pt(3, 4), Brush{Color: colorutil.White, Size: 4, Mode: ModeErase}, 1)
	assert.Equal(t, ModeErase, r.Segments()[0].Mode)
	assert.Equal(t, "Erase", ModeErase.String())
}
