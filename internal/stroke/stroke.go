// Package stroke records freehand draw and erase marks in image space.
package stroke

import (
	"image/color"

	"imgedit/pkg/geometry"
)

// CompositeMode specifies how a segment blends with what is already painted.
type CompositeMode int

const (
	// ModeNormal paints the segment color over existing marks.
	ModeNormal CompositeMode = iota
	// ModeErase clears existing marks under the segment, revealing the base image.
	ModeErase
)

func (m CompositeMode) String() string {
	switch m {
	case ModeNormal:
		return "Normal"
	case ModeErase:
		return "Erase"
	default:
		return "Unknown"
	}
}

// Brush is the externally owned tool setting read when a segment is recorded.
type Brush struct {
	Color color.RGBA
	Size  float64 // Screen pixels
	Mode  CompositeMode
}

// Segment is one recorded mark. Start == End denotes a dot.
type Segment struct {
	Start geometry.Point2D
	End   geometry.Point2D
	Color color.RGBA
	Width float64 // Image-space units
	Mode  CompositeMode
}

// IsPoint reports whether the segment has zero length.
func (s Segment) IsPoint() bool {
	return s.Start == s.End
}

// Stroke groups the segments of one pointer-down..pointer-up gesture.
type Stroke struct {
	Segments []Segment
}

// Recorder accumulates strokes. It is not safe for concurrent use.
type Recorder struct {
	strokes []*Stroke

	active *Stroke
	last   geometry.Point2D
	moved  bool
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Active reports whether a stroke is in progress.
func (r *Recorder) Active() bool {
	return r.active != nil
}

// Begin starts a stroke at p (image space). An unfinished stroke is ended first.
func (r *Recorder) Begin(p geometry.Point2D) {
	r.End()
	r.active = &Stroke{}
	r.strokes = append(r.strokes, r.active)
	r.last = p
	r.moved = false
}

// Extend appends a segment from the previous point to p using the brush as it is now.
// scale is the current view scale; the screen brush size is divided by it so the mark
// keeps the same on-screen width it was drawn with.
func (r *Recorder) Extend(p geometry.Point2D, brush Brush, scale float64) {
	if r.active == nil {
		return
	}
	r.active.Segments = append(r.active.Segments, newSegment(r.last, p, brush, scale))
	r.last = p
	r.moved = true
}

// Finish ends the stroke at p. A stroke that never moved records a single dot.
func (r *Recorder) Finish(p geometry.Point2D, brush Brush, scale float64) {
	if r.active == nil {
		return
	}
	if !r.moved || p != r.last {
		r.Extend(p, brush, scale)
	}
	r.End()
}

// End terminates the in-progress stroke without adding a segment. Strokes that recorded
// nothing are dropped.
func (r *Recorder) End() {
	if r.active == nil {
		return
	}
	if len(r.active.Segments) == 0 {
		r.strokes = r.strokes[:len(r.strokes)-1]
	}
	r.active = nil
	r.moved = false
}

// Cancel abandons the in-progress stroke. Segments it already recorded are kept.
func (r *Recorder) Cancel() {
	r.End()
}

// Clear discards every stroke.
func (r *Recorder) Clear() {
	r.strokes = nil
	r.active = nil
	r.moved = false
}

// Strokes returns the recorded strokes in order.
func (r *Recorder) Strokes() []*Stroke {
	return r.strokes
}

// Segments returns every recorded segment in replay order.
func (r *Recorder) Segments() []Segment {
	var n int
	for _, s := range r.strokes {
		n += len(s.Segments)
	}
	out := make([]Segment, 0, n)
	for _, s := range r.strokes {
		out = append(out, s.Segments...)
	}
	return out
}

func newSegment(from, to geometry.Point2D, brush Brush, scale float64) Segment {
	if !(scale > 0) {
		scale = 1
	}
	return Segment{
		Start: from,
		End:   to,
		Color: brush.Color,
		Width: brush.Size / scale,
		Mode:  brush.Mode,
	}
}
