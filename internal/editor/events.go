package editor

import (
	"image/color"

	"imgedit/pkg/geometry"
)

// Event is an input delivered to State.Handle. Pointer and wheel events carry screen
// coordinates relative to the viewport.
type Event interface {
	event()
}

// Phase identifies the stage of a pointer gesture.
type Phase int

const (
	PhaseDown Phase = iota
	PhaseMove
	PhaseUp
	PhaseLeave
)

// PointerEvent is a primary-button pointer update.
type PointerEvent struct {
	Phase Phase
	Pos   geometry.Point2D
}

// WheelEvent is one wheel tick. Ctrl zooms around Pos, Shift scrolls horizontally.
type WheelEvent struct {
	Pos    geometry.Point2D
	DeltaY float64
	Ctrl   bool
	Shift  bool
}

// SelectTool switches the active tool.
type SelectTool struct {
	Tool Tool
}

// SetBrushColor changes the brush color used for new segments and text.
type SetBrushColor struct {
	Color color.RGBA
}

// SetBrushSize changes the brush size (screen pixels) used for new segments and text.
type SetBrushSize struct {
	Size float64
}

// ZoomIn steps the zoom up around the viewport center.
type ZoomIn struct{}

// ZoomOut steps the zoom down around the viewport center.
type ZoomOut struct{}

// SetZoom sets an absolute zoom percentage (slider input).
type SetZoom struct {
	Percent float64
}

// ResetView restores scale 1 with the image centered.
type ResetView struct{}

// Resize reports a new viewport size.
type Resize struct {
	Size geometry.Size
}

// AddText places a new overlay in the middle of the visible image area.
type AddText struct {
	Content string // Empty uses the placeholder text
}

// EditText replaces an overlay's content and restyles it with the current brush.
type EditText struct {
	ID      int
	Content string
}

// RemoveText deletes an overlay.
type RemoveText struct {
	ID int
}

func (PointerEvent) event()  {}
func (WheelEvent) event()    {}
func (SelectTool) event()    {}
func (SetBrushColor) event() {}
func (SetBrushSize) event()  {}
func (ZoomIn) event()        {}
func (ZoomOut) event()       {}
func (SetZoom) event()       {}
func (ResetView) event()     {}
func (Resize) event()        {}
func (AddText) event()       {}
func (EditText) event()      {}
func (RemoveText) event()    {}
