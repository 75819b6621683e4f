// Package editor routes input events to the view, the stroke recorder and the text
// overlays, and owns all per-session editing state.
package editor

import (
	"context"
	"image"
	"image/color"
	"log/slog"

	"imgedit/internal/compositor"
	baseimage "imgedit/internal/image"
	"imgedit/internal/overlay"
	"imgedit/internal/stroke"
	"imgedit/internal/view"
	"imgedit/pkg/colorutil"
	"imgedit/pkg/geometry"
)

const (
	// DefaultBrushSize is the initial brush size in screen pixels.
	DefaultBrushSize = 5
	// MinBrushSize is the smallest accepted brush size.
	MinBrushSize = 1
)

// eraseColor is what an erase segment records as its color. It never reaches the output;
// erase segments only contribute coverage.
var eraseColor = colorutil.White

// Brush holds the tool settings that are read when a segment or overlay is created.
type Brush struct {
	Color color.RGBA
	Size  float64
}

type gestureKind int

const (
	gestureNone gestureKind = iota
	gestureStroke
	gesturePan
	gestureText
)

// gesture tracks the pointer sequence in progress. last is in screen space.
type gesture struct {
	kind   gestureKind
	last   geometry.Point2D
	textID int
}

// State is the complete editing session for one viewport. It is driven by Handle and is
// not safe for concurrent use.
type State struct {
	View  *view.ViewState
	Tool  Tool
	Brush Brush

	base    *baseimage.BaseImage
	strokes *stroke.Recorder
	texts   *overlay.Set
	measure overlay.Measurer
	gesture gesture
}

// New returns a session with no image. measure sizes text overlays for placement and
// hit testing.
func New(viewport geometry.Size, measure overlay.Measurer) *State {
	return &State{
		View:    view.New(viewport),
		Tool:    ToolDraw,
		Brush:   Brush{Color: colorutil.Black, Size: DefaultBrushSize},
		strokes: stroke.NewRecorder(),
		texts:   overlay.NewSet(),
		measure: measure,
	}
}

// Load replaces the base image. Strokes and overlays belong to the previous image and
// are discarded; the view is reset.
func (s *State) Load(base *baseimage.BaseImage) {
	s.base = base
	s.strokes.Clear()
	s.texts.Clear()
	s.gesture = gesture{}
	s.View.SetImage(base.Size())
	slog.Debug("editor: image loaded", "width", base.Width(), "height", base.Height(),
		"scale", s.View.Scale, "offsetX", s.View.OffsetX, "offsetY", s.View.OffsetY)
}

// HasImage reports whether an image is loaded.
func (s *State) HasImage() bool {
	return s.base != nil && s.View.HasImage()
}

// Base returns the loaded image, or nil.
func (s *State) Base() *baseimage.BaseImage {
	return s.base
}

// Strokes returns the stroke recorder.
func (s *State) Strokes() *stroke.Recorder {
	return s.strokes
}

// Texts returns the overlay set.
func (s *State) Texts() *overlay.Set {
	return s.texts
}

// Drawing reports whether a stroke is in progress.
func (s *State) Drawing() bool {
	return s.gesture.kind == gestureStroke
}

// Panning reports whether a pan drag is in progress.
func (s *State) Panning() bool {
	return s.gesture.kind == gesturePan
}

// Handle applies one event and reports whether the display needs a redraw. Events are
// applied strictly in the order they are passed in.
func (s *State) Handle(ev Event) bool {
	switch e := ev.(type) {
	case PointerEvent:
		return s.pointer(e)
	case WheelEvent:
		return s.wheel(e)
	case SelectTool:
		if !e.Tool.Valid() {
			slog.Debug("editor: ignoring unknown tool", "tool", int(e.Tool))
			return false
		}
		s.endGesture()
		s.Tool = e.Tool
		return true
	case SetBrushColor:
		s.Brush.Color = e.Color
		return false
	case SetBrushSize:
		if e.Size < MinBrushSize {
			e.Size = MinBrushSize
		}
		s.Brush.Size = e.Size
		return false
	case ZoomIn:
		return s.View.ZoomIn()
	case ZoomOut:
		return s.View.ZoomOut()
	case SetZoom:
		return s.View.SetPercent(e.Percent)
	case ResetView:
		return s.View.Reset()
	case Resize:
		return s.View.Resize(e.Size)
	case AddText:
		return s.NewText(e.Content) != nil
	case EditText:
		return s.editText(e.ID, e.Content)
	case RemoveText:
		return s.HasImage() && s.texts.Remove(e.ID)
	}
	return false
}

func (s *State) pointer(e PointerEvent) bool {
	if !s.HasImage() {
		return false
	}
	switch e.Phase {
	case PhaseDown:
		s.endGesture()
		return s.begin(e.Pos)
	case PhaseMove:
		return s.move(e.Pos)
	case PhaseUp:
		moved := s.move(e.Pos)
		if s.gesture.kind == gestureStroke {
			s.strokes.Finish(s.View.ToImageSpace(e.Pos), s.strokeBrush(), s.View.Scale)
			moved = true
		}
		s.gesture = gesture{}
		return moved
	case PhaseLeave:
		active := s.gesture.kind != gestureNone
		s.endGesture()
		return active
	}
	return false
}

func (s *State) begin(p geometry.Point2D) bool {
	s.gesture = gesture{last: p}
	if s.Tool == ToolPan {
		s.gesture.kind = gesturePan
		return false
	}
	if t := s.texts.HitTest(s.View.ToImageSpace(p), s.measure); t != nil {
		s.gesture.kind = gestureText
		s.gesture.textID = t.ID
		return false
	}
	s.gesture.kind = gestureStroke
	s.strokes.Begin(s.View.ToImageSpace(p))
	return false
}

// move advances the current gesture to p. For strokes on pointer-up the final point is
// added by Finish instead, so only pan and text drags move here in that case.
func (s *State) move(p geometry.Point2D) bool {
	g := &s.gesture
	delta := p.Sub(g.last)
	switch g.kind {
	case gestureStroke:
		if p == g.last {
			return false
		}
		s.strokes.Extend(s.View.ToImageSpace(p), s.strokeBrush(), s.View.Scale)
	case gesturePan:
		s.View.Pan(delta.X, delta.Y)
	case gestureText:
		s.texts.Move(g.textID, delta.Scale(1/s.View.Scale))
	default:
		return false
	}
	g.last = p
	return true
}

func (s *State) endGesture() {
	if s.gesture.kind == gestureStroke {
		s.strokes.Cancel()
	}
	s.gesture = gesture{}
}

func (s *State) wheel(e WheelEvent) bool {
	if !s.HasImage() {
		return false
	}
	switch {
	case e.Ctrl:
		return s.View.WheelZoom(e.DeltaY, e.Pos)
	case e.Shift:
		return s.View.Pan(-e.DeltaY, 0)
	default:
		return s.View.Pan(0, -e.DeltaY)
	}
}

// strokeBrush returns the stroke settings for the active tool.
func (s *State) strokeBrush() stroke.Brush {
	if s.Tool == ToolErase {
		return stroke.Brush{Color: eraseColor, Size: s.Brush.Size, Mode: stroke.ModeErase}
	}
	return stroke.Brush{Color: s.Brush.Color, Size: s.Brush.Size, Mode: stroke.ModeNormal}
}

// NewText places a new overlay centered on the visible part of the image and returns
// it, or nil without an image.
func (s *State) NewText(content string) *overlay.Text {
	if !s.HasImage() {
		return nil
	}
	if content == "" {
		content = overlay.DefaultContent
	}
	center := s.View.VisibleImageRect().Center()
	sz := s.measure.Measure(content, s.Brush.Size)
	pos := geometry.Pt(center.X-sz.Width/2, center.Y-s.Brush.Size/2)
	return s.texts.Add(pos, content, s.Brush.Color, s.Brush.Size)
}

func (s *State) editText(id int, content string) bool {
	if !s.HasImage() {
		return false
	}
	t := s.texts.Get(id)
	if t == nil {
		return false
	}
	t.Content = content
	t.Color = s.Brush.Color
	t.FontSize = s.Brush.Size
	return true
}

// Scene returns the current content for flattening.
func (s *State) Scene() compositor.Scene {
	var base image.Image
	if s.base != nil {
		base = s.base.Image
	}
	return compositor.Scene{
		Base:     base,
		Segments: s.strokes.Segments(),
		Texts:    s.texts.Items(),
	}
}

// Export flattens the session at the image's native resolution.
func (s *State) Export(ctx context.Context, c compositor.Compositor) (*image.RGBA, error) {
	if !s.HasImage() {
		return nil, compositor.ErrNoImage
	}
	return c.Flatten(ctx, s.Scene())
}
