// Package canvas provides the editing surface: a raster showing the live view that
// turns mouse and wheel input into editor events.
package canvas

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"imgedit/internal/app"
	"imgedit/internal/compositor"
	"imgedit/internal/editor"
	"imgedit/pkg/geometry"
)

// ImageCanvas displays the session through its view transform and forwards input to it.
type ImageCanvas struct {
	widget.BaseWidget

	state  *app.State
	raster *fynecanvas.Raster

	// Flattened session, refreshed when strokes, overlays or the image change.
	mu    sync.Mutex
	flat  *image.RGBA
	dirty bool

	// Interaction state
	pressed   bool
	modifiers fyne.KeyModifier
	lastSize  fyne.Size
}

var (
	_ desktop.Mouseable  = (*ImageCanvas)(nil)
	_ desktop.Hoverable  = (*ImageCanvas)(nil)
	_ desktop.Cursorable = (*ImageCanvas)(nil)
	_ fyne.Draggable     = (*ImageCanvas)(nil)
	_ fyne.Scrollable    = (*ImageCanvas)(nil)
)

// NewImageCanvas creates a canvas bound to state.
func NewImageCanvas(state *app.State) *ImageCanvas {
	ic := &ImageCanvas{state: state, dirty: true}

	ic.raster = fynecanvas.NewRaster(ic.draw)
	ic.raster.ScaleMode = fynecanvas.ImageScalePixels
	ic.raster.SetMinSize(fyne.NewSize(400, 300))

	invalidate := func(interface{}) { ic.invalidate() }
	state.On(app.EventImageLoaded, invalidate)
	state.On(app.EventStrokesChanged, invalidate)
	state.On(app.EventOverlaysChanged, invalidate)
	state.On(app.EventBackendChanged, invalidate)
	state.On(app.EventViewChanged, func(interface{}) { ic.Refresh() })

	ic.ExtendBaseWidget(ic)
	return ic
}

func (ic *ImageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(ic.raster)
}

// MinSize returns the raster's minimum size.
func (ic *ImageCanvas) MinSize() fyne.Size {
	return ic.raster.MinSize()
}

// Resize keeps the editor viewport in step with the widget size.
func (ic *ImageCanvas) Resize(size fyne.Size) {
	ic.BaseWidget.Resize(size)
	if size == ic.lastSize || size.Width <= 0 || size.Height <= 0 {
		return
	}
	ic.lastSize = size
	ic.state.Handle(editor.Resize{Size: geometry.NewSize(float64(size.Width), float64(size.Height))})
}

// Refresh redraws the canvas.
func (ic *ImageCanvas) Refresh() {
	ic.raster.Refresh()
}

func (ic *ImageCanvas) invalidate() {
	ic.mu.Lock()
	ic.dirty = true
	ic.mu.Unlock()
	ic.Refresh()
}

// draw renders the view at the widget's logical size; fyne scales the result to the
// w×h device pixels it asks for.
func (ic *ImageCanvas) draw(w, h int) image.Image {
	size := ic.Size()
	vw, vh := int(size.Width), int(size.Height)
	if vw <= 0 || vh <= 0 {
		vw, vh = w, h
	}

	ic.mu.Lock()
	if ic.dirty {
		flat, err := ic.state.Preview(context.Background())
		if err != nil && !errors.Is(err, compositor.ErrNoImage) {
			log.Printf("Canvas: render failed: %v", err)
		}
		ic.flat = flat
		ic.dirty = false
	}
	flat := ic.flat
	ic.mu.Unlock()

	v := ic.state.View()
	if flat == nil {
		return compositor.RenderView(nil, &v, vw, vh)
	}
	return compositor.RenderView(flat, &v, vw, vh)
}

func (ic *ImageCanvas) send(ev editor.Event) {
	if ic.state.Handle(ev) {
		ic.Refresh()
	}
}

func toPoint(p fyne.Position) geometry.Point2D {
	return geometry.Pt(float64(p.X), float64(p.Y))
}

// MouseDown starts a gesture with the primary button.
func (ic *ImageCanvas) MouseDown(ev *desktop.MouseEvent) {
	ic.modifiers = ev.Modifier
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	ic.pressed = true
	ic.send(editor.PointerEvent{Phase: editor.PhaseDown, Pos: toPoint(ev.Position)})
}

// MouseUp ends the gesture.
func (ic *ImageCanvas) MouseUp(ev *desktop.MouseEvent) {
	ic.modifiers = ev.Modifier
	if ev.Button != desktop.MouseButtonPrimary || !ic.pressed {
		return
	}
	ic.pressed = false
	ic.send(editor.PointerEvent{Phase: editor.PhaseUp, Pos: toPoint(ev.Position)})
}

// Dragged is delivered instead of MouseMoved while the button is held.
func (ic *ImageCanvas) Dragged(ev *fyne.DragEvent) {
	if !ic.pressed {
		return
	}
	ic.send(editor.PointerEvent{Phase: editor.PhaseMove, Pos: toPoint(ev.Position)})
}

// DragEnd is a no-op; MouseUp carries the final position.
func (ic *ImageCanvas) DragEnd() {}

func (ic *ImageCanvas) MouseIn(ev *desktop.MouseEvent) {
	ic.modifiers = ev.Modifier
}

func (ic *ImageCanvas) MouseMoved(ev *desktop.MouseEvent) {
	ic.modifiers = ev.Modifier
	if ic.pressed {
		ic.send(editor.PointerEvent{Phase: editor.PhaseMove, Pos: toPoint(ev.Position)})
	}
}

// MouseOut terminates any stroke or drag in progress.
func (ic *ImageCanvas) MouseOut() {
	ic.pressed = false
	ic.send(editor.PointerEvent{Phase: editor.PhaseLeave})
}

// Scrolled maps the wheel to zoom (ctrl), horizontal scroll (shift) or vertical scroll.
func (ic *ImageCanvas) Scrolled(ev *fyne.ScrollEvent) {
	mods := ic.currentModifiers()
	// fyne reports wheel-up as positive DY; the editor expects the opposite sign.
	dy := -float64(ev.Scrolled.DY)
	if dy == 0 {
		dy = -float64(ev.Scrolled.DX)
	}
	ic.send(editor.WheelEvent{
		Pos:    toPoint(ev.Position),
		DeltaY: dy,
		Ctrl:   mods&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0,
		Shift:  mods&fyne.KeyModifierShift != 0,
	})
}

func (ic *ImageCanvas) currentModifiers() fyne.KeyModifier {
	if a := fyne.CurrentApp(); a != nil {
		if d, ok := a.Driver().(desktop.Driver); ok {
			return d.CurrentKeyModifiers()
		}
	}
	return ic.modifiers
}

// Cursor shows a crosshair while drawing or erasing.
func (ic *ImageCanvas) Cursor() desktop.Cursor {
	if ic.state.Tool() == editor.ToolPan {
		return desktop.DefaultCursor
	}
	return desktop.CrosshairCursor
}
