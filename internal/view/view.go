// Package view maintains the scale and offset that map image space onto the viewport.
package view

import (
	"math"

	"imgedit/pkg/geometry"
)

const (
	// MinScale and MaxScale bound the zoom level.
	MinScale = 0.1
	MaxScale = 4.0

	// ZoomStep is the multiplicative step used by the zoom buttons.
	ZoomStep = 1.2

	// WheelStep is the per-tick change applied by ctrl+wheel zooming.
	WheelStep = 0.1
)

// ViewState holds the view transform for one loaded image.
//
// Screen space is relative to the viewport's top-left corner; image space is the
// untransformed pixel grid of the base image. The mapping is
//
//	screen = image*Scale + Offset
//
// Offsets are kept clamped: along an axis where the scaled image fits inside the
// viewport it is centered, otherwise it may not be dragged past either edge.
type ViewState struct {
	Scale   float64
	OffsetX float64
	OffsetY float64

	image    geometry.Size
	viewport geometry.Size
}

// New returns a view with no image for the given viewport.
func New(viewport geometry.Size) *ViewState {
	return &ViewState{Scale: 1, viewport: viewport}
}

// HasImage reports whether an image has been attached. Every mutating operation is a
// no-op without one.
func (v *ViewState) HasImage() bool {
	return !v.image.Empty()
}

// ImageSize returns the native size of the attached image.
func (v *ViewState) ImageSize() geometry.Size {
	return v.image
}

// Viewport returns the viewport size.
func (v *ViewState) Viewport() geometry.Size {
	return v.viewport
}

// SetImage attaches an image of the given native size and resets the view.
// A zero-size image detaches.
func (v *ViewState) SetImage(size geometry.Size) {
	v.image = size
	if size.Empty() {
		v.image = geometry.Size{}
		v.Scale, v.OffsetX, v.OffsetY = 1, 0, 0
		return
	}
	v.Reset()
}

// Reset restores scale 1 with the image centered in the viewport.
func (v *ViewState) Reset() bool {
	if !v.HasImage() {
		return false
	}
	v.Scale = 1
	v.OffsetX = (v.viewport.Width - v.image.Width) / 2
	v.OffsetY = (v.viewport.Height - v.image.Height) / 2
	v.clampOffsets()
	return true
}

// Resize changes the viewport size and re-clamps the offsets.
func (v *ViewState) Resize(viewport geometry.Size) bool {
	if viewport == v.viewport {
		return false
	}
	v.viewport = viewport
	if v.HasImage() {
		v.clampOffsets()
	}
	return true
}

// ToImageSpace maps a screen point to image space.
func (v *ViewState) ToImageSpace(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: (p.X - v.OffsetX) / v.Scale,
		Y: (p.Y - v.OffsetY) / v.Scale,
	}
}

// ToScreenSpace maps an image point to screen space.
func (v *ViewState) ToScreenSpace(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: p.X*v.Scale + v.OffsetX,
		Y: p.Y*v.Scale + v.OffsetY,
	}
}

// Transform returns the image-to-screen transform.
func (v *ViewState) Transform() geometry.AffineTransform {
	return geometry.Translation(v.OffsetX, v.OffsetY).Compose(geometry.Scale(v.Scale, v.Scale))
}

// Zoom multiplies the scale by factor, keeping the image point under anchor fixed.
// Non-positive factors are ignored.
func (v *ViewState) Zoom(factor float64, anchor geometry.Point2D) bool {
	if !v.HasImage() || !(factor > 0) || math.IsInf(factor, 0) {
		return false
	}
	return v.SetScale(v.Scale*factor, anchor)
}

// SetScale sets an absolute scale, keeping the image point under anchor fixed.
func (v *ViewState) SetScale(scale float64, anchor geometry.Point2D) bool {
	if !v.HasImage() || math.IsNaN(scale) {
		return false
	}
	old := v.Scale
	v.Scale = ClampScale(scale)

	ratio := v.Scale / old
	v.OffsetX = anchor.X - (anchor.X-v.OffsetX)*ratio
	v.OffsetY = anchor.Y - (anchor.Y-v.OffsetY)*ratio
	v.clampOffsets()
	return true
}

// SetPercent sets the scale from a slider percentage, anchored at the viewport center.
func (v *ViewState) SetPercent(percent float64) bool {
	return v.SetScale(percent/100, v.center())
}

// Percent returns the scale as a rounded percentage.
func (v *ViewState) Percent() int {
	return int(math.Round(v.Scale * 100))
}

// ZoomIn steps the scale up around the viewport center.
func (v *ViewState) ZoomIn() bool {
	return v.Zoom(ZoomStep, v.center())
}

// ZoomOut steps the scale down around the viewport center.
func (v *ViewState) ZoomOut() bool {
	return v.Zoom(1/ZoomStep, v.center())
}

// WheelZoom applies one wheel tick at anchor: scrolling down (deltaY > 0) zooms out by
// 10%, anything else zooms in by 10%.
func (v *ViewState) WheelZoom(deltaY float64, anchor geometry.Point2D) bool {
	factor := 1 + WheelStep
	if deltaY > 0 {
		factor = 1 - WheelStep
	}
	return v.Zoom(factor, anchor)
}

// Pan translates the view by a screen-space delta and re-clamps.
func (v *ViewState) Pan(dx, dy float64) bool {
	if !v.HasImage() {
		return false
	}
	v.OffsetX += dx
	v.OffsetY += dy
	v.clampOffsets()
	return true
}

// VisibleImageRect returns the part of the image currently inside the viewport, in image
// space.
func (v *ViewState) VisibleImageRect() geometry.Rect {
	tl := v.ToImageSpace(geometry.Pt(0, 0))
	br := v.ToImageSpace(geometry.Pt(v.viewport.Width, v.viewport.Height))
	visible := geometry.NewRect(tl.X, tl.Y, br.X-tl.X, br.Y-tl.Y)
	return visible.Intersect(geometry.NewRect(0, 0, v.image.Width, v.image.Height))
}

// ClampScale bounds scale to [MinScale, MaxScale].
func ClampScale(scale float64) float64 {
	return math.Min(math.Max(scale, MinScale), MaxScale)
}

func (v *ViewState) center() geometry.Point2D {
	return geometry.Pt(v.viewport.Width/2, v.viewport.Height/2)
}

func (v *ViewState) clampOffsets() {
	v.OffsetX = clampAxis(v.OffsetX, v.image.Width*v.Scale, v.viewport.Width)
	v.OffsetY = clampAxis(v.OffsetY, v.image.Height*v.Scale, v.viewport.Height)
}

// clampAxis centers content that fits and otherwise keeps both edges covered.
func clampAxis(offset, content, viewport float64) float64 {
	if content <= viewport {
		return (viewport - content) / 2
	}
	return math.Min(0, math.Max(viewport-content, offset))
}
