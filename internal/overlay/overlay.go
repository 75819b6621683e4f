// Package overlay manages text overlays placed over the image.
package overlay

import (
	"image/color"

	"imgedit/pkg/geometry"
)

// DefaultContent is the placeholder text of a new overlay.
const DefaultContent = "Edit this text"

// Measurer reports the rendered extent of a string at a pixel font size.
type Measurer interface {
	Measure(s string, size float64) geometry.Size
}

// Text is one overlay. Position is the top-left corner in image space; the text
// baseline sits FontSize below it.
type Text struct {
	ID       int
	Position geometry.Point2D
	Content  string
	Color    color.RGBA
	FontSize float64
}

// Baseline returns the image-space origin text is drawn from.
func (t *Text) Baseline() geometry.Point2D {
	return geometry.Pt(t.Position.X, t.Position.Y+t.FontSize)
}

// Bounds returns the overlay's image-space box.
func (t *Text) Bounds(m Measurer) geometry.Rect {
	sz := m.Measure(t.Content, t.FontSize)
	h := sz.Height
	if h < t.FontSize {
		h = t.FontSize
	}
	return geometry.NewRect(t.Position.X, t.Position.Y, sz.Width, h)
}

// Set holds overlays in paint order (later entries draw on top).
type Set struct {
	items  []*Text
	nextID int
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{nextID: 1}
}

// Add appends an overlay and returns it with a fresh ID.
func (s *Set) Add(pos geometry.Point2D, content string, col color.RGBA, fontSize float64) *Text {
	t := &Text{
		ID:       s.nextID,
		Position: pos,
		Content:  content,
		Color:    col,
		FontSize: fontSize,
	}
	s.nextID++
	s.items = append(s.items, t)
	return t
}

// Get returns the overlay with id, or nil.
func (s *Set) Get(id int) *Text {
	for _, t := range s.items {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Remove deletes the overlay with id and reports whether it existed.
func (s *Set) Remove(id int) bool {
	for i, t := range s.items {
		if t.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Move translates the overlay with id by an image-space delta.
func (s *Set) Move(id int, delta geometry.Point2D) bool {
	t := s.Get(id)
	if t == nil {
		return false
	}
	t.Position = t.Position.Add(delta)
	return true
}

// HitTest returns the topmost overlay containing p (image space), or nil.
func (s *Set) HitTest(p geometry.Point2D, m Measurer) *Text {
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].Bounds(m).Contains(p) {
			return s.items[i]
		}
	}
	return nil
}

// Items returns the overlays in paint order.
func (s *Set) Items() []*Text {
	return s.items
}

// Len returns the number of overlays.
func (s *Set) Len() int {
	return len(s.items)
}

// Clear removes every overlay. IDs keep increasing.
func (s *Set) Clear() {
	s.items = nil
}
