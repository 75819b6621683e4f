// Package app provides application state, load/export orchestration, and events.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	goimage "image"
	"log/slog"
	"os"
	"sync"

	"imgedit/internal/compositor"
	"imgedit/internal/editor"
	"imgedit/internal/image"
	"imgedit/internal/overlay"
	"imgedit/internal/view"
	"imgedit/pkg/geometry"
)

// State holds the application state: one editing session plus the export backend.
// All methods are safe for concurrent use.
type State struct {
	mu sync.RWMutex

	// Image
	ImagePath string
	Modified  bool

	editor     *editor.State
	compositor compositor.Compositor

	// Live view renderer, kept apart from mu so drawing never blocks input handling.
	liveMu sync.Mutex
	live   *compositor.Incremental

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventImageLoaded EventType = iota
	EventViewChanged
	EventToolChanged
	EventStrokesChanged
	EventOverlaysChanged
	EventBackendChanged
	EventExported
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a state with no image and the default backend.
func NewState(viewport geometry.Size, measure overlay.Measurer) *State {
	c, _ := compositor.New(compositor.DefaultBackend)
	return &State{
		editor:     editor.New(viewport, measure),
		compositor: c,
		live:       compositor.NewIncremental(c),
		listeners:  make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the session as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// LoadImage decodes the image at path and makes it the base of a fresh session.
// On failure the previous image, if any, stays loaded.
func (s *State) LoadImage(path string) error {
	base, err := image.Load(path)
	if err != nil {
		return err
	}
	s.SetImage(base)
	return nil
}

// SetImage replaces the base image, discarding strokes and overlays.
func (s *State) SetImage(base *image.BaseImage) {
	s.mu.Lock()
	s.ImagePath = base.Path
	s.Modified = false
	s.editor.Load(base)
	v := *s.editor.View
	s.mu.Unlock()

	s.Emit(EventImageLoaded, base)
	s.Emit(EventViewChanged, v)
}

// HasImage reports whether an image is loaded.
func (s *State) HasImage() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editor.HasImage()
}

// snapshot captures what listeners care about so Handle can tell what changed.
type snapshot struct {
	view     view.ViewState
	tool     editor.Tool
	segments int
	texts    []overlay.Text
}

func (s *State) snapshot() snapshot {
	snap := snapshot{
		view:     *s.editor.View,
		tool:     s.editor.Tool,
		segments: len(s.editor.Strokes().Segments()),
	}
	for _, t := range s.editor.Texts().Items() {
		snap.texts = append(snap.texts, *t)
	}
	return snap
}

func (a snapshot) textsEqual(b snapshot) bool {
	if len(a.texts) != len(b.texts) {
		return false
	}
	for i := range a.texts {
		if a.texts[i] != b.texts[i] {
			return false
		}
	}
	return true
}

// Handle forwards one event to the editor and reports whether a redraw is needed.
// Listeners are notified for each kind of change the event caused.
func (s *State) Handle(ev editor.Event) bool {
	s.mu.Lock()
	before := s.snapshot()
	redraw := s.editor.Handle(ev)
	after := s.snapshot()
	modified := after.segments != before.segments || !after.textsEqual(before)
	if modified {
		s.Modified = true
	}
	s.mu.Unlock()

	if after.view != before.view {
		s.Emit(EventViewChanged, after.view)
	}
	if after.tool != before.tool {
		s.Emit(EventToolChanged, after.tool)
	}
	if after.segments != before.segments {
		s.Emit(EventStrokesChanged, after.segments)
	}
	if !after.textsEqual(before) {
		s.Emit(EventOverlaysChanged, len(after.texts))
	}
	if modified {
		s.Emit(EventModified, true)
	}
	return redraw
}

// View returns a copy of the current view transform.
func (s *State) View() view.ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.editor.View
}

// Tool returns the active tool.
func (s *State) Tool() editor.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editor.Tool
}

// Brush returns the current brush settings.
func (s *State) Brush() editor.Brush {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editor.Brush
}

// Texts returns copies of the text overlays in paint order.
func (s *State) Texts() []overlay.Text {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot().texts
}

// Backend returns the name of the export backend.
func (s *State) Backend() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.compositor.Name()
}

// SetBackend selects the compositor backend by name.
func (s *State) SetBackend(name string) error {
	c, err := compositor.New(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.compositor = c
	s.mu.Unlock()
	s.liveMu.Lock()
	s.live = compositor.NewIncremental(c)
	s.liveMu.Unlock()
	s.Emit(EventBackendChanged, name)
	return nil
}

// scene copies the editor content so it can be rendered without holding the lock.
func (s *State) scene() compositor.Scene {
	scene := s.editor.Scene()
	texts := make([]*overlay.Text, len(scene.Texts))
	for i, t := range scene.Texts {
		c := *t
		texts[i] = &c
	}
	scene.Texts = texts
	return scene
}

// Flatten renders the session at the image's native resolution.
func (s *State) Flatten(ctx context.Context) (*goimage.RGBA, error) {
	s.mu.RLock()
	if !s.editor.HasImage() {
		s.mu.RUnlock()
		return nil, compositor.ErrNoImage
	}
	scene := s.scene()
	c := s.compositor
	s.mu.RUnlock()

	return c.Flatten(ctx, scene)
}

// Preview flattens the session for the live view. Unlike Flatten it keeps the stroke
// layer between calls, so while a stroke is drawn only its new segments are painted.
func (s *State) Preview(ctx context.Context) (*goimage.RGBA, error) {
	var scene compositor.Scene
	s.mu.RLock()
	if s.editor.HasImage() {
		scene = s.scene()
	}
	s.mu.RUnlock()

	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	return s.live.Flatten(ctx, scene)
}

// Export flattens the session and writes it to path as PNG.
func (s *State) Export(ctx context.Context, path string) error {
	out, err := s.Flatten(ctx)
	if err != nil {
		return err
	}
	if err := image.SavePNG(path, out); err != nil {
		return err
	}
	slog.Debug("app: exported", "path", path, "width", out.Bounds().Dx(), "height", out.Bounds().Dy())

	s.SetModified(false)
	s.Emit(EventExported, path)
	return nil
}

// ExportSVG writes the session as an SVG document with the base image embedded.
func (s *State) ExportSVG(path string) error {
	s.mu.RLock()
	if !s.editor.HasImage() {
		s.mu.RUnlock()
		return compositor.ErrNoImage
	}
	scene := s.scene()
	s.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := compositor.NewVector().EncodeSVG(w, scene); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	s.Emit(EventExported, path)
	return nil
}

// RenderView draws the flattened session into a w×h viewport using the current view.
// Without an image the viewport is filled with the canvas color.
func (s *State) RenderView(ctx context.Context, w, h int) (*goimage.RGBA, error) {
	v := s.View()
	flat, err := s.Preview(ctx)
	if err != nil && !errors.Is(err, compositor.ErrNoImage) {
		return nil, err
	}
	var src goimage.Image
	if flat != nil {
		src = flat
	}
	return compositor.RenderView(src, &v, w, h), nil
}
