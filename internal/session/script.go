// Package session parses scripted editing sessions and replays them headlessly.
//
// A script is a YAML document naming the viewport, the export backend and a list of
// input events in delivery order:
//
//	viewport: {width: 400, height: 400}
//	backend: raster
//	events:
//	  - {type: brush, color: "#ff0000", size: 5}
//	  - {type: down, x: 200, y: 200}
//	  - {type: move, x: 250, y: 200}
//	  - {type: up, x: 250, y: 200}
//
// Coordinates are screen coordinates relative to the viewport, exactly as a pointer
// would report them.
package session

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"imgedit/internal/editor"
	"imgedit/pkg/colorutil"
	"imgedit/pkg/geometry"
)

// DefaultViewport is used when a script does not name one.
var DefaultViewport = geometry.NewSize(800, 600)

var (
	// ErrUnknownEvent is returned for a step whose type is not recognized.
	ErrUnknownEvent = errors.New("unknown event type")
	// ErrInvalidStep is returned for a step missing a required field.
	ErrInvalidStep = errors.New("invalid step")
)

// Script is a parsed session.
type Script struct {
	Viewport geometry.Size `yaml:"viewport"`
	Backend  string        `yaml:"backend"`
	Steps    []Step        `yaml:"events"`
}

// Step is one scripted input. Which fields matter depends on Type.
type Step struct {
	Type    string   `yaml:"type"`
	X       float64  `yaml:"x"`
	Y       float64  `yaml:"y"`
	DeltaY  float64  `yaml:"delta_y"`
	Ctrl    bool     `yaml:"ctrl"`
	Shift   bool     `yaml:"shift"`
	Tool    string   `yaml:"tool"`
	Color   string   `yaml:"color"`
	Size    *float64 `yaml:"size"`
	Content string   `yaml:"content"`
	ID      int      `yaml:"id"`
	Percent float64  `yaml:"percent"`
	Width   float64  `yaml:"width"`
	Height  float64  `yaml:"height"`
}

// Parse decodes a script. Unknown keys are rejected so typos fail loudly.
func Parse(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &Script{Viewport: DefaultViewport}, nil
		}
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if s.Viewport.Empty() {
		s.Viewport = DefaultViewport
	}
	return &s, nil
}

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Events converts every step to editor events, in order.
func (s *Script) Events() ([]editor.Event, error) {
	var out []editor.Event
	for i, step := range s.Steps {
		evs, err := step.Events()
		if err != nil {
			return nil, fmt.Errorf("event %d (%s): %w", i, step.Type, err)
		}
		out = append(out, evs...)
	}
	return out, nil
}

// Events converts the step to editor events. A brush step yields one event per
// setting it names.
func (st Step) Events() ([]editor.Event, error) {
	pos := geometry.Pt(st.X, st.Y)
	switch st.Type {
	case "down":
		return one(editor.PointerEvent{Phase: editor.PhaseDown, Pos: pos})
	case "move":
		return one(editor.PointerEvent{Phase: editor.PhaseMove, Pos: pos})
	case "up":
		return one(editor.PointerEvent{Phase: editor.PhaseUp, Pos: pos})
	case "leave":
		return one(editor.PointerEvent{Phase: editor.PhaseLeave, Pos: pos})
	case "wheel":
		return one(editor.WheelEvent{Pos: pos, DeltaY: st.DeltaY, Ctrl: st.Ctrl, Shift: st.Shift})
	case "tool":
		tool, err := editor.ParseTool(st.Tool)
		if err != nil {
			return nil, err
		}
		return one(editor.SelectTool{Tool: tool})
	case "brush":
		var evs []editor.Event
		if st.Color != "" {
			c, err := colorutil.ParseHex(st.Color)
			if err != nil {
				return nil, err
			}
			evs = append(evs, editor.SetBrushColor{Color: c})
		}
		if st.Size != nil {
			evs = append(evs, editor.SetBrushSize{Size: *st.Size})
		}
		if len(evs) == 0 {
			return nil, fmt.Errorf("%w: brush needs color or size", ErrInvalidStep)
		}
		return evs, nil
	case "text":
		return one(editor.AddText{Content: st.Content})
	case "edit_text":
		if st.ID == 0 {
			return nil, fmt.Errorf("%w: edit_text needs id", ErrInvalidStep)
		}
		return one(editor.EditText{ID: st.ID, Content: st.Content})
	case "remove_text":
		if st.ID == 0 {
			return nil, fmt.Errorf("%w: remove_text needs id", ErrInvalidStep)
		}
		return one(editor.RemoveText{ID: st.ID})
	case "zoom_in":
		return one(editor.ZoomIn{})
	case "zoom_out":
		return one(editor.ZoomOut{})
	case "zoom":
		if st.Percent <= 0 {
			return nil, fmt.Errorf("%w: zoom needs a positive percent", ErrInvalidStep)
		}
		return one(editor.SetZoom{Percent: st.Percent})
	case "reset":
		return one(editor.ResetView{})
	case "resize":
		size := geometry.NewSize(st.Width, st.Height)
		if size.Empty() {
			return nil, fmt.Errorf("%w: resize needs width and height", ErrInvalidStep)
		}
		return one(editor.Resize{Size: size})
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, st.Type)
}

func one(ev editor.Event) ([]editor.Event, error) {
	return []editor.Event{ev}, nil
}
