package session

import (
	"context"
	goimage "image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgedit/internal/compositor"
	"imgedit/internal/editor"
	"imgedit/internal/image"
	"imgedit/pkg/colorutil"
	"imgedit/pkg/geometry"
)

const scenario = `
viewport: {width: 400, height: 400}
backend: vector
events:
  - {type: tool, tool: draw}
  - {type: brush, color: "#ff0000", size: 5}
  - {type: down, x: 200, y: 200}
  - {type: move, x: 250, y: 200}
  - {type: up, x: 250, y: 200}
  - {type: wheel, x: 200, y: 200, delta_y: -100, ctrl: true}
`

func whiteBase(w, h int) *image.BaseImage {
	img := goimage.NewRGBA(goimage.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), goimage.NewUniform(color.White), goimage.Point{}, draw.Src)
	return image.FromImage(img)
}

func TestParseScenario(t *testing.T) {
	s, err := Parse(strings.NewReader(scenario))
	require.NoError(t, err)
	assert.Equal(t, geometry.NewSize(400, 400), s.Viewport)
	assert.Equal(t, "vector", s.Backend)
	require.Len(t, s.Steps, 6)

	events, err := s.Events()
	require.NoError(t, err)
	// the brush step expands to a color and a size event
	require.Len(t, events, 7)
	assert.Equal(t, editor.SelectTool{Tool: editor.ToolDraw}, events[0])
	assert.Equal(t, editor.SetBrushColor{Color: colorutil.Red}, events[1])
	assert.Equal(t, editor.SetBrushSize{Size: 5}, events[2])
	assert.Equal(t, editor.PointerEvent{Phase: editor.PhaseDown, Pos: geometry.Pt(200, 200)}, events[3])
	assert.Equal(t, editor.WheelEvent{Pos: geometry.Pt(200, 200), DeltaY: -100, Ctrl: true}, events[6])
}

func TestParseDefaults(t *testing.T) {
	s, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultViewport, s.Viewport)
	assert.Empty(t, s.Steps)

	s, err = Parse(strings.NewReader("events: []\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultViewport, s.Viewport)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("viewport: {width: 10, height: 10}\nzoom: 3\n"))
	assert.Error(t, err)
}

func TestStepErrors(t *testing.T) {
	cases := map[string]error{
		`{type: scribble}`:         ErrUnknownEvent,
		`{type: brush}`:            ErrInvalidStep,
		`{type: zoom}`:             ErrInvalidStep,
		`{type: resize, width: 4}`: ErrInvalidStep,
		`{type: remove_text}`:      ErrInvalidStep,
	}
	for step, want := range cases {
		s, err := Parse(strings.NewReader("events:\n  - " + step + "\n"))
		require.NoError(t, err, step)
		_, err = s.Events()
		assert.ErrorIs(t, err, want, step)
		assert.Contains(t, err.Error(), "event 0", step)
	}

	s, err := Parse(strings.NewReader("events:\n  - {type: tool, tool: lasso}\n"))
	require.NoError(t, err)
	_, err = s.Events()
	assert.Error(t, err)
}

func TestStepCommands(t *testing.T) {
	zero := 0.0
	cases := []struct {
		step Step
		want editor.Event
	}{
		{Step{Type: "leave", X: 1, Y: 2}, editor.PointerEvent{Phase: editor.PhaseLeave, Pos: geometry.Pt(1, 2)}},
		{Step{Type: "text", Content: "hi"}, editor.AddText{Content: "hi"}},
		{Step{Type: "edit_text", ID: 2, Content: "yo"}, editor.EditText{ID: 2, Content: "yo"}},
		{Step{Type: "remove_text", ID: 2}, editor.RemoveText{ID: 2}},
		{Step{Type: "zoom_in"}, editor.ZoomIn{}},
		{Step{Type: "zoom_out"}, editor.ZoomOut{}},
		{Step{Type: "zoom", Percent: 150}, editor.SetZoom{Percent: 150}},
		{Step{Type: "reset"}, editor.ResetView{}},
		{Step{Type: "resize", Width: 300, Height: 200}, editor.Resize{Size: geometry.NewSize(300, 200)}},
		{Step{Type: "brush", Size: &zero}, editor.SetBrushSize{Size: 0}},
	}
	for _, tc := range cases {
		evs, err := tc.step.Events()
		require.NoError(t, err, tc.step.Type)
		require.Len(t, evs, 1, tc.step.Type)
		assert.Equal(t, tc.want, evs[0], tc.step.Type)
	}
}

func TestReplayScenario(t *testing.T) {
	s, err := Parse(strings.NewReader(scenario))
	require.NoError(t, err)

	st, err := Replay(context.Background(), s, whiteBase(100, 100))
	require.NoError(t, err)
	assert.Equal(t, "vector", st.Backend())
	assert.InDelta(t, 1.1, st.View().Scale, 1e-12)

	out, err := st.Flatten(context.Background())
	require.NoError(t, err)
	assert.Equal(t, goimage.Rect(0, 0, 100, 100), out.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.RGBAAt(75, 50))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(75, 70))
}

func TestReplayErrors(t *testing.T) {
	s := &Script{Viewport: DefaultViewport, Backend: "opengl"}
	_, err := Replay(context.Background(), s, whiteBase(10, 10))
	assert.ErrorIs(t, err, compositor.ErrUnknownBackend)

	s = &Script{Viewport: DefaultViewport, Steps: []Step{{Type: "zoom_in"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Replay(ctx, s, whiteBase(10, 10))
	assert.ErrorIs(t, err, context.Canceled)
}
