package compositor

import (
	"context"
	"image"
	"image/draw"
	"log/slog"

	"imgedit/internal/stroke"
)

// Incremental renders scenes for the live view. Segments only ever get appended while
// a session is edited, so it keeps the stroke layer from the previous render and paints
// just the segments added since. A different base image, or segments that no longer
// extend the cached ones, start the layer over.
//
// An Incremental is not safe for concurrent use.
type Incremental struct {
	backend Compositor

	base  image.Image
	under *image.RGBA // origin-anchored copy of base
	paint *image.RGBA
	drawn []stroke.Segment
}

// NewIncremental wraps a backend.
func NewIncremental(c Compositor) *Incremental {
	return &Incremental{backend: c}
}

// Flatten renders scene like the wrapped backend's Flatten. Erase marks split across
// renders may differ from a one-shot flatten by rounding in antialiased edges.
func (inc *Incremental) Flatten(ctx context.Context, scene Scene) (*image.RGBA, error) {
	if scene.Base == nil {
		inc.Reset()
		return nil, ErrNoImage
	}
	p, ok := inc.backend.(painter)
	if !ok {
		return inc.backend.Flatten(ctx, scene)
	}

	if inc.under == nil || scene.Base != inc.base || !extends(scene.Segments, inc.drawn) {
		inc.base = scene.Base
		inc.under = baseCopy(scene.Base)
		inc.paint = image.NewRGBA(inc.under.Bounds())
		inc.drawn = inc.drawn[:0]
	}

	if tail := scene.Segments[len(inc.drawn):]; len(tail) > 0 {
		runs, err := paintRuns(ctx, p, inc.paint, tail)
		if err != nil {
			// the layer may hold part of the tail
			inc.Reset()
			return nil, err
		}
		inc.drawn = append(inc.drawn, tail...)
		slog.Debug("compositor: strokes extended", "added", len(tail), "runs", runs, "total", len(inc.drawn))
	}

	out := image.NewRGBA(inc.under.Bounds())
	copy(out.Pix, inc.under.Pix)
	if len(inc.drawn) > 0 {
		draw.Draw(out, out.Bounds(), inc.paint, image.Point{}, draw.Over)
	}
	if err := finishTexts(p, out, scene.Texts); err != nil {
		return nil, err
	}
	return out, nil
}

// Reset drops the cached layers.
func (inc *Incremental) Reset() {
	inc.base = nil
	inc.under = nil
	inc.paint = nil
	inc.drawn = inc.drawn[:0]
}

// extends reports whether prefix is a leading part of segments.
func extends(segments, prefix []stroke.Segment) bool {
	if len(prefix) > len(segments) {
		return false
	}
	for i := range prefix {
		if segments[i] != prefix[i] {
			return false
		}
	}
	return true
}
