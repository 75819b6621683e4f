// Package compositor flattens a base image, recorded strokes and text overlays into one
// raster at the image's native resolution.
//
// Two backends implement the same Compositor interface: "raster" paints directly with
// fogleman/gg, "vector" builds an SVG scene and rasterizes it with oksvg. Neither reads
// the live view transform: strokes and overlays are already in image space, so the
// output does not depend on zoom or pan at export time.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"sort"

	"github.com/anthonynsimon/bild/clone"

	"imgedit/internal/overlay"
	"imgedit/internal/stroke"
)

var (
	// ErrNoImage is returned when flattening a scene without a base image.
	ErrNoImage = errors.New("no image loaded")
	// ErrUnknownBackend is returned by New for unregistered backend names.
	ErrUnknownBackend = errors.New("unknown compositor backend")
)

// Scene is everything that ends up in an export.
type Scene struct {
	Base     image.Image
	Segments []stroke.Segment
	Texts    []*overlay.Text
}

// Bounds returns the output rectangle, anchored at the origin.
func (s Scene) Bounds() image.Rectangle {
	if s.Base == nil {
		return image.Rectangle{}
	}
	b := s.Base.Bounds()
	return image.Rect(0, 0, b.Dx(), b.Dy())
}

// Compositor flattens a scene.
type Compositor interface {
	Name() string
	Flatten(ctx context.Context, scene Scene) (*image.RGBA, error)
}

// painter is the per-backend half of the pipeline: how one run of segments lands on the
// paint layer and how overlays land on the output.
type painter interface {
	drawRun(paint *image.RGBA, r run) error
	drawTexts(out *image.RGBA, texts []*overlay.Text) error
}

var backends = map[string]func() Compositor{
	"raster": func() Compositor { return NewRaster() },
	"vector": func() Compositor { return NewVector() },
}

// DefaultBackend is used when no backend is configured.
const DefaultBackend = "raster"

// New returns the backend registered under name.
func New(name string) (Compositor, error) {
	if name == "" {
		name = DefaultBackend
	}
	factory, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return factory(), nil
}

// Names returns the registered backend names, sorted.
func Names() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// run is a maximal sequence of segments sharing a composite mode. Runs must be applied
// in order: an erase only affects paint recorded before it.
type run struct {
	mode     stroke.CompositeMode
	segments []stroke.Segment
}

func splitRuns(segments []stroke.Segment) []run {
	var runs []run
	for _, seg := range segments {
		if n := len(runs); n > 0 && runs[n-1].mode == seg.Mode {
			runs[n-1].segments = append(runs[n-1].segments, seg)
			continue
		}
		runs = append(runs, run{mode: seg.Mode, segments: []stroke.Segment{seg}})
	}
	return runs
}

// baseCopy returns an origin-anchored RGBA copy of the base image.
func baseCopy(base image.Image) *image.RGBA {
	out := clone.AsRGBA(base)
	out.Rect = out.Rect.Sub(out.Rect.Min)
	return out
}

// eraseWithMask applies destination-out: every paint pixel is scaled by the inverse of
// the mask's alpha, so paint outside the mask is left as it was. Both images share the
// paint layer's coordinate space.
func eraseWithMask(paint *image.RGBA, mask image.Image) {
	b := paint.Bounds().Intersect(mask.Bounds())
	rgba, fast := mask.(*image.RGBA)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var ma uint32
			if fast {
				ma = uint32(rgba.Pix[rgba.PixOffset(x, y)+3]) * 0x101
			} else {
				_, _, _, ma = mask.At(x, y).RGBA()
			}
			if ma == 0 {
				continue
			}
			keep := 0xffff - ma
			i := paint.PixOffset(x, y)
			px := paint.Pix[i : i+4 : i+4]
			for c := range px {
				px[c] = uint8((uint32(px[c])*keep + 0x7fff) / 0xffff)
			}
		}
	}
}

// flatten is the pipeline shared by both backends: copy the base, build the stroke
// layer run by run, composite it over the base, then draw the text on top.
func flatten(ctx context.Context, scene Scene, p painter) (*image.RGBA, error) {
	if scene.Base == nil {
		return nil, ErrNoImage
	}
	out := baseCopy(scene.Base)

	if len(scene.Segments) > 0 {
		paint := image.NewRGBA(out.Bounds())
		runs, err := paintRuns(ctx, p, paint, scene.Segments)
		if err != nil {
			return nil, err
		}
		draw.Draw(out, out.Bounds(), paint, image.Point{}, draw.Over)
		slog.Debug("compositor: strokes flattened", "segments", len(scene.Segments), "runs", runs)
	}
	if err := finishTexts(p, out, scene.Texts); err != nil {
		return nil, err
	}
	return out, nil
}

// paintRuns draws segments onto paint one run at a time, checking ctx between runs.
func paintRuns(ctx context.Context, p painter, paint *image.RGBA, segments []stroke.Segment) (int, error) {
	runs := splitRuns(segments)
	for _, r := range runs {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := p.drawRun(paint, r); err != nil {
			return 0, err
		}
	}
	return len(runs), nil
}

func finishTexts(p painter, out *image.RGBA, texts []*overlay.Text) error {
	if len(texts) == 0 {
		return nil
	}
	return p.drawTexts(out, texts)
}
