package compositor

import (
	"context"
	"image"

	"github.com/fogleman/gg"

	"imgedit/internal/fonts"
	"imgedit/internal/overlay"
	"imgedit/internal/stroke"
	"imgedit/pkg/colorutil"
)

// Raster paints strokes and text directly with a 2D drawing context.
type Raster struct{}

// NewRaster returns the raster backend.
func NewRaster() *Raster {
	return &Raster{}
}

// Name implements Compositor.
func (r *Raster) Name() string { return "raster" }

// Flatten implements Compositor.
func (r *Raster) Flatten(ctx context.Context, scene Scene) (*image.RGBA, error) {
	return flatten(ctx, scene, r)
}

func (r *Raster) drawRun(paint *image.RGBA, rn run) error {
	if rn.mode == stroke.ModeErase {
		b := paint.Bounds()
		mask := gg.NewContext(b.Dx(), b.Dy())
		strokeSegments(mask, rn.segments, true)
		eraseWithMask(paint, mask.Image())
		return nil
	}
	strokeSegments(gg.NewContextForRGBA(paint), rn.segments, false)
	return nil
}

// strokeSegments draws segments with round caps and joins. opaque forces full coverage,
// which is what an erase mask needs regardless of the brush color.
func strokeSegments(dc *gg.Context, segments []stroke.Segment, opaque bool) {
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	for _, seg := range segments {
		if opaque {
			dc.SetColor(colorutil.White)
		} else {
			dc.SetColor(seg.Color)
		}
		if seg.IsPoint() {
			dc.DrawCircle(seg.Start.X, seg.Start.Y, seg.Width/2)
			dc.Fill()
			continue
		}
		dc.SetLineWidth(seg.Width)
		dc.DrawLine(seg.Start.X, seg.Start.Y, seg.End.X, seg.End.Y)
		dc.Stroke()
	}
}

func (r *Raster) drawTexts(out *image.RGBA, texts []*overlay.Text) error {
	bank, err := fonts.Default()
	if err != nil {
		return err
	}
	dc := gg.NewContextForRGBA(out)
	for _, t := range texts {
		face, err := bank.Face(t.FontSize)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		dc.SetColor(t.Color)
		origin := t.Baseline()
		dc.DrawString(t.Content, origin.X, origin.Y)
	}
	return nil
}
