package compositor

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"imgedit/internal/view"
	"imgedit/pkg/colorutil"
)

// RenderView draws a flattened image into a viewport-sized raster using the view
// transform. This is the live display path; exports never go through it.
func RenderView(flat image.Image, v *view.ViewState, w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(colorutil.Canvas), image.Point{}, draw.Src)
	if flat == nil || !v.HasImage() {
		return out
	}

	s2d := f64.Aff3(v.Transform().Aff3())
	interp := xdraw.ApproxBiLinear
	if v.Scale >= 2 {
		// keep individual pixels crisp when zoomed in
		interp = xdraw.NearestNeighbor
	}
	interp.Transform(out, s2d, flat, flat.Bounds(), xdraw.Over, nil)
	return out
}
