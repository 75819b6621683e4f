package compositor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"strconv"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"imgedit/internal/fonts"
	baseimage "imgedit/internal/image"
	"imgedit/internal/overlay"
	"imgedit/internal/stroke"
	"imgedit/pkg/colorutil"
)

// Vector describes strokes as SVG elements and rasterizes them. The same description,
// with the base image embedded and erase runs expressed as masks, is what EncodeSVG
// writes.
type Vector struct{}

// NewVector returns the vector backend.
func NewVector() *Vector {
	return &Vector{}
}

// Name implements Compositor.
func (v *Vector) Name() string { return "vector" }

// Flatten implements Compositor.
func (v *Vector) Flatten(ctx context.Context, scene Scene) (*image.RGBA, error) {
	return flatten(ctx, scene, v)
}

// drawRun rasterizes one run into its own layer. Normal runs are composited over the
// paint; erase runs use the layer's coverage as a destination-out mask.
func (v *Vector) drawRun(paint *image.RGBA, rn run) error {
	b := paint.Bounds()
	var doc bytes.Buffer
	fmt.Fprintf(&doc, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		b.Dx(), b.Dy(), b.Dx(), b.Dy())
	writeSegments(&doc, rn.segments, rn.mode == stroke.ModeErase)
	doc.WriteString(`</svg>`)

	icon, err := oksvg.ReadIconStream(&doc, oksvg.StrictErrorMode)
	if err != nil {
		return fmt.Errorf("failed to parse stroke run: %w", err)
	}
	icon.SetTarget(0, 0, float64(b.Dx()), float64(b.Dy()))

	layer := image.NewRGBA(b)
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), layer, b)
	icon.Draw(rasterx.NewDasher(b.Dx(), b.Dy(), scanner), 1.0)

	if rn.mode == stroke.ModeErase {
		eraseWithMask(paint, layer)
		return nil
	}
	draw.Draw(paint, b, layer, b.Min, draw.Over)
	return nil
}

// EncodeSVG writes the scene as a standalone SVG document.
func (v *Vector) EncodeSVG(w io.Writer, scene Scene) error {
	if scene.Base == nil {
		return ErrNoImage
	}
	b := scene.Bounds()

	var base bytes.Buffer
	if err := baseimage.EncodePNG(&base, baseCopy(scene.Base)); err != nil {
		return err
	}

	var doc bytes.Buffer
	fmt.Fprintf(&doc, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		b.Dx(), b.Dy(), b.Dx(), b.Dy())
	fmt.Fprintf(&doc, `<image x="0" y="0" width="%d" height="%d" href="data:image/png;base64,%s"/>`+"\n",
		b.Dx(), b.Dy(), base64.StdEncoding.EncodeToString(base.Bytes()))

	// Each erase run masks everything painted before it, so the stroke group is built
	// inside out: earlier content gets wrapped in a masked group.
	var defs, content bytes.Buffer
	for i, rn := range splitRuns(scene.Segments) {
		if rn.mode != stroke.ModeErase {
			writeSegments(&content, rn.segments, false)
			continue
		}
		id := "erase" + strconv.Itoa(i)
		fmt.Fprintf(&defs, `<mask id="%s" maskUnits="userSpaceOnUse" x="0" y="0" width="%d" height="%d">`, id, b.Dx(), b.Dy())
		fmt.Fprintf(&defs, `<rect width="%d" height="%d" fill="#ffffff"/>`, b.Dx(), b.Dy())
		writeSegments(&defs, rn.segments, false)
		defs.WriteString("</mask>\n")

		wrapped := fmt.Sprintf(`<g mask="url(#%s)">%s</g>`, id, content.String())
		content.Reset()
		content.WriteString(wrapped)
	}
	if defs.Len() > 0 {
		doc.WriteString("<defs>\n")
		doc.Write(defs.Bytes())
		doc.WriteString("</defs>\n")
	}
	if content.Len() > 0 {
		doc.WriteString(`<g id="strokes">`)
		doc.Write(content.Bytes())
		doc.WriteString("</g>\n")
	}

	for _, t := range scene.Texts {
		o := t.Baseline()
		fmt.Fprintf(&doc, `<text x="%s" y="%s" font-family="Go, sans-serif" font-size="%s" fill="%s"%s>`,
			num(o.X), num(o.Y), num(t.FontSize), colorutil.Hex(t.Color), opacityAttr("fill-opacity", t.Color))
		if err := xml.EscapeText(&doc, []byte(t.Content)); err != nil {
			return err
		}
		doc.WriteString("</text>\n")
	}
	doc.WriteString("</svg>\n")

	_, err := w.Write(doc.Bytes())
	return err
}

// writeSegments emits one element per segment. Erase segments inside a mask are drawn
// in black (hidden); in a standalone erase run they are drawn opaque to form coverage.
func writeSegments(w *bytes.Buffer, segments []stroke.Segment, coverage bool) {
	for _, seg := range segments {
		col := colorutil.Hex(seg.Color)
		alpha := opacityAttr("stroke-opacity", seg.Color)
		fillAlpha := opacityAttr("fill-opacity", seg.Color)
		switch {
		case coverage:
			col, alpha, fillAlpha = "#ffffff", "", ""
		case seg.Mode == stroke.ModeErase:
			col, alpha, fillAlpha = "#000000", "", ""
		}

		if seg.IsPoint() {
			fmt.Fprintf(w, `<circle cx="%s" cy="%s" r="%s" fill="%s"%s/>`,
				num(seg.Start.X), num(seg.Start.Y), num(seg.Width/2), col, fillAlpha)
			continue
		}
		fmt.Fprintf(w, `<path d="M%s %sL%s %s" fill="none" stroke="%s" stroke-width="%s" stroke-linecap="round" stroke-linejoin="round"%s/>`,
			num(seg.Start.X), num(seg.Start.Y), num(seg.End.X), num(seg.End.Y), col, num(seg.Width), alpha)
	}
}

func opacityAttr(name string, c color.RGBA) string {
	if c.A == 255 {
		return ""
	}
	return fmt.Sprintf(` %s="%s"`, name, num(colorutil.Opacity(c)))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// drawTexts draws overlays with a font.Drawer; oksvg has no text support.
func (v *Vector) drawTexts(out *image.RGBA, texts []*overlay.Text) error {
	bank, err := fonts.Default()
	if err != nil {
		return err
	}
	for _, t := range texts {
		face, err := bank.Face(t.FontSize)
		if err != nil {
			return err
		}
		o := t.Baseline()
		d := &font.Drawer{
			Dst:  out,
			Src:  image.NewUniform(t.Color),
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.Int26_6(o.X * 64), Y: fixed.Int26_6(o.Y * 64)},
		}
		d.DrawString(t.Content)
	}
	return nil
}
