// Package colorutil provides color parsing and formatting for brush and text settings.
package colorutil

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Common colors used throughout the application.
var (
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 255}

	// Canvas is the neutral background shown around the image in the live view.
	Canvas = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// ParseHex parses "#rgb", "#rrggbb" or "#rrggbbaa" (the leading '#' is optional).
// The hex digits are straight alpha; the result is premultiplied like every color.RGBA.
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]}) + "ff"
	case 6:
		h += "ff"
	case 8:
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	n := color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}
	return color.RGBAModel.Convert(n).(color.RGBA), nil
}

// straight un-premultiplies c.
func straight(c color.RGBA) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

// Hex formats c as "#rrggbb" in straight alpha, dropping the alpha channel.
func Hex(c color.RGBA) string {
	n := straight(c)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

// HexAlpha is like Hex but appends the alpha byte when c is not opaque, so the result
// parses back to c with ParseHex.
func HexAlpha(c color.RGBA) string {
	if c.A == 255 {
		return Hex(c)
	}
	n := straight(c)
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

// Opacity returns the alpha channel as a value in [0, 1].
func Opacity(c color.RGBA) float64 {
	return float64(c.A) / 255
}
