package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#000000", Black},
		{"#fff", White},
		{"ff0000", Red},
		{"#ff000080", color.RGBA{R: 0x80, A: 0x80}},
		{"#00000000", color.RGBA{}},
	}
	for _, tc := range tests {
		got, err := ParseHex(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseHexRejects(t *testing.T) {
	for _, in := range []string{"", "#12", "#gggggg", "#1234567"} {
		_, err := ParseHex(in)
		assert.Error(t, err, in)
	}
}

func TestHex(t *testing.T) {
	assert.Equal(t, "#1a2b3c", Hex(color.RGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0xff}))
	// premultiplied half-transparent red formats as full red
	assert.Equal(t, "#ff0000", Hex(color.RGBA{R: 0x80, A: 0x80}))
	assert.Equal(t, "#000000", Hex(color.RGBA{}))
}

func TestHexAlphaRoundTrip(t *testing.T) {
	assert.Equal(t, "#ff0000", HexAlpha(Red))
	assert.Equal(t, "#ff000080", HexAlpha(color.RGBA{R: 0x80, A: 0x80}))

	// low alphas lose precision when premultiplied, so only these survive exactly
	for _, in := range []string{"#ff000080", "#abcdef7f", "#123456"} {
		c, err := ParseHex(in)
		require.NoError(t, err, in)
		back, err := ParseHex(HexAlpha(c))
		require.NoError(t, err, in)
		assert.Equal(t, c, back, in)
	}
}

func TestParsedColorsArePremultiplied(t *testing.T) {
	for _, in := range []string{"#ff000080", "#ffffff10", "#abcdef7f"} {
		c, err := ParseHex(in)
		require.NoError(t, err, in)
		assert.LessOrEqual(t, c.R, c.A, in)
		assert.LessOrEqual(t, c.G, c.A, in)
		assert.LessOrEqual(t, c.B, c.A, in)
	}
	c, err := ParseHex("#ff000080")
	require.NoError(t, err)
	assert.InDelta(t, 0.502, Opacity(c), 1e-3)
}
