package compositor

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgedit/internal/overlay"
	"imgedit/internal/stroke"
	"imgedit/pkg/colorutil"
	"imgedit/pkg/geometry"
)

// maxChannelDiff returns the largest per-channel difference between two same-sized images.
func maxChannelDiff(a, b *image.RGBA) int {
	worst := 0
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		if d < 0 {
			d = -d
		}
		if d > worst {
			worst = d
		}
	}
	return worst
}

func TestIncrementalMatchesFlatten(t *testing.T) {
	base := solid(image.Rect(0, 0, 120, 80), colorutil.White)
	segments := []stroke.Segment{
		seg(10, 40, 60, 40, 8, colorutil.Red, stroke.ModeNormal),
		seg(60, 40, 110, 40, 8, colorutil.Red, stroke.ModeNormal),
		seg(50, 30, 50, 50, 6, colorutil.White, stroke.ModeErase),
		seg(50, 50, 55, 60, 6, colorutil.White, stroke.ModeErase),
		seg(80, 20, 80, 60, 4, blue, stroke.ModeNormal),
	}
	texts := overlay.NewSet()
	texts.Add(geometry.Pt(5, 5), "ok", colorutil.Black, 14)

	for _, c := range backendsUnderTest(t) {
		inc := NewIncremental(c)
		var out *image.RGBA
		for _, n := range []int{1, 2, 3, 4, 5, 5} {
			var err error
			out, err = inc.Flatten(context.Background(), Scene{Base: base, Segments: segments[:n], Texts: texts.Items()})
			require.NoError(t, err, c.Name())
			assert.Len(t, inc.drawn, n, c.Name())
		}

		want, err := c.Flatten(context.Background(), Scene{Base: base, Segments: segments, Texts: texts.Items()})
		require.NoError(t, err, c.Name())
		assert.LessOrEqual(t, maxChannelDiff(want, out), 2, c.Name())
		assert.Equal(t, colorutil.Red, out.RGBAAt(20, 40), c.Name())
		assert.Equal(t, colorutil.White, out.RGBAAt(50, 40), c.Name())
	}
}

func TestIncrementalKeepsLayerBetweenRenders(t *testing.T) {
	base := solid(image.Rect(0, 0, 40, 40), colorutil.White)
	segments := []stroke.Segment{seg(5, 5, 35, 5, 4, colorutil.Red, stroke.ModeNormal)}
	inc := NewIncremental(NewRaster())

	_, err := inc.Flatten(context.Background(), Scene{Base: base, Segments: segments})
	require.NoError(t, err)
	paint := inc.paint

	segments = append(segments, seg(5, 20, 35, 20, 4, blue, stroke.ModeNormal))
	out, err := inc.Flatten(context.Background(), Scene{Base: base, Segments: segments})
	require.NoError(t, err)
	assert.Same(t, paint, inc.paint)
	assert.Equal(t, colorutil.Red, out.RGBAAt(20, 5))
	assert.Equal(t, blue, out.RGBAAt(20, 20))
}

func TestIncrementalStartsOver(t *testing.T) {
	base := solid(image.Rect(0, 0, 40, 40), colorutil.White)
	first := []stroke.Segment{seg(5, 5, 35, 5, 4, colorutil.Red, stroke.ModeNormal)}
	other := []stroke.Segment{seg(5, 30, 35, 30, 4, blue, stroke.ModeNormal)}
	inc := NewIncremental(NewRaster())

	_, err := inc.Flatten(context.Background(), Scene{Base: base, Segments: first})
	require.NoError(t, err)

	// segments that do not extend the cached ones replace the layer
	out, err := inc.Flatten(context.Background(), Scene{Base: base, Segments: other})
	require.NoError(t, err)
	want, err := NewRaster().Flatten(context.Background(), Scene{Base: base, Segments: other})
	require.NoError(t, err)
	assert.Equal(t, want.Pix, out.Pix)

	// a new base image does too, even with the same segments
	bigger := solid(image.Rect(0, 0, 60, 60), colorutil.White)
	out, err = inc.Flatten(context.Background(), Scene{Base: bigger, Segments: other})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 60, 60), out.Bounds())
	assert.Equal(t, blue, out.RGBAAt(20, 30))

	_, err = inc.Flatten(context.Background(), Scene{})
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Nil(t, inc.paint)
	assert.Empty(t, inc.drawn)
}

func TestIncrementalCancelled(t *testing.T) {
	base := solid(image.Rect(0, 0, 20, 20), colorutil.White)
	segments := []stroke.Segment{seg(2, 10, 18, 10, 4, colorutil.Red, stroke.ModeNormal)}
	inc := NewIncremental(NewVector())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := inc.Flatten(ctx, Scene{Base: base, Segments: segments})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, inc.drawn)

	out, err := inc.Flatten(context.Background(), Scene{Base: base, Segments: segments})
	require.NoError(t, err)
	assert.Equal(t, colorutil.Red, out.RGBAAt(10, 10))
}
