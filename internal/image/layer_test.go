package image

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, img))
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	base, err := Decode(bytes.NewReader(testPNG(t, 7, 5)))
	require.NoError(t, err)
	assert.Equal(t, "png", base.Format)
	assert.Equal(t, "image/png", base.MIME)
	assert.Equal(t, 7, base.Width())
	assert.Equal(t, 5, base.Height())
	r, _, _, _ := base.Image.At(1, 1).RGBA()
	assert.Equal(t, uint32(200*0x101), r)
}

func TestDecodeRejectsNonImage(t *testing.T) {
	_, err := Decode(strings.NewReader("definitely not pixels"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Decode(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.png")
	require.NoError(t, os.WriteFile(path, testPNG(t, 3, 4), 0o644))

	base, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, base.Path)
	assert.Equal(t, 3.0, base.Size().Width)

	out := filepath.Join(dir, DefaultExportName)
	require.NoError(t, SavePNG(out, base.Image))
	again, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, base.Image.Bounds(), again.Image.Bounds())

	_, err = Load(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("photo.JPG"))
	assert.True(t, IsSupportedFormat("scan.tif"))
	assert.False(t, IsSupportedFormat("notes.txt"))
}

func TestNilBaseImage(t *testing.T) {
	var b *BaseImage
	assert.Zero(t, b.Width())
	assert.True(t, b.Size().Empty())
}
