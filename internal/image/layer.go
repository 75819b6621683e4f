// Package image provides base image loading and PNG encoding.
package image

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"imgedit/pkg/geometry"
)

// sniffLen is the number of header bytes filetype needs to identify a format.
const sniffLen = 262

var (
	// ErrUnsupportedFormat is returned for input that is not a decodable image.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrEmptyImage is returned for images with no pixels.
	ErrEmptyImage = errors.New("image has zero size")
)

// BaseImage is the loaded raster the editor draws over. It is never modified.
type BaseImage struct {
	Path   string      // Original file path, empty when decoded from a stream
	Image  image.Image // Decoded pixels
	Format string      // Decoder name, e.g. "png"
	MIME   string      // Sniffed MIME type
}

// Load reads and decodes the image at path.
func Load(path string) (*BaseImage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	base, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	base.Path = path
	return base, nil
}

// Decode sniffs and decodes an image stream.
func Decode(r io.Reader) (*BaseImage, error) {
	br := bufio.NewReaderSize(r, sniffLen*2)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if !filetype.IsImage(head) {
		return nil, ErrUnsupportedFormat
	}
	kind, _ := filetype.Match(head)

	img, format, err := image.Decode(br)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind.Extension)
		}
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	return &BaseImage{
		Image:  img,
		Format: format,
		MIME:   kind.MIME.Value,
	}, nil
}

// FromImage wraps an already decoded image.
func FromImage(img image.Image) *BaseImage {
	return &BaseImage{Image: img, Format: "memory"}
}

// Width returns the image width in pixels.
func (b *BaseImage) Width() int {
	if b == nil || b.Image == nil {
		return 0
	}
	return b.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (b *BaseImage) Height() int {
	if b == nil || b.Image == nil {
		return 0
	}
	return b.Image.Bounds().Dy()
}

// Size returns the image dimensions.
func (b *BaseImage) Size() geometry.Size {
	return geometry.Size{
		Width:  float64(b.Width()),
		Height: float64(b.Height()),
	}
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// SavePNG writes img to path as PNG.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := EncodePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SupportedFormats returns the list of supported image extensions.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".tiff", ".tif", ".bmp", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// DefaultExportName is the file name suggested for exports.
const DefaultExportName = "edited-image.png"
