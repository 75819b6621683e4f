// Package fonts provides the Go Regular typeface at arbitrary pixel sizes.
package fonts

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"imgedit/pkg/geometry"
)

// Bank caches one face per pixel size. Faces are not safe for concurrent use, so
// callers draw with a face from one goroutine at a time.
type Bank struct {
	mu    sync.Mutex
	font  *opentype.Font
	cache map[float64]font.Face
}

var (
	defaultBank     *Bank
	defaultBankOnce sync.Once
	defaultBankErr  error
)

// Default returns the process-wide bank, parsing the embedded font on first use.
func Default() (*Bank, error) {
	defaultBankOnce.Do(func() {
		defaultBank, defaultBankErr = NewBank()
	})
	return defaultBank, defaultBankErr
}

// NewBank parses the embedded Go Regular font.
func NewBank() (*Bank, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Bank{font: f, cache: make(map[float64]font.Face)}, nil
}

// Face returns a face whose em size is size pixels. Sizes below 1 are raised to 1.
func (b *Bank) Face(size float64) (font.Face, error) {
	size = math.Max(1, size)

	b.mu.Lock()
	defer b.mu.Unlock()
	if face, ok := b.cache[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(b.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %.1fpx face: %w", size, err)
	}
	b.cache[size] = face
	return face, nil
}

// Measure returns the advance width of s and the line height, in pixels.
func (b *Bank) Measure(s string, size float64) geometry.Size {
	face, err := b.Face(size)
	if err != nil {
		return geometry.Size{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	adv := font.MeasureString(face, s)
	m := face.Metrics()
	return geometry.Size{
		Width:  float64(adv) / 64,
		Height: float64(m.Ascent+m.Descent) / 64,
	}
}
