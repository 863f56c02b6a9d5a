package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	"github.com/lucasb-eyer/go-colorful"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
)

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorSample is a single pixel value in several representations.
type ColorSample struct {
	Hex string   `json:"hex"` // "#rrggbb", alpha excluded
	R   uint8    `json:"r"`
	G   uint8    `json:"g"`
	B   uint8    `json:"b"`
	A   uint8    `json:"a"`
	HSL HSLColor `json:"hsl"`
}

// Decoded describes encoded output after it has been decoded again.
type Decoded struct {
	// Width and Height are the decoded dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the format name reported by the registered decoder.
	Format string `json:"format"`

	// ColorDepth is "8-bit" or "16-bit" per channel.
	ColorDepth string `json:"colorDepth"`

	// Opaque is true when every pixel is fully opaque.
	Opaque bool `json:"opaque"`

	// Center is the pixel at the middle of the image.
	Center ColorSample `json:"center"`
}

// Inspect decodes out.Bytes and checks that the decoded image has the
// format and dimensions out claims.
//
// Parameters:
//   - out: Engine output. Must carry non-empty Bytes.
//
// Returns:
//   - *Decoded: What the bytes decode to.
//   - error: Non-nil if the bytes do not decode or disagree with out.
//
// Pixel values are not checked against the job background. Center is
// informational.
func Inspect(out *Output) (*Decoded, error) {
	if out == nil || len(out.Bytes) == 0 {
		return nil, fmt.Errorf("no encoded bytes to inspect")
	}

	img, format, err := image.Decode(bytes.NewReader(out.Bytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s output: %w", out.Format, err)
	}
	if format != out.Format {
		return nil, fmt.Errorf("output decodes as %s, expected %s", format, out.Format)
	}

	b := img.Bounds()
	if b.Dx() != out.Width || b.Dy() != out.Height {
		return nil, fmt.Errorf("output decodes to %dx%d, expected %dx%d", b.Dx(), b.Dy(), out.Width, out.Height)
	}

	center, err := SampleColor(img, b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2)
	if err != nil {
		return nil, err
	}

	d := &Decoded{
		Width:      b.Dx(),
		Height:     b.Dy(),
		Format:     format,
		ColorDepth: "8-bit",
		Opaque:     true,
		Center:     *center,
	}
	switch img.(type) {
	case *image.RGBA64, *image.NRGBA64, *image.Gray16:
		d.ColorDepth = "16-bit"
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		d.Opaque = o.Opaque()
	}
	return d, nil
}

// SampleColor extracts the color value at a specific pixel coordinate.
//
// Coordinates are absolute, so for images whose bounds do not start at the
// origin x and y must fall inside img.Bounds(). Components are reduced to
// 8 bits by dropping the low byte.
func SampleColor(img image.Image, x, y int) (*ColorSample, error) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	r, g, b, a := img.At(x, y).RGBA()
	r8, g8, b8, a8 := uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)

	// Hex and HSL describe the straight color, so ignore alpha here.
	c := colorful.Color{R: float64(r8) / 255, G: float64(g8) / 255, B: float64(b8) / 255}
	h, s, l := c.Hsl()

	return &ColorSample{
		Hex: c.Hex(),
		R:   r8,
		G:   g8,
		B:   b8,
		A:   a8,
		HSL: HSLColor{H: int(h + 0.5), S: int(s*100 + 0.5), L: int(l*100 + 0.5)},
	}, nil
}
