package imaging

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrProcessing is wrapped by every error an Engine returns from Render.
var ErrProcessing = errors.New("image processing failed")

// Job describes a single synthesize, resize and encode run.
type Job struct {
	// Width and Height are the source bitmap dimensions in pixels.
	Width  int
	Height int

	// Background is the solid fill color of the source bitmap.
	Background color.Color

	// TargetWidth and TargetHeight are the dimensions after resizing.
	TargetWidth  int
	TargetHeight int

	// Format is the output format name, e.g. "png".
	Format string
}

// Validate checks that the job can be rendered.
//
// Targets may not be larger than the source: the probe only ever downscales.
func (j Job) Validate() error {
	if j.Width <= 0 || j.Height <= 0 {
		return fmt.Errorf("invalid source size %dx%d", j.Width, j.Height)
	}
	if j.TargetWidth <= 0 || j.TargetHeight <= 0 {
		return fmt.Errorf("invalid target size %dx%d", j.TargetWidth, j.TargetHeight)
	}
	if j.TargetWidth > j.Width || j.TargetHeight > j.Height {
		return fmt.Errorf("target %dx%d exceeds source %dx%d",
			j.TargetWidth, j.TargetHeight, j.Width, j.Height)
	}
	if j.Background == nil {
		return fmt.Errorf("background color is required")
	}
	if j.Format == "" {
		return fmt.Errorf("output format is required")
	}
	return nil
}

// UncompressedSize is the size in bytes of the source bitmap at three 8-bit
// channels per pixel.
func (j Job) UncompressedSize() int {
	return j.Width * j.Height * 3
}

// Output is the encoded result of a Job.
type Output struct {
	Bytes    []byte `json:"-"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	MimeType string `json:"mime_type"`
}

// Info describes the library behind an Engine.
type Info struct {
	// Engine is the registry name, e.g. "imaging".
	Engine string `json:"engine"`

	// Module is the Go module path of the backing library.
	Module string `json:"module"`

	// Version is the module version linked into this binary, or "unknown"
	// when build information is unavailable.
	Version string `json:"version"`

	// Formats lists the output formats Render accepts.
	Formats []string `json:"formats"`
}

// Engine renders jobs with one particular image library.
type Engine interface {
	Name() string
	Info() Info
	Render(ctx context.Context, job Job) (*Output, error)
}

// processingError wraps cause with ErrProcessing and the engine name.
func processingError(engine, step string, cause error) error {
	return fmt.Errorf("%w: %s: %s: %w", ErrProcessing, engine, step, cause)
}

// checkFormat returns the normalized format name if it is one of supported.
func checkFormat(format string, supported []string) (string, error) {
	f := strings.ToLower(strings.TrimPrefix(format, "."))
	if f == "jpg" {
		f = "jpeg"
	}
	for _, s := range supported {
		if s == f {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(supported, ", "))
}

// CheckLossless reports an error unless format is a lossless format that
// compresses: png, gif or tiff. jpeg is lossy and bmp stores raw pixels.
func CheckLossless(format string) error {
	f, err := checkFormat(format, []string{"png", "gif", "tiff", "jpeg", "bmp"})
	if err != nil {
		return err
	}
	switch f {
	case "jpeg":
		return fmt.Errorf("format %q is lossy", format)
	case "bmp":
		return fmt.Errorf("format %q is uncompressed", format)
	}
	return nil
}

func mimeType(format string) string {
	return "image/" + format
}

// ParseColor parses a hex color such as "#FF6464" into an opaque color.
func ParseColor(hex string) (color.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// moduleVersion looks up the version of a dependency in the running binary.
func moduleVersion(path string) string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range bi.Deps {
		if dep.Path != path {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			return dep.Replace.Version
		}
		return dep.Version
	}
	return "unknown"
}

// Registry maps engine names to engines.
type Registry struct {
	engines  map[string]Engine
	fallback string
}

// NewRegistry builds a registry with all built-in engines. defaultName must
// name one of them.
func NewRegistry(defaultName string) (*Registry, error) {
	return NewRegistryWith(defaultName, NewImagingEngine(), NewBildEngine(), NewXDrawEngine())
}

// NewRegistryWith builds a registry from the given engines.
func NewRegistryWith(defaultName string, engines ...Engine) (*Registry, error) {
	r := &Registry{
		engines:  make(map[string]Engine, len(engines)),
		fallback: defaultName,
	}
	for _, e := range engines {
		if _, dup := r.engines[e.Name()]; dup {
			return nil, fmt.Errorf("duplicate engine %q", e.Name())
		}
		r.engines[e.Name()] = e
	}
	if _, ok := r.engines[defaultName]; !ok {
		return nil, fmt.Errorf("unknown default engine %q (available: %s)",
			defaultName, strings.Join(r.Names(), ", "))
	}
	return r, nil
}

// Get returns the named engine, or the default engine when name is empty.
func (r *Registry) Get(name string) (Engine, error) {
	if name == "" {
		name = r.fallback
	}
	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown engine %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return e, nil
}

// Default returns the default engine.
func (r *Registry) Default() Engine {
	return r.engines[r.fallback]
}

// Supports reports an error naming every registered engine that cannot
// encode format.
func (r *Registry) Supports(format string) error {
	var missing []string
	for _, name := range r.Names() {
		if _, err := checkFormat(format, r.engines[name].Info().Formats); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("format %q is not supported by engine %s", format, strings.Join(missing, ", "))
	}
	return nil
}

// Names returns the registered engine names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
