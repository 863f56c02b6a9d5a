package imaging

import (
	"bytes"
	"context"
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
)

const bildModule = "github.com/anthonynsimon/bild"

var bildFormats = []string{"png", "jpeg", "bmp"}

// BildEngine renders jobs with github.com/anthonynsimon/bild.
type BildEngine struct {
	filter      transform.ResampleFilter
	jpegQuality int
}

// NewBildEngine creates an engine using linear resampling.
func NewBildEngine() *BildEngine {
	return &BildEngine{filter: transform.Linear, jpegQuality: 90}
}

// Name implements Engine.
func (e *BildEngine) Name() string { return "bild" }

// Info implements Engine.
func (e *BildEngine) Info() Info {
	return Info{
		Engine:  e.Name(),
		Module:  bildModule,
		Version: moduleVersion(bildModule),
		Formats: append([]string(nil), bildFormats...),
	}
}

// Render implements Engine.
func (e *BildEngine) Render(ctx context.Context, job Job) (*Output, error) {
	if err := job.Validate(); err != nil {
		return nil, processingError(e.Name(), "validate", err)
	}
	format, err := checkFormat(job.Format, bildFormats)
	if err != nil {
		return nil, processingError(e.Name(), "format", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, processingError(e.Name(), "start", err)
	}

	src := image.NewRGBA(image.Rect(0, 0, job.Width, job.Height))
	draw.Draw(src, src.Bounds(), image.NewUniform(job.Background), image.Point{}, draw.Src)

	resized := transform.Resize(src, job.TargetWidth, job.TargetHeight, e.filter)

	var encoder imgio.Encoder
	switch format {
	case "jpeg":
		encoder = imgio.JPEGEncoder(e.jpegQuality)
	case "bmp":
		encoder = imgio.BMPEncoder()
	default:
		encoder = imgio.PNGEncoder()
	}

	var buf bytes.Buffer
	if err := encoder(&buf, resized); err != nil {
		return nil, processingError(e.Name(), "encode", err)
	}

	return &Output{
		Bytes:    buf.Bytes(),
		Width:    resized.Bounds().Dx(),
		Height:   resized.Bounds().Dy(),
		Format:   format,
		MimeType: mimeType(format),
	}, nil
}
