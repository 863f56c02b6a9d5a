package imaging

import (
	"bytes"
	"context"
	"image/png"

	"github.com/disintegration/imaging"
)

const imagingModule = "github.com/disintegration/imaging"

var imagingFormats = []string{"png", "jpeg", "gif", "tiff", "bmp"}

// ImagingEngine renders jobs with github.com/disintegration/imaging.
//
// Resizing uses the Lanczos filter and PNG output uses the library's default
// compression level.
type ImagingEngine struct {
	filter imaging.ResampleFilter
}

// NewImagingEngine creates the default engine.
func NewImagingEngine() *ImagingEngine {
	return &ImagingEngine{filter: imaging.Lanczos}
}

// Name implements Engine.
func (e *ImagingEngine) Name() string { return "imaging" }

// Info implements Engine.
func (e *ImagingEngine) Info() Info {
	return Info{
		Engine:  e.Name(),
		Module:  imagingModule,
		Version: moduleVersion(imagingModule),
		Formats: append([]string(nil), imagingFormats...),
	}
}

// Render implements Engine.
func (e *ImagingEngine) Render(ctx context.Context, job Job) (*Output, error) {
	if err := job.Validate(); err != nil {
		return nil, processingError(e.Name(), "validate", err)
	}
	format, err := checkFormat(job.Format, imagingFormats)
	if err != nil {
		return nil, processingError(e.Name(), "format", err)
	}
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return nil, processingError(e.Name(), "format", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, processingError(e.Name(), "start", err)
	}

	src := imaging.New(job.Width, job.Height, job.Background)
	resized := imaging.Resize(src, job.TargetWidth, job.TargetHeight, e.filter)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, f, imaging.PNGCompressionLevel(png.DefaultCompression)); err != nil {
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
