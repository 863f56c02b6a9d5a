package imaging

import (
	"bytes"
	"context"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

const xdrawModule = "golang.org/x/image"

var xdrawFormats = []string{"png", "jpeg", "gif", "tiff", "bmp"}

// XDrawEngine renders jobs with golang.org/x/image/draw scalers and the
// standard library and x/image encoders.
type XDrawEngine struct {
	scaler draw.Scaler
}

// NewXDrawEngine creates an engine using Catmull-Rom scaling.
func NewXDrawEngine() *XDrawEngine {
	return &XDrawEngine{scaler: draw.CatmullRom}
}

// Name implements Engine.
func (e *XDrawEngine) Name() string { return "xdraw" }

// Info implements Engine.
func (e *XDrawEngine) Info() Info {
	return Info{
		Engine:  e.Name(),
		Module:  xdrawModule,
		Version: moduleVersion(xdrawModule),
		Formats: append([]string(nil), xdrawFormats...),
	}
}

// Render implements Engine.
func (e *XDrawEngine) Render(ctx context.Context, job Job) (*Output, error) {
	if err := job.Validate(); err != nil {
		return nil, processingError(e.Name(), "validate", err)
	}
	format, err := checkFormat(job.Format, xdrawFormats)
	if err != nil {
		return nil, processingError(e.Name(), "format", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, processingError(e.Name(), "start", err)
	}

	src := image.NewNRGBA(image.Rect(0, 0, job.Width, job.Height))
	draw.Draw(src, src.Bounds(), image.NewUniform(job.Background), image.Point{}, draw.Src)

	dst := image.NewNRGBA(image.Rect(0, 0, job.TargetWidth, job.TargetHeight))
	e.scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := encodeStd(&buf, dst, format); err != nil {
		return nil, processingError(e.Name(), "encode", err)
	}

	return &Output{
		Bytes:    buf.Bytes(),
		Width:    dst.Bounds().Dx(),
		Height:   dst.Bounds().Dy(),
		Format:   format,
		MimeType: mimeType(format),
	}, nil
}

func encodeStd(w io.Writer, img image.Image, format string) error {
	switch format {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case "gif":
		return gif.Encode(w, img, nil)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return png.Encode(w, img)
	}
}
