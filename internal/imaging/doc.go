// Package imaging provides the image engines exercised by the probe.
//
// An Engine synthesizes a solid-color bitmap, downscales it and encodes the
// result to a standard raster format entirely in memory. Three engines are
// available, each backed by a different library:
//
//   - "imaging": github.com/disintegration/imaging (default)
//   - "bild": github.com/anthonynsimon/bild
//   - "xdraw": golang.org/x/image/draw with the standard library encoders
//
// # Jobs
//
// A Job describes one render: source dimensions, fill color, target
// dimensions and output format. Jobs are plain values; Validate reports
// malformed ones before any pixels are allocated.
//
// # Verification
//
// Inspect decodes an Output with the registered standard and x/image
// decoders and confirms the format and dimensions it claims. It also samples
// the center pixel for display.
//
// # Thread Safety
//
// Engines hold no mutable state and are safe for concurrent use. The
// Registry is read-only after construction.
//
// # Error Handling
//
// Every failure returned by Render wraps ErrProcessing, so callers can tell
// an engine failure apart from their own errors with errors.Is. Engines do
// not recover panics raised by the underlying library; that is the caller's
// boundary.
package imaging
