package probe

import (
	"time"

	"github.com/ironsheep/image-probe/internal/environment"
	"github.com/ironsheep/image-probe/internal/imaging"
)

// Outcome is either Success or Failure.
type Outcome interface {
	Succeeded() bool
	outcome()
}

// Success is the outcome of a job that produced encoded bytes.
type Success struct {
	ByteLength int
	Width      int
	Height     int
	Format     string
	MimeType   string

	// Image holds the encoded bytes.
	Image []byte

	// Decoded is what Image decodes back to.
	Decoded *imaging.Decoded
}

// Succeeded implements Outcome.
func (Success) Succeeded() bool { return true }
func (Success) outcome()        {}

// Failure is the outcome of a job the engine could not complete.
type Failure struct {
	// Message is a human-readable description of the failure.
	Message string

	// Trace is a stack trace when one is available.
	Trace string

	// Err is the underlying error. It always wraps imaging.ErrProcessing.
	Err error
}

// Succeeded implements Outcome.
func (Failure) Succeeded() bool { return false }
func (Failure) outcome()        {}

// Result is the full report of a single probe run.
type Result struct {
	// ID identifies this run in logs.
	ID string

	// Environment is the process and host metadata at the time of the run.
	Environment environment.Info

	// Library describes the engine that ran the job.
	Library imaging.Info

	// NativeDependencyVersion describes the cgo library linked into the binary.
	NativeDependencyVersion string

	// Job is the job that was run.
	Job imaging.Job

	// GeneratedAt is when the run started.
	GeneratedAt time.Time

	// Duration is how long the engine took.
	Duration time.Duration

	Outcome Outcome
}

// Platform returns the host operating system.
func (r Result) Platform() string { return r.Environment.Platform }

// Architecture returns the host CPU architecture.
func (r Result) Architecture() string { return r.Environment.Architecture }

// RuntimeVersion returns the Go runtime version.
func (r Result) RuntimeVersion() string { return r.Environment.RuntimeVersion }

// LibraryVersion returns the engine library version.
func (r Result) LibraryVersion() string { return r.Library.Version }
