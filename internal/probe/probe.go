package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/google/uuid"

	"github.com/ironsheep/image-probe/internal/environment"
	"github.com/ironsheep/image-probe/internal/imaging"
	"github.com/ironsheep/image-probe/internal/native"
)

// Options configures a Probe. Zero values select the real implementations.
type Options struct {
	Environment environment.Provider
	Native      func() native.Library
	Clock       func() time.Time
	Metrics     *Metrics
	Logger      *slog.Logger
}

// Probe runs engine jobs. It holds no per-run state and is safe for
// concurrent use.
type Probe struct {
	env     environment.Provider
	native  func() native.Library
	clock   func() time.Time
	metrics *Metrics
	logger  *slog.Logger
}

// New creates a Probe.
func New(opts Options) *Probe {
	p := &Probe{
		env:     opts.Environment,
		native:  opts.Native,
		clock:   opts.Clock,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.env == nil {
		p.env = environment.NewHost(false, p.logger)
	}
	if p.native == nil {
		p.native = native.Detect
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	return p
}

// Run executes job on engine and always returns a Result.
func (p *Probe) Run(ctx context.Context, engine imaging.Engine, job imaging.Job) Result {
	res := Result{
		ID:                      uuid.NewString(),
		Environment:             p.env.Environment(ctx),
		Library:                 engine.Info(),
		NativeDependencyVersion: p.native().String(),
		Job:                     job,
		GeneratedAt:             p.clock(),
	}

	start := time.Now()
	res.Outcome = p.render(ctx, engine, job)
	res.Duration = time.Since(start)

	p.metrics.observe(engine.Name(), res.Duration, res.Outcome)

	switch o := res.Outcome.(type) {
	case Success:
		p.logger.Debug("probe succeeded",
			"probe_id", res.ID,
			"engine", engine.Name(),
			"bytes", o.ByteLength,
			"duration", res.Duration,
		)
	case Failure:
		p.logger.Error("probe failed",
			"probe_id", res.ID,
			"engine", engine.Name(),
			"platform", res.Environment.Platform,
			"arch", res.Environment.Architecture,
			"error", o.Message,
			"trace", o.Trace,
		)
	}
	return res
}

// render calls the engine and converts errors and panics into a Failure.
func (p *Probe) render(ctx context.Context, engine imaging.Engine, job imaging.Job) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			stack := goerrors.Wrap(r, 2)
			err := fmt.Errorf("%w: %s panicked: %v", imaging.ErrProcessing, engine.Name(), r)
			out = Failure{
				Message: err.Error(),
				Trace:   string(stack.Stack()),
				Err:     err,
			}
		}
	}()

	o, err := engine.Render(ctx, job)
	if err != nil {
		if !errors.Is(err, imaging.ErrProcessing) {
			err = fmt.Errorf("%w: %s: %w", imaging.ErrProcessing, engine.Name(), err)
		}
		return failureFrom(err)
	}
	if o == nil || len(o.Bytes) == 0 {
		return failureFrom(fmt.Errorf("%w: %s returned no output", imaging.ErrProcessing, engine.Name()))
	}

	decoded, err := imaging.Inspect(o)
	if err != nil {
		return failureFrom(fmt.Errorf("%w: %s produced unreadable output: %w", imaging.ErrProcessing, engine.Name(), err))
	}

	return Success{
		ByteLength: len(o.Bytes),
		Width:      o.Width,
		Height:     o.Height,
		Format:     o.Format,
		MimeType:   o.MimeType,
		Image:      o.Bytes,
		Decoded:    decoded,
	}
}

func failureFrom(err error) Failure {
	f := Failure{Message: err.Error(), Err: err}
	var stacked *goerrors.Error
	if errors.As(err, &stacked) {
		f.Trace = string(stacked.Stack())
	}
	return f
}
