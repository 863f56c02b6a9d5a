// Package config loads service configuration from defaults, an optional YAML
// file, an optional .env file and IMAGE_PROBE_* environment variables, in
// that order of increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // Register embedded zoneinfo for probe.timezone

	"github.com/ironsheep/image-probe/internal/imaging"
)

// Config is the complete service configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Probe  ProbeConfig  `yaml:"probe"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`

	// ExposeTraces controls whether JSON error payloads include stack
	// traces. Unset means "only at debug log level".
	ExposeTraces *bool `yaml:"expose_traces"`

	// HostDetails adds operating system details to the JSON endpoint.
	HostDetails bool `yaml:"host_details"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ProbeConfig configures the probe jobs.
type ProbeConfig struct {
	Engine   string    `yaml:"engine"`
	Timezone string    `yaml:"timezone"`
	API      JobConfig `yaml:"api"`
	Page     JobConfig `yaml:"page"`
}

// JobConfig is the configurable form of an imaging.Job.
type JobConfig struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	Color        string `yaml:"color"`
	TargetWidth  int    `yaml:"target_width"`
	TargetHeight int    `yaml:"target_height"`
	Format       string `yaml:"format"`
}

// Job converts the config into an imaging.Job.
func (j JobConfig) Job() (imaging.Job, error) {
	c, err := imaging.ParseColor(j.Color)
	if err != nil {
		return imaging.Job{}, err
	}
	job := imaging.Job{
		Width:        j.Width,
		Height:       j.Height,
		Background:   c,
		TargetWidth:  j.TargetWidth,
		TargetHeight: j.TargetHeight,
		Format:       j.Format,
	}
	if err := job.Validate(); err != nil {
		return imaging.Job{}, err
	}
	return job, nil
}

// TracesExposed reports whether stack traces go into JSON error payloads.
func (c *Config) TracesExposed() bool {
	if c.Server.ExposeTraces != nil {
		return *c.Server.ExposeTraces
	}
	return strings.EqualFold(c.Log.Level, "debug")
}

// Location returns the display timezone for the HTML page.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Probe.Timezone)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not one of text, json", c.Log.Format)
	}

	reg, err := imaging.NewRegistry(c.Probe.Engine)
	if err != nil {
		return fmt.Errorf("probe.engine: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("probe.timezone: %w", err)
	}
	if err := c.Probe.API.validate(reg); err != nil {
		return fmt.Errorf("probe.api: %w", err)
	}
	if err := c.Probe.Page.validate(reg); err != nil {
		return fmt.Errorf("probe.page: %w", err)
	}
	return nil
}

// validate checks that the job is well formed, lossless, and renderable by
// every engine a request can select.
func (j JobConfig) validate(reg *imaging.Registry) error {
	job, err := j.Job()
	if err != nil {
		return err
	}
	if err := imaging.CheckLossless(job.Format); err != nil {
		return err
	}
	return reg.Supports(job.Format)
}
