package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "IMAGE_PROBE_"

// Loader reads configuration.
type Loader struct {
	path      string
	useDotEnv bool
	dotEnv    []string
	lookup    func(string) (string, bool)
}

// NewLoader creates a loader that reads .env from the working directory and
// the process environment. The YAML path defaults to $IMAGE_PROBE_CONFIG.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		lookup:    os.LookupEnv,
	}
}

// WithPath sets the YAML config file path.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// WithDotEnv toggles loading variables from .env files before reading the
// environment. With no filenames, ".env" is used.
func (l *Loader) WithDotEnv(enabled bool, filenames ...string) *Loader {
	l.useDotEnv = enabled
	l.dotEnv = filenames
	return l
}

// WithLookup overrides the environment lookup (useful for tests).
func (l *Loader) WithLookup(fn func(string) (string, bool)) *Loader {
	if fn != nil {
		l.lookup = fn
	}
	return l
}

// Load builds and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	if l.useDotEnv {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(l.dotEnv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := Default()

	path := l.path
	if path == "" {
		path, _ = l.lookup(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := readFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (l *Loader) applyEnv(cfg *Config) error {
	get := func(key string) (string, bool) {
		v, ok := l.lookup(EnvPrefix + key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("ADDR"); ok {
		cfg.Server.Addr = v
	}
	if v, ok := get("SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sSHUTDOWN_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.Server.ShutdownTimeout = d
	}
	if v, ok := get("CORS_ORIGINS"); ok {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.Server.CORSOrigins = origins
	}
	if v, ok := get("EXPOSE_TRACES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sEXPOSE_TRACES: %w", EnvPrefix, err)
		}
		cfg.Server.ExposeTraces = &b
	}
	if v, ok := get("HOST_DETAILS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sHOST_DETAILS: %w", EnvPrefix, err)
		}
		cfg.Server.HostDetails = b
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v, ok := get("LOG_FORMAT"); ok {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v, ok := get("ENGINE"); ok {
		cfg.Probe.Engine = v
	}
	if v, ok := get("TIMEZONE"); ok {
		cfg.Probe.Timezone = v
	}
	return nil
}
