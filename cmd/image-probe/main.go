package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ironsheep/image-probe/internal/config"
	"github.com/ironsheep/image-probe/internal/environment"
	"github.com/ironsheep/image-probe/internal/imaging"
	"github.com/ironsheep/image-probe/internal/logging"
	"github.com/ironsheep/image-probe/internal/native"
	"github.com/ironsheep/image-probe/internal/probe"
	"github.com/ironsheep/image-probe/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var configPath string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v", "version":
			fmt.Printf("image-probe %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			fmt.Printf("  Native:     %s\n", native.Detect())
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "--config", "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config requires a path")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		default:
			if v, ok := strings.CutPrefix(args[i], "--config="); ok {
				configPath = v
				continue
			}
			fmt.Fprintf(os.Stderr, "unknown argument %q (see --help)\n", args[i])
			os.Exit(2)
		}
	}

	if err := run(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "image-probe: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("image-probe - platform capability probe for native image processing")
	fmt.Println()
	fmt.Println("Usage: image-probe [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config, -c PATH  Read configuration from a YAML file")
	fmt.Println("  --version, -v      Print version information")
	fmt.Println("  --help, -h         Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  IMAGE_PROBE_CONFIG=path           YAML config file")
	fmt.Println("  IMAGE_PROBE_ADDR=:3000            Listen address")
	fmt.Println("  IMAGE_PROBE_ENGINE=imaging        Default engine (imaging, bild, xdraw)")
	fmt.Println("  IMAGE_PROBE_LOG_LEVEL=debug       Enable debug logging")
	fmt.Println("  IMAGE_PROBE_LOG_FORMAT=json       Log as JSON")
	fmt.Println("  IMAGE_PROBE_EXPOSE_TRACES=false   Hide stack traces in error payloads")
	fmt.Println("  IMAGE_PROBE_TIMEZONE=Asia/Tokyo   Timezone for the HTML page")
	fmt.Println()
	fmt.Println("Variables are also read from a .env file in the working directory.")
}

func run(configPath string) error {
	cfg, err := config.NewLoader().WithPath(configPath).Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("starting image-probe",
		"version", Version,
		"build_time", BuildTime,
		"commit", GitCommit,
		"engine", cfg.Probe.Engine,
		"native", native.Detect().String(),
	)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	apiJob, err := cfg.Probe.API.Job()
	if err != nil {
		return fmt.Errorf("probe.api: %w", err)
	}
	pageJob, err := cfg.Probe.Page.Job()
	if err != nil {
		return fmt.Errorf("probe.page: %w", err)
	}

	registry, err := imaging.NewRegistry(cfg.Probe.Engine)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := probe.NewMetrics(reg)
	if err != nil {
		return err
	}

	env := environment.NewHost(cfg.Server.HostDetails, logger)
	runner := probe.New(probe.Options{
		Environment: env,
		Metrics:     metrics,
		Logger:      logger,
	})

	srv, err := server.New(server.Options{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
		ExposeTraces:    cfg.TracesExposed(),
		Location:        loc,
		APIJob:          apiJob,
		PageJob:         pageJob,
		Registry:        registry,
		Runner:          runner,
		Environment:     env,
		Gatherer:        reg,
		Logger:          logger,
		Debug:           strings.EqualFold(cfg.Log.Level, "debug"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("image-probe stopped")
	return nil
}
