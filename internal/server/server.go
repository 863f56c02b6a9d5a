package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ironsheep/image-probe/internal/environment"
	"github.com/ironsheep/image-probe/internal/imaging"
	"github.com/ironsheep/image-probe/internal/probe"
)

// Runner runs a probe. *probe.Probe implements it.
type Runner interface {
	Run(ctx context.Context, engine imaging.Engine, job imaging.Job) probe.Result
}

// Options configures a Server.
type Options struct {
	Addr            string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// ExposeTraces includes stack traces in JSON error payloads.
	ExposeTraces bool

	// Location is the timezone used to display timestamps on HTML pages.
	Location *time.Location

	APIJob  imaging.Job
	PageJob imaging.Job

	Registry    *imaging.Registry
	Runner      Runner
	Environment environment.Provider

	// Gatherer serves /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
	Debug  bool
}

// Server serves the probe over HTTP.
type Server struct {
	opts   Options
	engine *gin.Engine
	logger *slog.Logger
}

// New creates a server and registers its routes.
func New(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("server requires an engine registry")
	}
	if opts.Runner == nil {
		return nil, fmt.Errorf("server requires a probe runner")
	}
	if opts.Environment == nil {
		return nil, fmt.Errorf("server requires an environment provider")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{opts: opts, logger: opts.Logger}
	engine, err := s.buildEngine()
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// buildEngine constructs the gin engine with middlewares and routes.
func (s *Server) buildEngine() (*gin.Engine, error) {
	if s.opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	engine := gin.New()
	engine.Use(loggingMiddleware(s.logger))
	engine.Use(s.recoveryMiddleware())
	engine.Use(cors.New(corsConfig(s.opts.CORSOrigins)))
	engine.SetHTMLTemplate(tmpl)

	if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("failed to configure trusted proxies: %w", err)
	}

	staticFS, err := newEmbedFS("static")
	if err != nil {
		return nil, err
	}
	engine.Use(static.Serve("/static", staticFS))

	engine.GET("/", s.handleIndex)
	engine.GET("/image-processing", s.handleImageProcessing)
	engine.GET("/healthz", s.handleHealth)

	api := engine.Group("/api")
	api.GET("/image-info", s.handleImageInfo)
	api.GET("/image-info/preview.png", s.handlePreview)

	if s.opts.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: errorDetail{Message: "not found"}})
	})

	return engine, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Accept", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cfg
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server", "timeout", s.opts.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
