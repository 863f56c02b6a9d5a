package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	goerrors "github.com/go-errors/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ironsheep/image-probe/internal/environment"
	"github.com/ironsheep/image-probe/internal/imaging"
	"github.com/ironsheep/image-probe/internal/native"
	"github.com/ironsheep/image-probe/internal/probe"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var testEnv = environment.Static{
	Platform:       "linux",
	Architecture:   "arm64",
	RuntimeVersion: "go1.23.0",
	PID:            42,
	Target:         "linux/arm64/v8",
}

// brokenEngine always fails with err.
type brokenEngine struct {
	err error
}

func (b brokenEngine) Name() string { return "broken" }

func (b brokenEngine) Info() imaging.Info {
	return imaging.Info{Engine: "broken", Module: "example.com/broken", Version: "v0.0.0", Formats: []string{"png"}}
}

func (b brokenEngine) Render(context.Context, imaging.Job) (*imaging.Output, error) {
	return nil, b.err
}

// panicRunner panics instead of returning a Result.
type panicRunner struct{}

func (panicRunner) Run(context.Context, imaging.Engine, imaging.Job) probe.Result {
	panic("runner exploded")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions(t *testing.T, reg *imaging.Registry) Options {
	t.Helper()
	logger := quietLogger()
	return Options{
		Addr:        "127.0.0.1:0",
		CORSOrigins: []string{"*"},
		Location:    time.UTC,
		APIJob:      probe.APIJob(),
		PageJob:     probe.PageJob(),
		Registry:    reg,
		Runner: probe.New(probe.Options{
			Environment: testEnv,
			Native:      func() native.Library { return native.Library{Name: "tesseract", Version: "5.3.0", Linked: true} },
			Logger:      logger,
		}),
		Environment: testEnv,
		Logger:      logger,
	}
}

func newTestServer(t *testing.T, mutate func(*Options)) *Server {
	t.Helper()
	reg, err := imaging.NewRegistry("imaging")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	opts := testOptions(t, reg)
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// withBrokenDefault makes a failing engine the default.
func withBrokenDefault(t *testing.T, err error) func(*Options) {
	t.Helper()
	reg, rerr := imaging.NewRegistryWith("broken", brokenEngine{err: err}, imaging.NewImagingEngine())
	if rerr != nil {
		t.Fatalf("NewRegistryWith: %v", rerr)
	}
	return func(o *Options) { o.Registry = reg }
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	reg, err := imaging.NewRegistry("imaging")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"no registry", func(o *Options) { o.Registry = nil }},
		{"no runner", func(o *Options) { o.Runner = nil }},
		{"no environment", func(o *Options) { o.Environment = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t, reg)
			tt.mutate(&opts)
			if _, err := New(opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestImageInfo_Success(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/api/image-info")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got imageInfoResponse
	decode(t, rec, &got)

	if !got.Test.Success {
		t.Error("test.success should be true")
	}
	if got.Test.ImageSize <= 0 {
		t.Errorf("test.imageSize = %d, want > 0", got.Test.ImageSize)
	}
	if got.Test.Width != 5 || got.Test.Height != 5 {
		t.Errorf("test size = %dx%d, want 5x5", got.Test.Width, got.Test.Height)
	}
	if got.Test.Message != messageSuccess {
		t.Errorf("test.message = %q", got.Test.Message)
	}
	if got.Process.Platform != "linux" || got.Process.Architecture != "arm64" {
		t.Errorf("process = %+v", got.Process)
	}
	if got.Library.Engine != "imaging" || got.Library.Module == "" || got.Library.Version == "" {
		t.Errorf("library = %+v", got.Library)
	}
	if got.Library.Native != "tesseract 5.3.0" {
		t.Errorf("library.native = %q", got.Library.Native)
	}
	if got.Test.Decoded == nil || got.Test.Decoded.Center.Hex != "#00ff00" {
		t.Errorf("test.decoded = %+v", got.Test.Decoded)
	}
	if got.Meta.RequestID == "" {
		t.Error("meta.requestId is empty")
	}
	if _, err := time.Parse(time.RFC3339Nano, got.Meta.Timestamp); err != nil {
		t.Errorf("meta.timestamp %q: %v", got.Meta.Timestamp, err)
	}
}

func TestImageInfo_EveryEngine(t *testing.T) {
	s := newTestServer(t, nil)

	for _, name := range []string{"imaging", "bild", "xdraw"} {
		t.Run(name, func(t *testing.T) {
			rec := get(t, s, "/api/image-info?engine="+name)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			var got imageInfoResponse
			decode(t, rec, &got)
			if got.Library.Engine != name {
				t.Errorf("library.engine = %q, want %q", got.Library.Engine, name)
			}
			if got.Test.ImageSize <= 0 {
				t.Errorf("test.imageSize = %d", got.Test.ImageSize)
			}
		})
	}
}

func TestImageInfo_UnknownEngine(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/api/image-info?engine=magick")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var got errorResponse
	decode(t, rec, &got)
	if !strings.Contains(got.Error.Message, "magick") {
		t.Errorf("error.message = %q", got.Error.Message)
	}
}

func TestImageInfo_Failure(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		expose    bool
		wantStack bool
	}{
		{"plain error hidden", errors.New("codec missing"), false, false},
		{"plain error exposed has no trace", errors.New("codec missing"), true, false},
		{"stacked error hidden", goerrors.New("codec missing"), false, false},
		{"stacked error exposed", goerrors.New("codec missing"), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, func(o *Options) {
				withBrokenDefault(t, tt.err)(o)
				o.ExposeTraces = tt.expose
			})

			rec := get(t, s, "/api/image-info")
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", rec.Code)
			}

			var got errorResponse
			decode(t, rec, &got)
			if !strings.Contains(got.Error.Message, "codec missing") {
				t.Errorf("error.message = %q", got.Error.Message)
			}
			if got.Test == nil || got.Test.Success {
				t.Errorf("test = %+v, want success false", got.Test)
			}
			if got.Process == nil || got.Process.Platform != "linux" {
				t.Errorf("process = %+v", got.Process)
			}
			if (got.Error.Stack != "") != tt.wantStack {
				t.Errorf("stack present = %v, want %v", got.Error.Stack != "", tt.wantStack)
			}
		})
	}
}

func TestImageInfo_RunnerPanic(t *testing.T) {
	s := newTestServer(t, func(o *Options) {
		o.Runner = panicRunner{}
		o.ExposeTraces = true
	})

	rec := get(t, s, "/api/image-info")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var got errorResponse
	decode(t, rec, &got)
	if !strings.Contains(got.Error.Message, "runner exploded") {
		t.Errorf("error.message = %q", got.Error.Message)
	}
	if got.Error.Stack == "" {
		t.Error("expected stack in response")
	}
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/api/image-info/preview.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("X-Probe-Id") == "" {
		t.Error("missing X-Probe-Id")
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Errorf("preview size = %dx%d, want 50x50", b.Dx(), b.Dy())
	}
}

func TestPreview_Failure(t *testing.T) {
	s := newTestServer(t, withBrokenDefault(t, errors.New("no encoder")))

	rec := get(t, s, "/api/image-info/preview.png")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var got errorResponse
	decode(t, rec, &got)
	if !strings.Contains(got.Error.Message, "no encoder") {
		t.Errorf("error.message = %q", got.Error.Message)
	}
}

func TestRunnerPanic_IsAccessLogged(t *testing.T) {
	var buf bytes.Buffer
	s := newTestServer(t, func(o *Options) {
		o.Runner = panicRunner{}
		o.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	})

	if rec := get(t, s, "/api/image-info"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var access string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, `msg="http request"`) {
			access = line
		}
	}
	if access == "" {
		t.Fatalf("no access log line for the panicked request:\n%s", buf.String())
	}
	if !strings.Contains(access, "status=500") || !strings.Contains(access, "path=/api/image-info") {
		t.Errorf("access log line = %q", access)
	}
}

func TestImageProcessingPage_Success(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/image-processing")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"linux",
		"arm64",
		"linux/arm64/v8",
		"go1.23.0",
		"tesseract 5.3.0",
		"100x100",
		"50x50",
		"UTC",
		"/api/image-info/preview.png",
		"Cache verification steps",
		"#ff6464",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, "Image processing failed") {
		t.Error("success page shows failure panel")
	}
}

func TestImageProcessingPage_EngineQuery(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/image-processing?engine=bild")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "preview.png?engine=bild") {
		t.Error("preview link does not carry the engine")
	}
	if !strings.Contains(body, "The bild engine processed") {
		t.Error("page does not name the bild engine")
	}
}

func TestImageProcessingPage_Failure(t *testing.T) {
	tests := []struct {
		name      string
		expose    bool
		wantTrace bool
	}{
		{"trace hidden", false, false},
		{"trace exposed", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, func(o *Options) {
				withBrokenDefault(t, goerrors.New("resize unsupported"))(o)
				o.ExposeTraces = tt.expose
			})

			rec := get(t, s, "/image-processing")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			body := rec.Body.String()
			if !strings.Contains(body, "Image processing failed") {
				t.Error("failure panel missing")
			}
			if !strings.Contains(body, "resize unsupported") {
				t.Error("failure message missing")
			}
			if got := strings.Contains(body, `class="trace"`); got != tt.wantTrace {
				t.Errorf("trace shown = %v, want %v", got, tt.wantTrace)
			}
			if !strings.Contains(body, "linux/arm64/v8") {
				t.Error("metadata missing from failure page")
			}
		})
	}
}

func TestImageProcessingPage_ShowsConfiguredFormat(t *testing.T) {
	s := newTestServer(t, func(o *Options) {
		o.PageJob.Format = "gif"
	})

	rec := get(t, s, "/image-processing")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "50x50 GIF (") {
		t.Error("page does not name the configured format")
	}
	if strings.Contains(body, "PNG (") {
		t.Error("page still names PNG for a GIF job")
	}
}

func TestImageProcessingPage_UnknownEngine(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/image-processing?engine=magick")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "magick") {
		t.Error("error page does not name the engine")
	}
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `href="/image-processing"`) {
		t.Error("index does not link to the probe page")
	}
	for _, name := range []string{"bild", "imaging", "xdraw"} {
		if !strings.Contains(body, "/image-processing?engine="+name) {
			t.Errorf("index does not link engine %s", name)
		}
	}
	if !strings.Contains(body, fmt.Sprint(time.Now().Year())) {
		t.Error("index missing year")
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := probe.NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	s := newTestServer(t, func(o *Options) {
		o.Runner = probe.New(probe.Options{Environment: testEnv, Metrics: metrics, Logger: quietLogger()})
		o.Gatherer = reg
	})

	if rec := get(t, s, "/api/image-info"); rec.Code != http.StatusOK {
		t.Fatalf("image-info status = %d", rec.Code)
	}

	rec := get(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `image_probe_runs_total{engine="imaging",outcome="success"} 1`) {
		t.Errorf("metrics missing run counter:\n%s", rec.Body.String())
	}
}

func TestMetrics_DisabledWithoutGatherer(t *testing.T) {
	s := newTestServer(t, nil)

	if rec := get(t, s, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestStatic(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/static/style.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("Content-Type = %q", ct)
	}

	if rec := get(t, s, "/static/missing.css"); rec.Code != http.StatusNotFound {
		t.Errorf("missing asset status = %d, want 404", rec.Code)
	}
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var got errorResponse
	decode(t, rec, &got)
	if got.Error.Message != "not found" {
		t.Errorf("error.message = %q", got.Error.Message)
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/image-info", nil)
	req.Header.Set("Origin", "http://client.test")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestCORSConfig(t *testing.T) {
	if cfg := corsConfig(nil); !cfg.AllowAllOrigins {
		t.Error("empty origins should allow all")
	}
	if cfg := corsConfig([]string{"https://a.example", "*"}); !cfg.AllowAllOrigins {
		t.Error("wildcard should allow all")
	}
	cfg := corsConfig([]string{"https://a.example"})
	if cfg.AllowAllOrigins || len(cfg.AllowOrigins) != 1 {
		t.Errorf("explicit origins = %+v", cfg)
	}
}

func TestEmbedFS_Exists(t *testing.T) {
	fsys, err := newEmbedFS("static")
	if err != nil {
		t.Fatalf("newEmbedFS: %v", err)
	}
	tests := []struct {
		path string
		want bool
	}{
		{"/static/style.css", true},
		{"/static/logo.svg", true},
		{"/static/", false},
		{"/static/../templates/index.html", false},
		{"/static/nope.txt", false},
		{"/other/style.css", false},
	}
	for _, tt := range tests {
		if got := fsys.Exists("/static", tt.path); got != tt.want {
			t.Errorf("Exists(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRun_Shutdown(t *testing.T) {
	s := newTestServer(t, func(o *Options) { o.ShutdownTimeout = time.Second })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
