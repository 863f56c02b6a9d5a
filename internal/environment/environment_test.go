package environment

import (
	"context"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHost_Environment(t *testing.T) {
	info := NewHost(false, nil).Environment(context.Background())

	if info.Platform == "" || info.Platform != runtime.GOOS {
		t.Errorf("Platform: got %q, want %q", info.Platform, runtime.GOOS)
	}
	if info.Architecture == "" || info.Architecture != runtime.GOARCH {
		t.Errorf("Architecture: got %q, want %q", info.Architecture, runtime.GOARCH)
	}
	if info.RuntimeVersion != runtime.Version() {
		t.Errorf("RuntimeVersion: got %q, want %q", info.RuntimeVersion, runtime.Version())
	}
	if info.PID != os.Getpid() {
		t.Errorf("PID: got %d, want %d", info.PID, os.Getpid())
	}
	if !strings.HasPrefix(info.Target, runtime.GOOS+"/") {
		t.Errorf("Target %q does not start with %s/", info.Target, runtime.GOOS)
	}
	if info.Host != nil {
		t.Error("Host details should be nil when not requested")
	}
}

func TestHost_EnvironmentWithDetails(t *testing.T) {
	info := NewHost(true, nil).Environment(context.Background())

	if info.Platform != runtime.GOOS {
		t.Errorf("Platform: got %q, want %q", info.Platform, runtime.GOOS)
	}
	// Host details are best effort; when present the OS must agree.
	if info.Host != nil && info.Host.OS != "" && info.Host.OS != runtime.GOOS {
		t.Errorf("Host.OS: got %q, want %q", info.Host.OS, runtime.GOOS)
	}
}

func TestHost_Stable(t *testing.T) {
	h := NewHost(false, nil)
	a := h.Environment(context.Background())
	b := h.Environment(context.Background())
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("environment changed between calls (-first +second):\n%s", diff)
	}
}

func TestStatic(t *testing.T) {
	want := Info{
		Platform:       "plan9",
		Architecture:   "mips",
		RuntimeVersion: "go0.0",
		PID:            42,
		Target:         "plan9/mips",
	}
	got := Static(want).Environment(context.Background())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Static mismatch (-want +got):\n%s", diff)
	}
}
