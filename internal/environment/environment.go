// Package environment describes the process and host the probe runs on.
//
// Probe code never reads runtime globals directly; it asks a Provider. Host
// is the real provider; Static returns fixed values for tests.
package environment

import (
	"context"
	"log/slog"
	"os"
	"runtime"

	"github.com/containerd/platforms"
	"github.com/shirou/gopsutil/v3/host"
)

// Info is a snapshot of process and host metadata.
type Info struct {
	// Platform is the operating system, as in runtime.GOOS.
	Platform string `json:"platform"`

	// Architecture is the CPU architecture, as in runtime.GOARCH.
	Architecture string `json:"arch"`

	// RuntimeVersion is the Go runtime version.
	RuntimeVersion string `json:"runtimeVersion"`

	// PID is the process id.
	PID int `json:"pid"`

	// Target is the OCI platform string including any CPU variant,
	// e.g. "linux/arm64/v8".
	Target string `json:"target"`

	// Host holds operating system details. Nil when they could not be read
	// or were not requested.
	Host *HostDetails `json:"-"`
}

// HostDetails is the subset of gopsutil host information the probe reports.
type HostDetails struct {
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformFamily  string `json:"platformFamily"`
	PlatformVersion string `json:"platformVersion"`
	KernelVersion   string `json:"kernelVersion"`
	KernelArch      string `json:"kernelArch"`
	Virtualization  string `json:"virtualization,omitempty"`
}

// Provider supplies environment metadata.
type Provider interface {
	Environment(ctx context.Context) Info
}

// Host reads metadata from the Go runtime and the operating system.
type Host struct {
	details bool
	logger  *slog.Logger
}

// NewHost creates a Host provider. When details is true, OS details are read
// through gopsutil on every call; failures there are logged and leave
// Info.Host nil.
func NewHost(details bool, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{details: details, logger: logger}
}

// Environment implements Provider.
func (h *Host) Environment(ctx context.Context) Info {
	info := Info{
		Platform:       runtime.GOOS,
		Architecture:   runtime.GOARCH,
		RuntimeVersion: runtime.Version(),
		PID:            os.Getpid(),
		Target:         platforms.DefaultString(),
	}
	if !h.details {
		return info
	}

	stat, err := host.InfoWithContext(ctx)
	if err != nil {
		h.logger.Warn("failed to read host details", "error", err)
		return info
	}
	info.Host = &HostDetails{
		OS:              stat.OS,
		Platform:        stat.Platform,
		PlatformFamily:  stat.PlatformFamily,
		PlatformVersion: stat.PlatformVersion,
		KernelVersion:   stat.KernelVersion,
		KernelArch:      stat.KernelArch,
		Virtualization:  stat.VirtualizationSystem,
	}
	return info
}

// Static always returns the same Info.
type Static Info

// Environment implements Provider.
func (s Static) Environment(context.Context) Info {
	return Info(s)
}
