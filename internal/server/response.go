package server

import (
	"time"

	"github.com/ironsheep/image-probe/internal/environment"
	"github.com/ironsheep/image-probe/internal/imaging"
	"github.com/ironsheep/image-probe/internal/probe"
)

const (
	messageSuccess = "native image processing succeeded"
	messageFailure = "native image processing failed"
)

// imageInfoResponse is the 200 payload of /api/image-info.
type imageInfoResponse struct {
	Process environment.Info         `json:"process"`
	Host    *environment.HostDetails `json:"host,omitempty"`
	Library libraryInfo              `json:"library"`
	Meta    metaInfo                 `json:"meta"`
	Test    testInfo                 `json:"test"`
}

type libraryInfo struct {
	Engine  string   `json:"engine"`
	Module  string   `json:"module"`
	Version string   `json:"version"`
	Native  string   `json:"native"`
	Formats []string `json:"formats"`
}

type metaInfo struct {
	Timestamp  string  `json:"timestamp"`
	RequestID  string  `json:"requestId"`
	DurationMS float64 `json:"durationMs"`
}

type testInfo struct {
	Success   bool   `json:"success"`
	ImageSize int    `json:"imageSize,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Format    string `json:"format,omitempty"`
	Message   string `json:"message"`

	Decoded *imaging.Decoded `json:"decoded,omitempty"`
}

// errorResponse is the non-2xx payload of the JSON routes.
type errorResponse struct {
	Error   errorDetail       `json:"error"`
	Process *environment.Info `json:"process,omitempty"`
	Test    *testInfo         `json:"test,omitempty"`
}

type errorDetail struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

func newImageInfoResponse(res probe.Result, ok probe.Success) imageInfoResponse {
	return imageInfoResponse{
		Process: res.Environment,
		Host:    res.Environment.Host,
		Library: libraryInfo{
			Engine:  res.Library.Engine,
			Module:  res.Library.Module,
			Version: res.Library.Version,
			Native:  res.NativeDependencyVersion,
			Formats: res.Library.Formats,
		},
		Meta: metaInfo{
			Timestamp:  res.GeneratedAt.UTC().Format(time.RFC3339Nano),
			RequestID:  res.ID,
			DurationMS: float64(res.Duration.Microseconds()) / 1000,
		},
		Test: testInfo{
			Success:   true,
			ImageSize: ok.ByteLength,
			Width:     ok.Width,
			Height:    ok.Height,
			Format:    ok.Format,
			Message:   messageSuccess,
			Decoded:   ok.Decoded,
		},
	}
}

// newFailureResponse builds the 500 payload. trace is included only when
// exposeTrace is set.
func newFailureResponse(env environment.Info, message, trace string, exposeTrace bool) errorResponse {
	resp := errorResponse{
		Error:   errorDetail{Message: message},
		Process: &env,
		Test:    &testInfo{Success: false, Message: messageFailure},
	}
	if exposeTrace {
		resp.Error.Stack = trace
	}
	return resp
}
