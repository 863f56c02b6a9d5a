// Package server implements the HTTP front end of the image probe.
//
// Every probe route runs a fresh probe for the request, so there is no state
// shared between requests beyond read-only configuration.
//
// # Routes
//
//   - GET /: Index page linking to the probe page
//   - GET /image-processing: HTML report of the page job
//   - GET /api/image-info: JSON report of the API job
//   - GET /api/image-info/preview.png: The PNG produced by the page job
//   - GET /healthz: Liveness check
//   - GET /metrics: Prometheus metrics
//   - GET /static/*: Embedded assets
//
// Probe routes accept an optional engine query parameter naming an engine
// other than the configured default (imaging, bild or xdraw).
//
// # JSON Payload
//
// On success /api/image-info responds 200 with:
//
//	{
//	  "process": {"platform", "arch", "runtimeVersion", "pid", "target"},
//	  "host":    {...},            // when host details are enabled
//	  "library": {"engine", "module", "version", "native", "formats"},
//	  "meta":    {"timestamp", "requestId", "durationMs"},
//	  "test":    {"success": true, "imageSize", "width", "height", "format", "message",
//	              "decoded": {"width", "height", "format", "colorDepth", "opaque", "center"}}
//	}
//
// When the engine fails it responds 500 with:
//
//	{
//	  "error":   {"message", "stack"},  // stack only when traces are exposed
//	  "process": {...},
//	  "test":    {"success": false, "message"}
//	}
//
// # Error Handling
//
// Engine failures never escape the probe. A panic anywhere else in a
// handler is caught by the recovery middleware and answered with the same
// 500 payload shape. Full failure details, including stack traces, are
// always logged; responses carry the error message and include the stack
// only when trace exposure is enabled.
package server
