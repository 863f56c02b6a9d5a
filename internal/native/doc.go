// Package native reports on the cgo-linked native library in this binary.
//
// The probe's image engines are pure Go, so the platform-specific piece of
// the build is libtesseract, linked through github.com/otiai10/gosseract/v2
// when cgo is enabled on Linux. Other builds carry no native code and report
// themselves as such.
//
// # Prerequisites
//
// Building with cgo on Linux requires the Tesseract and Leptonica headers:
//   - Ubuntu/Debian: apt-get install libtesseract-dev libleptonica-dev
//
// # Error Handling
//
// Detect has no error return. A missing shared object stops the process at
// load time, before Detect can run.
package native

// Library describes the native dependency linked into the binary.
type Library struct {
	// Name is the native library name, e.g. "tesseract".
	Name string `json:"name"`

	// Version is the version reported by the library itself.
	Version string `json:"version"`

	// Linked is false for binaries built without the native library.
	Linked bool `json:"linked"`

	// Reason explains why the library is not linked.
	Reason string `json:"reason,omitempty"`
}

// String formats the library as "name version", or a marker for builds
// without native code.
func (l Library) String() string {
	if !l.Linked {
		if l.Reason == "" {
			return "none"
		}
		return "none (" + l.Reason + ")"
	}
	return l.Name + " " + l.Version
}
