//go:build cgo && linux

package native

import (
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

const linkedBuild = true

var (
	versionOnce sync.Once
	version     string
)

// Detect returns the linked libtesseract version. The native call is made
// once per process.
func Detect() Library {
	versionOnce.Do(func() {
		version = strings.TrimSpace(gosseract.Version())
	})
	return Library{
		Name:    "tesseract",
		Version: version,
		Linked:  true,
	}
}
