//go:build !cgo || !linux

package native

import "runtime"

const linkedBuild = false

// Detect reports that no native library is linked.
func Detect() Library {
	reason := "built without cgo"
	if runtime.GOOS != "linux" {
		reason = "not linked on " + runtime.GOOS
	}
	return Library{Name: "tesseract", Reason: reason}
}
