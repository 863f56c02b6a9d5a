package native

import (
	"runtime"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	lib := Detect()
	if lib.Name != "tesseract" {
		t.Errorf("Name: got %s, want tesseract", lib.Name)
	}
	if lib.Linked && lib.Version == "" {
		t.Error("linked library reported an empty version")
	}

	if lib.Linked != linkedBuild {
		t.Errorf("Linked = %v, want %v for this build", lib.Linked, linkedBuild)
	}
	if runtime.GOOS != "linux" && lib.Linked {
		t.Errorf("native library must not be linked on %s", runtime.GOOS)
	}
	if !lib.Linked && lib.Reason == "" {
		t.Error("unlinked library should carry a reason")
	}

	again := Detect()
	if again != lib {
		t.Errorf("Detect not stable: %+v vs %+v", lib, again)
	}
}

func TestLibrary_String(t *testing.T) {
	tests := []struct {
		lib  Library
		want string
	}{
		{Library{Name: "tesseract", Version: "5.3.0", Linked: true}, "tesseract 5.3.0"},
		{Library{Name: "tesseract", Reason: "built without cgo"}, "none (built without cgo)"},
		{Library{Name: "tesseract", Reason: "not linked on darwin"}, "none (not linked on darwin)"},
		{Library{Name: "tesseract"}, "none"},
	}
	for _, tt := range tests {
		if got := tt.lib.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}

	if s := Detect().String(); !strings.Contains(s, "tesseract") && !strings.Contains(s, "cgo") {
		t.Errorf("unexpected String() for detected library: %q", s)
	}
}
