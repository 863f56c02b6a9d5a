package server

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed templates/*.html static
var assets embed.FS

// embedFS adapts a subtree of the embedded assets to static.ServeFileSystem.
type embedFS struct {
	http.FileSystem
	files fs.FS
}

func newEmbedFS(dir string) (*embedFS, error) {
	sub, err := fs.Sub(assets, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded %s: %w", dir, err)
	}
	return &embedFS{FileSystem: http.FS(sub), files: sub}, nil
}

// Exists reports whether the request path names a regular file under prefix.
func (e *embedFS) Exists(prefix, filepath string) bool {
	p := strings.TrimPrefix(filepath, prefix)
	if len(p) == len(filepath) && prefix != "" {
		return false
	}
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" {
		return false
	}
	info, err := fs.Stat(e.files, p)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
