// Package data resolves the files of a workspace: the tree database, circuit
// directories, witnesses and TLS material.
package data

import (
	"path/filepath"
	"runtime"
)

// basePath is the workspace directory. It defaults to the directory of this
// package.
var basePath string

func init() {
	_, currentFile, _, _ := runtime.Caller(0)
	basePath = filepath.Dir(currentFile)
}

// SetBase makes dir the workspace directory. A relative dir is taken relative
// to the current workspace directory.
func SetBase(dir string) {
	basePath = Path(dir)
}

// Base returns the workspace directory.
func Base() string {
	return basePath
}

// Path returns the absolute path the given relative file or directory path,
// If rel is already absolute, it is returned unmodified.
func Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}

	return filepath.Join(basePath, rel)
}
