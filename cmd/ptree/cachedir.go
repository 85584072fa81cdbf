// cachedir.go - resolves the cache directory from the environment
//
// Licensing Terms: GPLv2
//
// The only process-wide state ptree needs is the cache directory
// location; ptree/core never reads the environment itself, it only
// accepts an explicit directory, so it stays testable independent of
// this resolution.

package main

import (
	"errors"
	"os"
	"path/filepath"
)

var errNoCacheEnv = errors.New("APPDATA (or XDG_CACHE_HOME/HOME) is not set; cannot locate cache directory")

// resolveCacheDir locates %APPDATA%/ptree/cache on Windows, falling back
// to an equivalent user-config directory on UNIX-style systems.
func resolveCacheDir() (string, error) {
	if v := os.Getenv("APPDATA"); len(v) > 0 {
		return filepath.Join(v, "ptree", "cache"), nil
	}
	if v := os.Getenv("XDG_CACHE_HOME"); len(v) > 0 {
		return filepath.Join(v, "ptree"), nil
	}
	if v := os.Getenv("HOME"); len(v) > 0 {
		return filepath.Join(v, ".cache", "ptree"), nil
	}
	return "", errNoCacheEnv
}
