// cachedir_test.go
//
// Licensing Terms: GPLv2

package main

import (
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
)

func newAsserter(t *testing.T) func(cond bool, msg string, args ...interface{}) {
	return func(cond bool, msg string, args ...interface{}) {
		if cond {
			return
		}
		_, file, line, ok := runtime.Caller(1)
		if !ok {
			file = "???"
			line = 0
		}
		t.Fatalf("\n%s: %d: Assertion failed: %s\n", file, line, fmt.Sprintf(msg, args...))
	}
}

func TestResolveCacheDirPrefersAppdata(t *testing.T) {
	assert := newAsserter(t)

	t.Setenv("APPDATA", filepath.FromSlash("/home/bob/AppData/Roaming"))
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "")

	got, err := resolveCacheDir()
	assert(err == nil, "resolveCacheDir: %s", err)
	want := filepath.Join(filepath.FromSlash("/home/bob/AppData/Roaming"), "ptree", "cache")
	assert(got == want, "got %q, want %q", got, want)
}

func TestResolveCacheDirFallsBackToXDG(t *testing.T) {
	assert := newAsserter(t)

	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CACHE_HOME", "/home/bob/.cache")
	t.Setenv("HOME", "")

	got, err := resolveCacheDir()
	assert(err == nil, "resolveCacheDir: %s", err)
	want := filepath.Join("/home/bob/.cache", "ptree")
	assert(got == want, "got %q, want %q", got, want)
}

func TestResolveCacheDirFallsBackToHome(t *testing.T) {
	assert := newAsserter(t)

	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "/home/bob")

	got, err := resolveCacheDir()
	assert(err == nil, "resolveCacheDir: %s", err)
	want := filepath.Join("/home/bob", ".cache", "ptree")
	assert(got == want, "got %q, want %q", got, want)
}

func TestResolveCacheDirErrorsWithoutEnv(t *testing.T) {
	assert := newAsserter(t)

	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "")

	_, err := resolveCacheDir()
	assert(err != nil, "expected error when no env var is set")
}
