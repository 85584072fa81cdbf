// core.go - orchestration glue tying filter + cache + walk + journal
// together behind the two entry points the CLI needs.
//
// Licensing Terms: GPLv2

package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	"unicode"

	"github.com/opencoff/go-logger"

	"github.com/opencoff/ptree"
	"github.com/opencoff/ptree/cache"
	"github.com/opencoff/ptree/filter"
	"github.com/opencoff/ptree/journal"
	"github.com/opencoff/ptree/walk"
)

// Config is the CLI configuration record populated by cmd/ptree's flag
// parsing.
type Config struct {
	Drive       string
	Admin       bool
	Force       bool
	SkipExtra   []string
	Hidden      bool
	Threads     int
	Incremental bool

	// CacheDir is the already-resolved cache directory
	// ("%APPDATA%/ptree/cache/" or its UNIX-style equivalent); resolving
	// it from the environment is cmd/ptree's job, not core's, so core
	// stays testable against an explicit directory.
	CacheDir string

	Log logger.Logger
}

// freshnessWindow is how long a cache's last scan stays trusted without
// a freshness check forcing a rescan.
const freshnessWindow = time.Hour

// Scan runs a full parallel walk of cfg.Drive and commits the result,
// unconditionally.
func Scan(cfg Config) (*cache.Store, *walk.Stats, error) {
	if err := validateDrive(cfg.Drive); err != nil {
		return nil, nil, err
	}

	store, err := cache.Open(cfg.CacheDir, rootPath(cfg))
	if err != nil {
		return nil, nil, &Error{"open-cache", cfg.CacheDir, err}
	}

	stats, err := fullWalk(store, cfg)
	return store, stats, err
}

// Refresh implements ptree's freshness policy: a fresh, non-forced,
// non-incremental request does no work; force bypasses the freshness
// check and journal reconcile entirely; incremental always attempts a
// journal reconcile first, falling back to Scan's full walk on
// discontinuity or an unavailable journal.
func Refresh(cfg Config) (*cache.Store, *walk.Stats, error) {
	if err := validateDrive(cfg.Drive); err != nil {
		return nil, nil, err
	}

	store, err := cache.Open(cfg.CacheDir, rootPath(cfg))
	if err != nil {
		return nil, nil, &Error{"open-cache", cfg.CacheDir, err}
	}

	if cfg.Force {
		stats, err := fullWalk(store, cfg)
		return store, stats, err
	}

	meta := store.Meta()
	fresh := !meta.LastScan.IsZero() && time.Since(meta.LastScan) < freshnessWindow
	if fresh && !cfg.Incremental {
		return store, &walk.Stats{}, nil
	}

	if cfg.Incremental {
		stats, rerr := reconcile(store, cfg)
		switch {
		case rerr == nil:
			return store, stats, nil
		case errors.Is(rerr, journal.ErrDiscontinuous), errors.Is(rerr, journal.ErrUnavailable):
			logf(cfg, "incremental reconcile unavailable (%s); falling back to full walk", rerr)
		default:
			return store, nil, rerr
		}
	}

	stats, err := fullWalk(store, cfg)
	return store, stats, err
}

func fullWalk(store *cache.Store, cfg Config) (*walk.Stats, error) {
	return scanAndCommit(store, cfg, rootPath(cfg))
}

// scanAndCommit runs a full walk rooted at root and commits the result.
// It is factored out of fullWalk so tests can exercise the walk/commit
// path against an arbitrary directory fixture instead of a drive letter.
func scanAndCommit(store *cache.Store, cfg Config, root string) (*walk.Stats, error) {
	opt := walk.Options{
		Concurrency: threadCount(cfg.Threads),
		Filter:      filter.New(filter.Options{Admin: cfg.Admin, Hidden: cfg.Hidden, SkipExtra: cfg.SkipExtra}),
		Store:       store,
		Log:         cfg.Log,
	}

	stats, err := walk.Scan([]string{root}, opt)
	if err != nil {
		return stats, err
	}
	if err := store.Commit(); err != nil {
		return stats, &Error{"commit", cfg.CacheDir, err}
	}
	return stats, nil
}

// reconcile drives one journal reconcile pass, then re-enumerates any
// subtree the reconciler could not resolve through the reverse index.
func reconcile(store *cache.Store, cfg Config) (*walk.Stats, error) {
	ridxPath := filepath.Join(cfg.CacheDir, "ptree.ridx")

	rec, err := journal.Open(store, ridxPath, volumeHandle(cfg), cfg.Log)
	if err != nil {
		return nil, err
	}

	unresolved, err := rec.Reconcile()
	if err != nil {
		return nil, err
	}

	if len(unresolved) == 0 {
		return &walk.Stats{}, nil
	}

	logf(cfg, "re-enumerating %d subtree(s) unresolved by journal reconcile", len(unresolved))

	opt := walk.Options{
		Concurrency: threadCount(cfg.Threads),
		Filter:      filter.New(filter.Options{Admin: cfg.Admin, Hidden: cfg.Hidden, SkipExtra: cfg.SkipExtra}),
		Store:       store,
		Log:         cfg.Log,
	}
	stats, err := walk.Scan(unresolved, opt)
	if err != nil {
		return stats, err
	}
	if err := store.Commit(); err != nil {
		return stats, &Error{"commit", cfg.CacheDir, err}
	}
	return stats, nil
}

// threadCount applies the default worker count when n is unset: 2 x
// runtime.NumCPU(), which counts logical CPUs rather than physical
// cores, clamped >= 1.
func threadCount(n int) int {
	if n > 0 {
		return n
	}
	n = 2 * runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	return n
}

func validateDrive(drive string) error {
	if len(drive) != 1 || !unicode.IsLetter(rune(drive[0])) {
		return fmt.Errorf("%q: %w", drive, ErrInvalidDrive)
	}
	return nil
}

func rootPath(cfg Config) string {
	return ptree.CanonPath(strings.ToUpper(cfg.Drive) + `:\`)
}

// volumeHandle is the `\\.\X:` device path the journal package opens
// with CreateFile.
func volumeHandle(cfg Config) string {
	return `\\.\` + strings.ToUpper(cfg.Drive) + `:`
}

func logf(cfg Config, format string, args ...interface{}) {
	if cfg.Log != nil {
		cfg.Log.Info(format, args...)
	}
}
