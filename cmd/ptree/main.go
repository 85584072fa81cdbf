// main.go - ptree CLI entry point
//
// Licensing Terms: GPLv2

package main

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/opencoff/go-logger"
	flag "github.com/opencoff/pflag"

	"github.com/opencoff/ptree/core"
	"github.com/opencoff/ptree/internal/render"
)

var Z = path.Base(os.Args[0])

func main() {
	var admin, force, hidden, incremental, help, debug, jsonOut bool
	var drive, skipExtra, cacheDir string
	var threads int

	fs := flag.NewFlagSet(Z, flag.ExitOnError)

	fs.BoolVarP(&help, "help", "h", false, "Show help and exit [False]")
	fs.StringVarP(&drive, "drive", "d", "", "Scan drive `D` (e.g. C)")
	fs.BoolVarP(&admin, "admin", "a", false, "Disable the extra non-admin skip suffixes [False]")
	fs.BoolVarP(&force, "force", "f", false, "Bypass the freshness check and journal reconcile [False]")
	fs.StringVarP(&skipExtra, "skip", "s", "", "Comma separated list of extra directory names to skip")
	fs.BoolVarP(&hidden, "hidden", "", false, "Include hidden/system directories [False]")
	fs.IntVarP(&threads, "threads", "t", 0, "Use `N` worker goroutines [2x NumCPU]")
	fs.BoolVarP(&incremental, "incremental", "i", false, "Attempt a USN journal reconcile before falling back to a full walk [False]")
	fs.StringVarP(&cacheDir, "cache-dir", "c", "", "Use `D` as the cache directory [resolved from environment]")
	fs.BoolVarP(&debug, "debug", "", false, "Raise log verbosity to debug [False]")
	fs.BoolVarP(&jsonOut, "json", "j", false, "Render as JSON instead of an ASCII tree [False]")

	fs.SetOutput(os.Stdout)

	if err := fs.Parse(os.Args[1:]); err != nil {
		Die("%s", err)
	}

	if help {
		usage(fs)
	}

	if len(drive) == 0 {
		Die("Usage: %s -d <drive letter> [options]", Z)
	}

	dir := cacheDir
	if len(dir) == 0 {
		var err error
		dir, err = resolveCacheDir()
		if err != nil {
			Die("%s", err)
		}
	}

	prio := logger.LOG_INFO
	if debug {
		prio = logger.LOG_DEBUG
	}
	log, err := logger.NewLogger("STDOUT", prio, Z, logger.Ldate|logger.Ltime|logger.Lfileloc)
	if err != nil {
		Die("can't open logger: %s", err)
	}

	cfg := core.Config{
		Drive:       drive,
		Admin:       admin,
		Force:       force,
		SkipExtra:   splitSkip(skipExtra),
		Hidden:      hidden,
		Threads:     threads,
		Incremental: incremental,
		CacheDir:    dir,
		Log:         log,
	}

	store, _, err := core.Refresh(cfg)
	if err != nil {
		os.Exit(core.ExitCode(err))
	}

	r, err := store.Snapshot()
	if err != nil {
		Die("%s", err)
	}
	defer r.Close()

	top, err := r.Root()
	if err != nil {
		Die("%s", err)
	}

	if jsonOut {
		err = render.JSON(os.Stdout, r, top)
	} else {
		err = render.ASCII(os.Stdout, r, top)
	}
	if err != nil {
		Die("%s", err)
	}
}

func splitSkip(s string) []string {
	if len(s) == 0 {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) > 0 {
			out = append(out, p)
		}
	}
	return out
}

func usage(fs *flag.FlagSet) {
	fmt.Printf(usageStr, Z, Z)
	fs.PrintDefaults()
	os.Exit(1)
}

// Die prints a formatted error to stderr and exits 1.
func Die(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", Z, fmt.Sprintf(format, args...))
	os.Exit(1)
}

var usageStr = `%s - cached NTFS directory tree scanner.

Usage: %s -d <drive letter> [options]

Options:
`
