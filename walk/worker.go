// worker.go - walker workers
//
// Licensing Terms: GPLv2

// Package walk implements the parallel traversal engine: a work
// coordinator (coordinator.go) handing out directory paths to a fixed
// pool of workers, each of which lists one directory per OS call,
// applies the path filter to its subdirectories, and stages a DirEntry
// for every directory it visits.
package walk

import (
	"errors"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/opencoff/go-logger"

	"github.com/opencoff/ptree"
	"github.com/opencoff/ptree/cache"
	"github.com/opencoff/ptree/filter"
)

// Options configures a Scan.
type Options struct {
	// Concurrency is the number of worker goroutines; 0 means
	// runtime.NumCPU().
	Concurrency int

	Filter *filter.Filter
	Store  *cache.Store
	Log    logger.Logger
}

// Stats is the telemetry a scan accumulates, surfaced to collaborators
// so skipped directories are tallied and exposed rather than silently
// dropped.
type Stats struct {
	SkipCount int64
	DirCount  int64
	Cancelled bool
}

// Scan walks every root to completion and stages a DirEntry per directory
// into opt.Store. A worker error cancels the scan: the remaining queued
// paths drain without being enumerated, Stats.Cancelled is set, and the
// returned error joins the worker errors with ErrCancelled. Scan offers
// no way to cancel it from outside. It does not call Commit - that is
// the orchestrator's job.
func Scan(roots []string, opt Options) (*Stats, error) {
	s := newScanner(opt)
	return s.run(roots)
}

type scanner struct {
	opt   Options
	coord *coordinator
	stats Stats
}

func newScanner(opt Options) *scanner {
	if opt.Concurrency <= 0 {
		opt.Concurrency = runtime.NumCPU()
	}
	return &scanner{opt: opt}
}

func (s *scanner) run(roots []string) (*Stats, error) {
	canon := make([]string, len(roots))
	for i, r := range roots {
		canon[i] = ptree.CanonPath(r)
	}

	s.coord = newCoordinator(canon)

	nworkers := s.opt.Concurrency
	errs := make(chan error, nworkers)
	done := make(chan struct{})

	for i := 0; i < nworkers; i++ {
		go func() {
			for {
				path, ok := s.coord.Acquire()
				if !ok {
					done <- struct{}{}
					return
				}
				if err := s.visit(path); err != nil {
					errs <- err
					s.coord.Cancel()
				}
				s.coord.Release(path)
			}
		}()
	}

	for i := 0; i < nworkers; i++ {
		<-done
	}
	close(errs)

	var all []error
	for e := range errs {
		all = append(all, e)
	}

	s.stats.Cancelled = s.coord.Cancelled()
	if s.stats.Cancelled {
		all = append(all, ErrCancelled)
	}

	if len(all) > 0 {
		return &s.stats, errors.Join(all...)
	}
	return &s.stats, nil
}

// visit enumerates one directory, applies the filter to its
// subdirectories, stages a DirEntry, and submits walkable children.
func (s *scanner) visit(path string) error {
	if s.coord.Cancelled() {
		return nil
	}

	listing, err := enumerateWithRetry(path)
	if err != nil {
		// permission denied, sharing violation, path too long: skip and
		// count; the parent still lists this name as a child with an
		// empty known subtree.
		atomic.AddInt64(&s.stats.SkipCount, 1)
		s.logf("skip %s: %s", path, err)
		return nil
	}

	names := make([]string, 0, len(listing.Children))
	for _, c := range listing.Children {
		d := s.opt.Filter.Check(ptree.JoinChild(path, c.Name), c.Name, filter.Probe{
			IsReparsePoint: c.IsReparsePoint,
			Hidden:         c.Hidden,
			System:         c.System,
		})

		switch d {
		case filter.SkipSilent:
			continue
		case filter.SkipSymlink:
			names = append(names, c.Name)
		case filter.Walk:
			names = append(names, c.Name)
			s.coord.Submit(ptree.JoinChild(path, c.Name))
		}
	}

	entry, err := ptree.NewDirEntry(path, listing.Modified, names, false)
	if err != nil {
		// a corrupt child-name list (e.g. a duplicate) is a store
		// consistency failure severe enough to cancel the scan.
		return &Error{"new-entry", path, errors.Join(ErrAllocation, err)}
	}

	s.opt.Store.Put(entry)
	atomic.AddInt64(&s.stats.DirCount, 1)

	for _, c := range listing.Children {
		if !c.IsReparsePoint {
			continue
		}
		leaf, err := ptree.NewDirEntry(ptree.JoinChild(path, c.Name), listing.Modified, nil, true)
		if err != nil {
			continue
		}
		s.opt.Store.Put(leaf)
	}

	return nil
}

// enumerateWithRetry gives transient I/O errors one retry with a small
// backoff before treating the directory as a skip.
func enumerateWithRetry(path string) (*dirListing, error) {
	listing, err := enumerate(path)
	if err == nil {
		return listing, nil
	}
	if !isTransient(err) {
		return nil, err
	}

	time.Sleep(20 * time.Millisecond)
	return enumerate(path)
}

func isTransient(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, os.ErrClosed)
}

func (s *scanner) logf(format string, args ...interface{}) {
	if s.opt.Log != nil {
		s.opt.Log.Debug(format, args...)
	}
}
