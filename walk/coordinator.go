// coordinator.go - work queue + in-flight set
//
// Licensing Terms: GPLv2

package walk

import (
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// coordinator is the work queue and in-flight set shared by all walker
// workers of a single scan. A WaitGroup counts every path that has been
// submitted but not yet released, and a background goroutine closes the
// work channel once that count reaches zero.
type coordinator struct {
	ch       chan string
	inflight *xsync.MapOf[string, struct{}]
	pending  sync.WaitGroup
	cancel   atomic.Bool
}

// newCoordinator creates a coordinator and seeds it with roots.
func newCoordinator(roots []string) *coordinator {
	c := &coordinator{
		ch:       make(chan string, 256),
		inflight: xsync.NewMapOf[string, struct{}](),
	}

	for _, r := range roots {
		c.Submit(r)
	}

	go func() {
		c.pending.Wait()
		close(c.ch)
	}()

	return c
}

// Submit pushes path onto the queue, inserting it into the in-flight set
// first so a concurrent duplicate submission (e.g. two journal records
// touching the same directory) is suppressed.
func (c *coordinator) Submit(path string) {
	if c.cancel.Load() {
		return
	}
	if _, loaded := c.inflight.LoadOrStore(path, struct{}{}); loaded {
		return
	}

	c.pending.Add(1)
	go func(p string) {
		c.ch <- p
	}(path)
}

// Acquire blocks until a path is available or the coordinator has
// terminated (queue drained and every submitted path released).
func (c *coordinator) Acquire() (string, bool) {
	path, ok := <-c.ch
	return path, ok
}

// Release marks path no longer in flight. If this was the last
// outstanding path, the background closer unblocks and Acquire starts
// returning false to every worker.
func (c *coordinator) Release(path string) {
	c.inflight.Delete(path)
	c.pending.Done()
}

// Cancel sets the shared cancel flag; workers observe it at least once
// per directory.
func (c *coordinator) Cancel() {
	c.cancel.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (c *coordinator) Cancelled() bool {
	return c.cancel.Load()
}
