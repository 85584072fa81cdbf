package walk

import "testing"

func TestCoordinatorDrainsAndTerminates(t *testing.T) {
	assert := newAsserter(t)

	c := newCoordinator([]string{"A", "B"})

	seen := map[string]bool{}
	for {
		path, ok := c.Acquire()
		if !ok {
			break
		}
		seen[path] = true
		if path == "A" {
			c.Submit("A/child")
		}
		c.Release(path)
	}

	assert(seen["A"] && seen["B"] && seen["A/child"], "expected all three paths visited: %v", seen)
}

func TestCoordinatorSuppressesDuplicateSubmit(t *testing.T) {
	assert := newAsserter(t)

	c := newCoordinator([]string{"A"})

	path, ok := c.Acquire()
	assert(ok, "expected to acquire A")
	assert(path == "A", "unexpected path %s", path)

	// duplicate submit while A is still in flight must be suppressed
	c.Submit("A")

	c.Release(path)

	_, ok = c.Acquire()
	assert(!ok, "coordinator should have terminated; duplicate submit must not reappear")
}

func TestCoordinatorCancel(t *testing.T) {
	assert := newAsserter(t)

	c := newCoordinator(nil)
	c.Cancel()
	assert(c.Cancelled(), "expected Cancelled() to report true")

	c.Submit("X")
	_, ok := c.Acquire()
	assert(!ok, "coordinator should terminate immediately once cancelled with no pending work")
}
