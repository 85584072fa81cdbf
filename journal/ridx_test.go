package journal

import (
	"path/filepath"
	"testing"
)

func TestReverseIndexRoundTrip(t *testing.T) {
	assert := newAsserter(t)

	path := filepath.Join(t.TempDir(), "ridx")

	ri, err := OpenReverseIndex(path)
	assert(err == nil, "open (fresh): %s", err)

	ri.Put(1, `C:\`)
	ri.Put(2, `C:\A`)
	ri.Put(3, `C:\A\B`)

	assert(ri.Save() == nil, "save")

	ri2, err := OpenReverseIndex(path)
	assert(err == nil, "reopen: %s", err)

	p, ok := ri2.Lookup(2)
	assert(ok && p == `C:\A`, "expected C:\\A for ref 2, got %s/%v", p, ok)

	ri2.Delete(3)
	_, ok = ri2.Lookup(3)
	assert(!ok, "expected ref 3 to be gone after Delete")
}

func TestReverseIndexOpenMissingFileIsEmpty(t *testing.T) {
	assert := newAsserter(t)

	path := filepath.Join(t.TempDir(), "does-not-exist")
	ri, err := OpenReverseIndex(path)
	assert(err == nil, "open missing: %s", err)

	_, ok := ri.Lookup(1)
	assert(!ok, "expected empty reverse index")
}
