package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencoff/ptree"
)

func mkEntry(t *testing.T, path string, children ...string) *ptree.DirEntry {
	e, err := ptree.NewDirEntry(path, time.Now(), children, false)
	if err != nil {
		t.Fatalf("new-entry %s: %s", path, err)
	}
	return e
}

func TestPutGetRoundtrip(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()

	s, err := Open(dir, `C:\`)
	assert(err == nil, "open: %s", err)
	defer s.Close()

	root := mkEntry(t, `C:\`, "A", "B")
	s.Put(root)

	got, err := s.Get(`C:\`)
	assert(err == nil, "get: %s", err)
	assert(got.Path == `C:\`, "path mismatch: %s", got.Path)
	assert(len(got.Children) == 2, "expected 2 children, got %d", len(got.Children))
}

func TestFlushThenGetFromIndex(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()

	s, err := Open(dir, `C:\`)
	assert(err == nil, "open: %s", err)
	defer s.Close()

	a := mkEntry(t, `C:\A`, "x", "y")
	s.Put(a)

	assert(s.Flush() == nil, "flush failed")

	// staging should be empty now; Get must resolve via the on-disk index
	got, err := s.Get(`C:\A`)
	assert(err == nil, "get after flush: %s", err)
	assert(len(got.Children) == 2, "expected 2 children after flush, got %d", len(got.Children))
}

func TestCommitSurvivesReopen(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()

	s, err := Open(dir, `C:\`)
	assert(err == nil, "open: %s", err)

	s.Put(mkEntry(t, `C:\`, "A"))
	s.Put(mkEntry(t, `C:\A`))

	assert(s.Commit() == nil, "commit failed")
	assert(s.Close() == nil, "close failed")

	s2, err := Open(dir, `C:\`)
	assert(err == nil, "reopen: %s", err)
	defer s2.Close()

	root, err := s2.Get(`C:\`)
	assert(err == nil, "get root after reopen: %s", err)
	assert(len(root.Children) == 1 && root.Children[0] == "A", "unexpected root children: %v", root.Children)

	a, err := s2.Get(`C:\A`)
	assert(err == nil, "get C:\\A after reopen: %s", err)
	assert(a.Path == `C:\A`, "path mismatch after reopen: %s", a.Path)
}

func TestRemoveSubtree(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()

	s, err := Open(dir, `C:\`)
	assert(err == nil, "open: %s", err)
	defer s.Close()

	s.Put(mkEntry(t, `C:\`, "A"))
	s.Put(mkEntry(t, `C:\A`, "B"))
	s.Put(mkEntry(t, `C:\A\B`))
	assert(s.Commit() == nil, "commit failed")

	s.RemoveSubtree(`C:\A`)
	assert(s.Commit() == nil, "commit after remove failed")

	_, err = s.Get(`C:\A`)
	assert(err == ErrNotFound, "expected C:\\A removed, got err=%v", err)

	_, err = s.Get(`C:\A\B`)
	assert(err == ErrNotFound, "expected C:\\A\\B removed, got err=%v", err)
}

func TestOpenDetectsGenerationMismatch(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()

	s, err := Open(dir, `C:\`)
	assert(err == nil, "open: %s", err)
	s.Put(mkEntry(t, `C:\`, "A"))
	assert(s.Commit() == nil, "commit failed")
	assert(s.Close() == nil, "close failed")

	// Simulate a commit that renamed ptree.dat onto its new generation
	// but crashed before the paired ptree.idx rename, by bumping the
	// index's on-disk generation out from under the meta/data files.
	idxPath := filepath.Join(dir, "ptree.idx")
	raw, err := os.ReadFile(idxPath)
	assert(err == nil, "read idx: %s", err)

	gen, entries, err := readIndex(bytes.NewReader(raw))
	assert(err == nil, "parse idx: %s", err)

	var buf bytes.Buffer
	assert(writeIndex(&buf, gen+1, entries) == nil, "rewrite idx failed")
	assert(os.WriteFile(idxPath, buf.Bytes(), 0o644) == nil, "write idx failed")

	_, err = Open(dir, `C:\`)
	assert(errors.Is(err, ErrCorrupt), "expected ErrCorrupt, got %v", err)
}

func TestSnapshotIsolatedFromLaterCommits(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()

	s, err := Open(dir, `C:\`)
	assert(err == nil, "open: %s", err)
	defer s.Close()

	s.Put(mkEntry(t, `C:\`, "A"))
	assert(s.Commit() == nil, "commit failed")

	snap, err := s.Snapshot()
	assert(err == nil, "snapshot: %s", err)
	defer snap.Close()

	s.Put(mkEntry(t, `C:\`, "A", "B"))
	assert(s.Commit() == nil, "second commit failed")

	root, err := snap.Root()
	assert(err == nil, "snapshot root: %s", err)
	assert(len(root.Children) == 1, "snapshot should still see 1 child, got %d", len(root.Children))
}
