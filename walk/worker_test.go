package walk

import (
	"path/filepath"
	"testing"

	"github.com/opencoff/ptree"
	"github.com/opencoff/ptree/cache"
	"github.com/opencoff/ptree/filter"
)

func TestScanSimpleTree(t *testing.T) {
	assert := newAsserter(t)

	root := mkTestDir(t, map[string][]string{
		"": {"A", "B"},
		"A": {"C"},
	})

	store, err := cache.Open(t.TempDir(), root)
	assert(err == nil, "cache open: %s", err)
	defer store.Close()

	f := filter.New(filter.Options{Admin: true, Hidden: true})

	stats, err := Scan([]string{root}, Options{Concurrency: 2, Filter: f, Store: store})
	assert(err == nil, "scan: %s", err)
	assert(!stats.Cancelled, "scan should not have been cancelled")
	assert(stats.DirCount == 4, "expected 4 directories visited, got %d", stats.DirCount)

	rootEntry, err := store.Get(ptree.CanonPath(root))
	assert(err == nil, "get root: %s", err)
	assert(len(rootEntry.Children) == 2, "expected 2 children at root, got %d", len(rootEntry.Children))

	aEntry, err := store.Get(ptree.CanonPath(filepath.Join(root, "A")))
	assert(err == nil, "get A: %s", err)
	assert(len(aEntry.Children) == 1 && aEntry.Children[0] == "C", "unexpected A children: %v", aEntry.Children)
}

func TestScanSkipSet(t *testing.T) {
	assert := newAsserter(t)

	root := mkTestDir(t, map[string][]string{
		"": {"A", ".git", "node_modules"},
	})

	store, err := cache.Open(t.TempDir(), root)
	assert(err == nil, "cache open: %s", err)
	defer store.Close()

	f := filter.New(filter.Options{Admin: true, Hidden: true, SkipExtra: []string{"node_modules"}})

	_, err = Scan([]string{root}, Options{Concurrency: 2, Filter: f, Store: store})
	assert(err == nil, "scan: %s", err)

	rootEntry, err := store.Get(ptree.CanonPath(root))
	assert(err == nil, "get root: %s", err)
	assert(len(rootEntry.Children) == 1 && rootEntry.Children[0] == "A",
		"expected only A as child, got %v", rootEntry.Children)
}
