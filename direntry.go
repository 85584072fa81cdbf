// direntry.go - the unit of the directory map
//
// Licensing Terms: GPLv2

package ptree

import (
	"fmt"
	"strings"
	"time"
)

// DirEntry is the unit of the persistent directory map. It never carries
// per-file metadata - only what is needed to reconstruct a directory
// tree: its own identity, its last-modified instant, and the names of
// its direct children.
type DirEntry struct {
	// Path is the absolute, canonical directory path (see CanonPath).
	Path string

	// Name is the terminal path component; empty for the volume root.
	Name string

	// Modified is the directory's own last-modified instant, UTC.
	Modified time.Time

	// Children is the ordered, duplicate-free list of direct child names
	// (not paths).
	Children []string

	// IsSymlinkTargetSkipped is true if this entry is a symlink/junction
	// whose subtree was deliberately not enumerated.
	IsSymlinkTargetSkipped bool
}

// NewDirEntry builds a DirEntry for path, validating and sorting
// children. It returns ErrDuplicateChild if two children share a name.
func NewDirEntry(path string, modified time.Time, children []string, symlinkSkipped bool) (*DirEntry, error) {
	seen := make(map[string]struct{}, len(children))
	for _, c := range children {
		key := c
		if _, ok := seen[key]; ok {
			return nil, &Error{"new-entry", path, fmt.Errorf("%q: %w", c, ErrDuplicateChild)}
		}
		seen[key] = struct{}{}
	}

	cp := make([]string, len(children))
	copy(cp, children)
	SortNames(cp)

	return &DirEntry{
		Path:                   CanonPath(path),
		Name:                   SplitName(CanonPath(path)),
		Modified:               modified.UTC(),
		Children:               cp,
		IsSymlinkTargetSkipped: symlinkSkipped,
	}, nil
}

// Clone makes a deep copy of e.
func (e *DirEntry) Clone() *DirEntry {
	cp := *e
	cp.Children = make([]string, len(e.Children))
	copy(cp.Children, e.Children)
	return &cp
}

// ChildPath returns the canonical path of the named child.
func (e *DirEntry) ChildPath(name string) string {
	return JoinChild(e.Path, name)
}

// HasChild reports whether name is present in e.Children. Children is
// kept sorted, so this could binary search; a linear scan is simpler
// and fast enough given typical directory fan-out, so we use one here.
func (e *DirEntry) HasChild(name string) bool {
	for _, c := range e.Children {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

func (e *DirEntry) String() string {
	return fmt.Sprintf("%s: %d children, symlink-skip=%v, mtime=%s",
		e.Path, len(e.Children), e.IsSymlinkTargetSkipped, e.Modified)
}
