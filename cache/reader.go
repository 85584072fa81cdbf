// reader.go - point-in-time snapshot view for rendering
//
// Licensing Terms: GPLv2

package cache

import (
	"os"

	"github.com/opencoff/ptree"
)

// Reader is an immutable, point-in-time view over the store's flushed
// state, so tree rendering never interleaves with a concurrent
// reconcile or walk: many readers, one writer.
type Reader struct {
	rootPath string
	index    map[string]indexEntry
	data     *os.File
}

// Snapshot returns a Reader over the store's in-memory index as of the
// last Flush or Commit. Records flushed but not yet committed (including
// by the automatic flush Put triggers at FlushThreshold) are visible to
// it; staged puts that have not been flushed are not. The index map is
// copied so later Puts/Commits on s never mutate an outstanding Reader;
// the data file handle is a fresh, independent descriptor over the same
// bytes.
func (s *Store) Snapshot() (*Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := make(map[string]indexEntry, len(s.index))
	for k, v := range s.index {
		idx[k] = v
	}

	data, err := os.Open(s.datPath)
	if err != nil {
		return nil, &Error{"snapshot", s.datPath, err}
	}

	return &Reader{rootPath: s.meta.Root, index: idx, data: data}, nil
}

// Close releases the snapshot's independent file handle.
func (r *Reader) Close() error {
	return r.data.Close()
}

// Root returns the entry at the cache's configured root path.
func (r *Reader) Root() (*ptree.DirEntry, error) {
	return r.Get(r.rootPath)
}

// Get returns the entry for path, or ErrNotFound.
func (r *Reader) Get(path string) (*ptree.DirEntry, error) {
	path = ptree.CanonPath(path)

	ie, ok := r.index[path]
	if !ok {
		return nil, ErrNotFound
	}

	buf := make([]byte, ie.Length)
	if _, err := r.data.ReadAt(buf, int64(ie.Offset)); err != nil {
		return nil, &Error{"read-record", path, err}
	}

	var e ptree.DirEntry
	if _, err := e.Unmarshal(buf); err != nil {
		return nil, &Error{"unmarshal-record", path, err}
	}
	return &e, nil
}

// Children returns the DirEntry of each direct child of path that is
// itself present in the snapshot. A symlink-skipped child has an entry of
// its own (with IsSymlinkTargetSkipped set) and is included; a child the
// walker could not enumerate has no entry and is absent from the result.
func (r *Reader) Children(path string) ([]*ptree.DirEntry, error) {
	e, err := r.Get(path)
	if err != nil {
		return nil, err
	}

	out := make([]*ptree.DirEntry, 0, len(e.Children))
	for _, c := range e.Children {
		child, err := r.Get(e.ChildPath(c))
		if err != nil {
			continue
		}
		out = append(out, child)
	}
	return out, nil
}

// Count returns the number of entries in the snapshot.
func (r *Reader) Count() int {
	return len(r.index)
}
