// store.go - the persistent, crash-safe directory-entry cache
//
// Licensing Terms: GPLv2

package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/opencoff/ptree"
)

// FlushThreshold is the number of staged puts/removes above which Store
// performs an internal flush to bound memory.
const FlushThreshold = 10000

// Store is the persistent directory-entry cache. The zero value is not
// usable; construct with Open.
//
// Many readers, one writer: Get, Put and RemoveSubtree may be called
// concurrently with each other and with Snapshot; Flush and Commit must
// not overlap with each other, so callers run them from a single
// orchestrator goroutine.
type Store struct {
	dir     string
	datPath string
	idxPath string

	meta *ptree.CacheMeta

	mu    sync.RWMutex
	index map[string]indexEntry
	data  *os.File

	staging *xsync.MapOf[string, *ptree.DirEntry]
	tombs   *xsync.MapOf[string, struct{}]
	staged  atomic.Int64
}

// Open reads meta and index if present under dir, returning an empty
// store if the cache does not yet exist. It fails on corruption or on an
// underlying I/O error, never on mere absence.
func Open(dir string, root string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{"open", dir, err}
	}

	s := &Store{
		dir:     dir,
		datPath: filepath.Join(dir, "ptree.dat"),
		idxPath: filepath.Join(dir, "ptree.idx"),
		index:   make(map[string]indexEntry),
		staging: xsync.NewMapOf[string, *ptree.DirEntry](),
		tombs:   xsync.NewMapOf[string, struct{}](),
	}

	meta, err := readMeta(filepath.Join(dir, "ptree.meta"))
	switch {
	case err == nil:
		s.meta = meta
	case os.IsNotExist(err):
		s.meta = ptree.NewCacheMeta(root)
	default:
		return nil, &Error{"open-meta", dir, fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}

	var idxGeneration uint64
	idxFd, err := os.Open(s.idxPath)
	switch {
	case err == nil:
		defer idxFd.Close()
		gen, entries, rerr := readIndex(idxFd)
		if rerr != nil {
			return nil, &Error{"open-index", s.idxPath, fmt.Errorf("%w: %v", ErrCorrupt, rerr)}
		}
		idxGeneration = gen
		for _, e := range entries {
			s.index[e.Path] = e
		}
	case os.IsNotExist(err):
		// empty store
	default:
		return nil, &Error{"open-index", s.idxPath, err}
	}

	data, err := os.OpenFile(s.datPath, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, &Error{"open-data", s.datPath, err}
	}
	s.data = data

	datGeneration, err := readDatGeneration(data)
	if err != nil {
		return nil, &Error{"open-data-generation", s.datPath, err}
	}

	// A committed cache (Generation > 0) must have an index and data
	// file stamped with that same generation. A mismatch means a prior
	// Commit was interrupted between its dat/idx/meta renames, leaving
	// files from two different commits paired together; trust neither.
	if s.meta.Generation != 0 && (idxGeneration != s.meta.Generation || datGeneration != s.meta.Generation) {
		return nil, &Error{"open", dir, fmt.Errorf("meta generation %d, index generation %d, data generation %d: %w",
			s.meta.Generation, idxGeneration, datGeneration, ErrCorrupt)}
	}

	return s, nil
}

// Meta returns a copy of the store's cache-wide metadata.
func (s *Store) Meta() ptree.CacheMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.meta
}

// SetJournalCursor records the journal identity and cursor the store was
// last reconciled against.
func (s *Store) SetJournalCursor(journalID uint64, lastUSN int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.JournalID = journalID
	s.meta.LastUSN = lastUSN
}

// Get returns the entry for path, consulting the staging map first,
// then the committed index/data file. O(1) on the indexed form: a
// length prefix read followed by a single record deserialization.
func (s *Store) Get(path string) (*ptree.DirEntry, error) {
	path = ptree.CanonPath(path)

	if e, ok := s.staging.Load(path); ok {
		return e, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, dead := s.tombs.Load(path); dead {
		return nil, ErrNotFound
	}

	ie, ok := s.index[path]
	if !ok {
		return nil, ErrNotFound
	}

	return s.readRecord(ie)
}

// readRecord reads and deserializes the DirEntry at ie's offset/length.
// Caller must hold at least a read lock on s.mu.
func (s *Store) readRecord(ie indexEntry) (*ptree.DirEntry, error) {
	buf := make([]byte, ie.Length)
	if _, err := s.data.ReadAt(buf, int64(ie.Offset)); err != nil {
		return nil, &Error{"read-record", ie.Path, err}
	}

	var e ptree.DirEntry
	if _, err := e.Unmarshal(buf); err != nil {
		return nil, &Error{"unmarshal-record", ie.Path, err}
	}
	return &e, nil
}

// Put buffers entry into the in-memory staging area; it returns
// immediately. Repeated puts for the same path coalesce to the last
// write.
func (s *Store) Put(entry *ptree.DirEntry) {
	path := entry.Path
	s.tombs.Delete(path)
	if _, loaded := s.staging.Load(path); !loaded {
		s.staged.Add(1)
	}
	s.staging.Store(path, entry)

	if s.staged.Load() >= FlushThreshold {
		s.Flush()
	}
}

// RemoveSubtree marks path and every descendant reachable via its
// children for deletion on the next flush.
func (s *Store) RemoveSubtree(path string) {
	path = ptree.CanonPath(path)

	queue := []string{path}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		e, err := s.Get(p)

		s.staging.Delete(p)
		s.tombs.Store(p, struct{}{})
		s.staged.Add(1)

		if err == nil {
			for _, c := range e.Children {
				queue = append(queue, e.ChildPath(c))
			}
		}
	}
}
