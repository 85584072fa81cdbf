// flush.go - applying staged puts/removes to the live structures
//
// Licensing Terms: GPLv2

package cache

import (
	"os"

	"github.com/opencoff/ptree"
)

// Flush applies all staged puts and removes to the live in-memory index,
// appending new/changed records to the working data file (ptree.dat) so
// Get reads them back from disk. The index file is rewritten only by
// Commit, so records flushed since the last Commit are not visible to a
// later Open. It is idempotent: calling it with nothing staged is a no-op.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.staged.Load() == 0 {
		return nil
	}

	fd, err := os.OpenFile(s.datPath, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return &Error{"flush-open", s.datPath, err}
	}
	defer fd.Close()

	info, err := fd.Stat()
	if err != nil {
		return &Error{"flush-stat", s.datPath, err}
	}
	offset := info.Size()

	s.tombs.Range(func(path string, _ struct{}) bool {
		delete(s.index, path)
		return true
	})

	var puts []*ptree.DirEntry
	s.staging.Range(func(_ string, e *ptree.DirEntry) bool {
		puts = append(puts, e)
		return true
	})

	for _, e := range puts {
		rec, err := e.Marshal()
		if err != nil {
			return &Error{"flush-marshal", e.Path, err}
		}

		lbuf := leU32(uint32(len(rec)))
		if _, err := fd.Write(lbuf[:]); err != nil {
			return &Error{"flush-write", e.Path, err}
		}
		if _, err := fd.Write(rec); err != nil {
			return &Error{"flush-write", e.Path, err}
		}

		s.index[e.Path] = indexEntry{Path: e.Path, Offset: uint64(offset) + 4, Length: uint32(len(rec))}
		offset += 4 + int64(len(rec))
	}

	if err := fd.Sync(); err != nil {
		return &Error{"flush-sync", s.datPath, err}
	}

	// reopen the read handle so readers observe the freshly appended bytes
	s.data.Close()
	data, err := os.OpenFile(s.datPath, os.O_RDONLY, 0o644)
	if err != nil {
		return &Error{"flush-reopen", s.datPath, err}
	}
	s.data = data

	s.staging.Clear()
	s.tombs.Clear()
	s.staged.Store(0)

	return nil
}

// leU32 encodes n as little-endian: the one place ptree's binary format
// departs from the big-endian convention used everywhere else
// (encdec.go's enc32/enc64, and the index file).
func leU32(n uint32) [4]byte {
	var b [4]byte
	b[0] = byte(n)
	b[1] = byte(n >> 8)
	b[2] = byte(n >> 16)
	b[3] = byte(n >> 24)
	return b
}

