// commit.go - durable, atomic commit
//
// Licensing Terms: GPLv2

package cache

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"time"
)

// Commit flushes staged changes, then performs a durable write using a
// temp-file + rename sequence that is atomic on the target OS. On
// failure, the prior commit remains intact.
//
// The new data file is built by bulk-copying every live record's byte
// range out of the current (working) data file via mmap, rather than
// re-marshaling DirEntry values that are already sitting on disk in
// their final serialized form - this is the same compaction the working
// file accumulates across flushes.
func (s *Store) Commit() error {
	if err := s.Flush(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	generation := s.meta.Generation + 1

	if len(s.index) == 0 {
		return s.commitEmpty(generation)
	}

	paths := make([]string, 0, len(s.index))
	for p := range s.index {
		paths = append(paths, p)
	}

	ranges := make([]byteRange, len(paths))
	for i, p := range paths {
		ie := s.index[p]
		// include the 4-byte little-endian length prefix in the copied span
		ranges[i] = byteRange{offset: int64(ie.Offset) - 4, length: int64(ie.Length) + 4}
	}

	newDat, err := newSafeFile(s.datPath)
	if err != nil {
		return &Error{"commit-dat", s.datPath, err}
	}
	defer newDat.Abort()

	if err := writeDatGeneration(newDat, generation); err != nil {
		return &Error{"commit-dat-generation", s.datPath, err}
	}

	newOffsets, err := copyUnchangedRecords(newDat, s.datPath, ranges)
	if err != nil {
		return &Error{"commit-copy", s.datPath, err}
	}

	newIndex := make(map[string]indexEntry, len(paths))
	entries := make([]indexEntry, 0, len(paths))
	for i, p := range paths {
		ie := s.index[p]
		ne := indexEntry{Path: p, Offset: uint64(newOffsets[i]) + 4, Length: ie.Length}
		newIndex[p] = ne
		entries = append(entries, ne)
	}

	if err := newDat.Close(); err != nil {
		return &Error{"commit-dat-close", s.datPath, err}
	}

	if err := s.writeIndexAndMeta(generation, entries); err != nil {
		return err
	}

	return s.reopenAfterCommit(newIndex)
}

// commitEmpty handles the degenerate case of an empty store: there is
// nothing to compact, just durable meta/index files.
func (s *Store) commitEmpty(generation uint64) error {
	newDat, err := newSafeFile(s.datPath)
	if err != nil {
		return &Error{"commit-dat", s.datPath, err}
	}
	if err := writeDatGeneration(newDat, generation); err != nil {
		newDat.Abort()
		return &Error{"commit-dat-generation", s.datPath, err}
	}
	if err := newDat.Close(); err != nil {
		newDat.Abort()
		return &Error{"commit-dat-close", s.datPath, err}
	}

	if err := s.writeIndexAndMeta(generation, nil); err != nil {
		return err
	}
	return s.reopenAfterCommit(make(map[string]indexEntry))
}

// writeDatGeneration stamps the data file's generation header, which
// Store.Open cross-checks against the index and meta generation to
// detect a commit interrupted between its three renames.
func writeDatGeneration(f *safeFile, generation uint64) error {
	var buf [datGenerationHeaderSize]byte
	binary.BigEndian.PutUint64(buf[:], generation)
	_, err := f.Write(buf[:])
	return err
}

func (s *Store) writeIndexAndMeta(generation uint64, entries []indexEntry) error {
	newIdx, err := newSafeFile(s.idxPath)
	if err != nil {
		return &Error{"commit-idx", s.idxPath, err}
	}
	defer newIdx.Abort()

	if err := writeIndex(newIdx, generation, entries); err != nil {
		return &Error{"commit-idx-write", s.idxPath, err}
	}
	if err := newIdx.Close(); err != nil {
		return &Error{"commit-idx-close", s.idxPath, err}
	}

	s.meta.LastScan = time.Now().UTC()
	s.meta.Generation = generation

	metaPath := s.metaPath()
	newMeta, err := newSafeFile(metaPath)
	if err != nil {
		return &Error{"commit-meta", metaPath, err}
	}
	defer newMeta.Abort()

	mb, err := s.meta.Marshal()
	if err != nil {
		return &Error{"commit-meta-marshal", metaPath, err}
	}
	if _, err := newMeta.Write(mb); err != nil {
		return &Error{"commit-meta-write", metaPath, err}
	}
	if err := newMeta.Close(); err != nil {
		return &Error{"commit-meta-close", metaPath, err}
	}

	return nil
}

func (s *Store) reopenAfterCommit(newIndex map[string]indexEntry) error {
	s.data.Close()
	data, err := os.OpenFile(s.datPath, os.O_RDONLY, 0o644)
	if err != nil {
		return &Error{"commit-reopen", s.datPath, err}
	}
	s.data = data
	s.index = newIndex
	return nil
}

func (s *Store) metaPath() string {
	return filepath.Join(s.dir, "ptree.meta")
}

// Close releases the store's open file handles. It does not commit any
// staged changes.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Close()
}
