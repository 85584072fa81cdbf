// ridx.go - file_ref -> path reverse index
//
// Licensing Terms: GPLv2
//
// Parent resolution during journal reconcile needs a path for a given
// NTFS file reference number without repeated DeviceIoControl round
// trips. This is a small, flat, append-rewritten index kept alongside
// the cache, not inside it: the cache's own index is keyed by path, and
// this one is keyed by the orthogonal identity NTFS uses internally.

package journal

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

const ridxFormatVersion byte = 1

// ReverseIndex maps a FileRef to the canonical path it was last known
// to resolve to. It is rebuilt incrementally as the reconciler applies
// Created/Renamed changes, and consulted to resolve a record's
// ParentRef into a parent path.
type ReverseIndex struct {
	path string

	mu sync.RWMutex
	m  map[FileRef]string
}

// OpenReverseIndex loads the reverse index at path, or returns an empty
// one if it does not yet exist.
func OpenReverseIndex(path string) (*ReverseIndex, error) {
	ri := &ReverseIndex{path: path, m: make(map[FileRef]string)}

	fd, err := os.Open(path)
	switch {
	case err == nil:
	case os.IsNotExist(err):
		return ri, nil
	default:
		return nil, &Error{"open-ridx", path, err}
	}
	defer fd.Close()

	if err := ri.decode(fd); err != nil {
		return nil, &Error{"open-ridx", path, fmt.Errorf("%w: %v", errParse, err)}
	}
	return ri, nil
}

func (ri *ReverseIndex) decode(r io.Reader) error {
	br := bufio.NewReader(r)

	var version byte
	if err := binary.Read(br, binary.BigEndian, &version); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	if version > ridxFormatVersion {
		return fmt.Errorf("ridx: unsupported version %d", version)
	}

	var count uint32
	if err := binary.Read(br, binary.BigEndian, &count); err != nil {
		return err
	}

	for i := uint32(0); i < count; i++ {
		var ref uint64
		var plen uint32
		if err := binary.Read(br, binary.BigEndian, &ref); err != nil {
			return err
		}
		if err := binary.Read(br, binary.BigEndian, &plen); err != nil {
			return err
		}
		buf := make([]byte, plen)
		if _, err := io.ReadFull(br, buf); err != nil {
			return err
		}
		ri.m[FileRef(ref)] = string(buf)
	}
	return nil
}

// Lookup returns the path last associated with ref, if any.
func (ri *ReverseIndex) Lookup(ref FileRef) (string, bool) {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	p, ok := ri.m[ref]
	return p, ok
}

// Put records ref as resolving to path.
func (ri *ReverseIndex) Put(ref FileRef, path string) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.m[ref] = path
}

// Delete forgets ref, e.g. once its file is deleted.
func (ri *ReverseIndex) Delete(ref FileRef) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	delete(ri.m, ref)
}

// Save rewrites the reverse index to disk in full; the reconciler calls
// this once per Reconcile, alongside the cache's own Commit.
func (ri *ReverseIndex) Save() error {
	ri.mu.RLock()
	defer ri.mu.RUnlock()

	tmp := ri.path + ".tmp"
	fd, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &Error{"save-ridx", ri.path, err}
	}

	bw := bufio.NewWriter(fd)
	if err := binary.Write(bw, binary.BigEndian, ridxFormatVersion); err != nil {
		fd.Close()
		return &Error{"save-ridx", ri.path, err}
	}
	if err := binary.Write(bw, binary.BigEndian, uint32(len(ri.m))); err != nil {
		fd.Close()
		return &Error{"save-ridx", ri.path, err}
	}
	for ref, p := range ri.m {
		if err := binary.Write(bw, binary.BigEndian, uint64(ref)); err != nil {
			fd.Close()
			return &Error{"save-ridx", ri.path, err}
		}
		if err := binary.Write(bw, binary.BigEndian, uint32(len(p))); err != nil {
			fd.Close()
			return &Error{"save-ridx", ri.path, err}
		}
		if _, err := bw.WriteString(p); err != nil {
			fd.Close()
			return &Error{"save-ridx", ri.path, err}
		}
	}
	if err := bw.Flush(); err != nil {
		fd.Close()
		return &Error{"save-ridx", ri.path, err}
	}
	if err := fd.Close(); err != nil {
		return &Error{"save-ridx", ri.path, err}
	}
	return os.Rename(tmp, ri.path)
}
