// safefile.go - safe file creation and unwinding on error
//
// Licensing Terms: GPLv2
//
// This software does not come with any express or implied
// warranty; it is provided "as is".

package cache

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// safeFile is an io.WriteCloser used to build a committed cache file: a
// temporary file is written in full, then atomically renamed onto the
// target name when the caller calls Close(); Abort() discards it instead.
// The first call to either Close() or Abort() seals the outcome.
type safeFile struct {
	*os.File

	err    error
	name   string
	offset int64

	// < 0: aborted, > 0: closed, == 0: open and active
	closed atomic.Int64
}

// newSafeFile creates a temp sibling of nm that will either be renamed
// onto nm (Close) or removed (Abort).
func newSafeFile(nm string) (*safeFile, error) {
	tmp := fmt.Sprintf("%s.tmp.%d.%x", nm, os.Getpid(), randU32())
	fd, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	return &safeFile{File: fd, name: nm}, nil
}

func (sf *safeFile) isOpen() bool {
	return sf.closed.Load() == 0
}

// Write writes b in full, recording the first error encountered.
func (sf *safeFile) Write(b []byte) (int, error) {
	if sf.err != nil {
		return 0, sf.err
	}
	if !sf.isOpen() {
		return 0, fmt.Errorf("safefile: %s is not open", sf.Name())
	}

	var z int
	if z, sf.err = fullWrite(sf.File, b); sf.err != nil {
		return z, sf.err
	}
	sf.offset += int64(z)
	return z, nil
}

// Abort discards the temp file. Safe to call multiple times and safe to
// call after Close(): the first call to either takes precedence.
func (sf *safeFile) Abort() {
	n := sf.closed.Load()
	if n != 0 {
		return
	}

	sf.File.Close()
	os.Remove(sf.Name())
	sf.closed.Store(-1)
}

// Close flushes, closes, and atomically renames the temp file onto the
// final name - only if there were no intervening write errors.
func (sf *safeFile) Close() error {
	if sf.err != nil {
		sf.Abort()
		return sf.err
	}

	n := sf.closed.Load()
	switch {
	case n < 0:
		return errAborted
	case n > 0:
		return sf.err
	}

	if sf.err = sf.Sync(); sf.err != nil {
		return sf.err
	}
	if sf.err = sf.File.Close(); sf.err != nil {
		return sf.err
	}
	if sf.err = os.Rename(sf.Name(), sf.name); sf.err != nil {
		return sf.err
	}

	sf.closed.Store(1)
	return nil
}

func fullWrite(d *os.File, b []byte) (int, error) {
	var z int
	n := len(b)
	for n > 0 {
		m, err := d.Write(b)
		if err != nil {
			return z, fmt.Errorf("safefile: %w", err)
		}
		n -= m
		b = b[m:]
		z += m
	}
	return z, nil
}

func randU32() uint32 {
	var b [4]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		panic(fmt.Sprintf("can't read 4 rand bytes: %s", err))
	}
	return binary.LittleEndian.Uint32(b[:])
}
