// index.go - the path -> offset index
//
// Licensing Terms: GPLv2

package cache

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// indexFormatVersion versions the on-disk encoding of the index file
// (ptree.idx), independent of the entry and cache-meta format versions.
const indexFormatVersion byte = 2

// indexEntry is one path's location in the data file.
type indexEntry struct {
	Path   string
	Offset uint64
	Length uint32
}

// writeIndex serializes entries (in the order given) to w. The format is:
// 1b version, u64 generation, u32 count, then per-entry u32 path-len ||
// path bytes || u64 offset || u32 length. All multi-byte fields are
// big-endian, matching the rest of ptree's internal encoding (the u32
// length prefix on each *data file* record is the one documented
// little-endian exception). generation is stamped on the paired data
// file's own header too, so a commit interrupted between the two renames
// leaves a detectable mismatch rather than a silently misread cache.
func writeIndex(w io.Writer, generation uint64, entries []indexEntry) error {
	be := binary.BigEndian

	hdr := make([]byte, 1+8+4)
	hdr[0] = indexFormatVersion
	be.PutUint64(hdr[1:], generation)
	be.PutUint32(hdr[9:], uint32(len(entries)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}

	for _, e := range entries {
		buf := make([]byte, 4+len(e.Path)+8+4)
		b := buf
		be.PutUint32(b, uint32(len(e.Path)))
		b = b[4:]
		copy(b, e.Path)
		b = b[len(e.Path):]
		be.PutUint64(b, e.Offset)
		b = b[8:]
		be.PutUint32(b, e.Length)

		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// readIndex parses an index file produced by writeIndex, returning the
// generation stamped into it alongside the entries.
func readIndex(r io.Reader) (uint64, []indexEntry, error) {
	be := binary.BigEndian

	hdr := make([]byte, 1+8+4)
	if _, err := io.ReadFull(r, hdr); err != nil {
		if err == io.EOF {
			return 0, nil, nil
		}
		return 0, nil, err
	}

	ver := hdr[0]
	if ver > indexFormatVersion {
		return 0, nil, fmt.Errorf("index: version %d: %w", ver, errVersionTooNew)
	}
	if ver == 0 {
		return 0, nil, fmt.Errorf("index: version %d: %w", ver, errCorruptIndex)
	}

	generation := be.Uint64(hdr[1:])
	n := be.Uint32(hdr[9:])
	entries := make([]indexEntry, 0, n)

	for i := uint32(0); i < n; i++ {
		var lbuf [4]byte
		if _, err := io.ReadFull(r, lbuf[:]); err != nil {
			return 0, nil, fmt.Errorf("index: entry %d: path len: %w", i, err)
		}
		plen := be.Uint32(lbuf[:])

		pbuf := make([]byte, plen)
		if _, err := io.ReadFull(r, pbuf); err != nil {
			return 0, nil, fmt.Errorf("index: entry %d: path: %w", i, err)
		}

		var rest [12]byte
		if _, err := io.ReadFull(r, rest[:]); err != nil {
			return 0, nil, fmt.Errorf("index: entry %d: offset/length: %w", i, err)
		}

		entries = append(entries, indexEntry{
			Path:   string(pbuf),
			Offset: be.Uint64(rest[:8]),
			Length: be.Uint32(rest[8:]),
		})
	}
	return generation, entries, nil
}

// datGenerationHeaderSize is the length, in bytes, of the generation
// stamp written at the start of the data file by Commit.
const datGenerationHeaderSize = 8

// readDatGeneration reads the generation stamp from the start of a data
// file. A file shorter than the header is treated as generation 0: the
// store has never been committed.
func readDatGeneration(f *os.File) (uint64, error) {
	var buf [datGenerationHeaderSize]byte
	n, err := f.ReadAt(buf[:], 0)
	if err != nil && err != io.EOF {
		return 0, err
	}
	if n < len(buf) {
		return 0, nil
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// statSize returns the file size of nm, or 0 if it does not exist.
func statSize(nm string) int64 {
	st, err := os.Stat(nm)
	if err != nil {
		return 0
	}
	return st.Size()
}
