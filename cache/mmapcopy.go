// mmapcopy.go - bulk-copy unchanged records during commit
//
// Licensing Terms: GPLv2

package cache

import (
	"os"

	"github.com/opencoff/go-mmap"
)

// copyUnchangedRecords maps the previous data file once and, for every
// byte range in ranges (the on-disk [offset, offset+length) span of a
// DirEntry record; Commit passes every live record, length prefix
// included), writes that slice straight into dst without re-marshaling
// the entry. It returns, for
// each input range, the offset the copied record now lives at in dst.
func copyUnchangedRecords(dst *safeFile, prevPath string, ranges []byteRange) ([]int64, error) {
	if len(ranges) == 0 {
		return nil, nil
	}

	prev, err := os.Open(prevPath)
	if err != nil {
		return nil, &Error{"mmap-open-prev", prevPath, err}
	}
	defer prev.Close()

	offsets := make([]int64, len(ranges))

	_, err = mmap.Reader(prev, func(b []byte) error {
		for i, r := range ranges {
			if r.offset < 0 || r.offset+r.length > int64(len(b)) {
				return &Error{"mmap-range", prevPath, ErrCorrupt}
			}
			offsets[i] = dst.offset
			if _, err := dst.Write(b[r.offset : r.offset+r.length]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, &Error{"mmap-reader", prevPath, err}
	}

	return offsets, nil
}

// byteRange identifies a DirEntry record's span within a data file.
type byteRange struct {
	offset int64
	length int64
}
