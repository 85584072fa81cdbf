// direntry_marshal.go - marshal and unmarshal DirEntry records
//
// Licensing Terms: GPLv2

package ptree

import (
	"fmt"
)

// entryFormatVersion is incremented whenever the encoding below changes.
// Decoding a record whose version exceeds this one is a hard error
// (ErrVersionTooNew); an older version triggers a re-scan by the caller.
const entryFormatVersion byte = 1

// entryFixedEncodingSize is the encoded size of DirEntry's fixed-width
// fields: 1b version + 8b modified timestamp + 1b flags.
const entryFixedEncodingSize int = 1 + 8 + 1

// MarshalSize returns the number of bytes MarshalTo will write for e,
// including e's own internal length prefix (but not the outer
// length-prefix of ptree.dat records - see cache.Store.Flush).
func (e *DirEntry) MarshalSize() int {
	n := entryFixedEncodingSize
	n += 4 + len(e.Path)
	n += 4 + len(e.Name)
	n += strlistSize(e.Children)
	return 4 + n
}

// MarshalTo marshals e into b, which must be at least MarshalSize(e)
// bytes. It returns the number of bytes written.
func (e *DirEntry) MarshalTo(b []byte) (int, error) {
	sz := e.MarshalSize()
	if len(b) < sz {
		return 0, fmt.Errorf("direntry: marshal: %w", ErrTooSmall)
	}

	_ = b[sz-1]

	b = enc32(b, sz-4)

	b[0], b = entryFormatVersion, b[1:]
	b = enctime(b, e.Modified)

	var flags byte
	if e.IsSymlinkTargetSkipped {
		flags |= 1
	}
	b[0], b = flags, b[1:]

	b = encstr(b, e.Path)
	b = encstr(b, e.Name)
	b = encstrlist(b, e.Children)

	return sz, nil
}

// Marshal marshals e into a freshly allocated, correctly sized buffer.
func (e *DirEntry) Marshal() ([]byte, error) {
	b := make([]byte, e.MarshalSize())
	_, err := e.MarshalTo(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Unmarshal decodes b (as produced by Marshal/MarshalTo) into e. It
// returns the number of bytes consumed.
func (e *DirEntry) Unmarshal(b []byte) (int, error) {
	if len(b) < 4 {
		return 0, fmt.Errorf("direntry: unmarshal: len: %w", ErrTooSmall)
	}

	var z int
	b, z = dec32[int](b)
	if len(b) < z {
		return 0, fmt.Errorf("direntry: unmarshal: buf %d; want %d: %w", len(b), z, ErrTooSmall)
	}
	if z < entryFixedEncodingSize {
		return 0, fmt.Errorf("direntry: unmarshal: short record %d: %w", z, ErrTooSmall)
	}

	_ = b[z-1]

	ver := b[0]
	b = b[1:]

	switch {
	case ver == entryFormatVersion:
		if err := e.unmarshalV1(b); err != nil {
			return 0, err
		}
		return z + 4, nil
	case ver > entryFormatVersion:
		return 0, fmt.Errorf("direntry: version %d: %w", ver, ErrVersionTooNew)
	default:
		return 0, fmt.Errorf("direntry: version %d: %w", ver, ErrCorrupt)
	}
}

func (e *DirEntry) unmarshalV1(b []byte) error {
	b, e.Modified = dectime(b)

	flags := b[0]
	b = b[1:]
	e.IsSymlinkTargetSkipped = flags&1 != 0

	var err error
	b, e.Path, err = decstr(b)
	if err != nil {
		return err
	}

	b, e.Name, err = decstr(b)
	if err != nil {
		return err
	}

	_, e.Children, err = decstrlist(b)
	if err != nil {
		return err
	}
	return nil
}
