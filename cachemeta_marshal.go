// cachemeta_marshal.go - marshal and unmarshal CacheMeta records
//
// Licensing Terms: GPLv2

package ptree

import "fmt"

// cacheMetaFixedEncodingSize: 1b version + 8b last-scan + 8b journal id
// + 8b last usn + 8b generation.
const cacheMetaFixedEncodingSize int = 1 + 8 + 8 + 8 + 8

// MarshalSize returns the number of bytes MarshalTo will write for m.
func (m *CacheMeta) MarshalSize() int {
	return 4 + cacheMetaFixedEncodingSize + 4 + len(m.Root)
}

// MarshalTo marshals m into b, which must be at least MarshalSize(m)
// bytes long. It returns the number of bytes written.
func (m *CacheMeta) MarshalTo(b []byte) (int, error) {
	sz := m.MarshalSize()
	if len(b) < sz {
		return 0, fmt.Errorf("cachemeta: marshal: %w", ErrTooSmall)
	}

	b = enc32(b, sz-4)

	b[0], b = cacheMetaFormatVersion, b[1:]
	b = enctime(b, m.LastScan)
	b = enc64(b, m.JournalID)
	b = enc64(b, m.LastUSN)
	b = enc64(b, m.Generation)
	b = encstr(b, m.Root)

	return sz, nil
}

// Marshal marshals m into a freshly allocated, correctly sized buffer.
func (m *CacheMeta) Marshal() ([]byte, error) {
	b := make([]byte, m.MarshalSize())
	_, err := m.MarshalTo(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Unmarshal decodes b into m. It returns the number of bytes consumed.
func (m *CacheMeta) Unmarshal(b []byte) (int, error) {
	if len(b) < 4 {
		return 0, fmt.Errorf("cachemeta: unmarshal: len: %w", ErrTooSmall)
	}

	var z int
	b, z = dec32[int](b)
	if len(b) < z {
		return 0, fmt.Errorf("cachemeta: unmarshal: buf %d; want %d: %w", len(b), z, ErrTooSmall)
	}
	if z < cacheMetaFixedEncodingSize {
		return 0, fmt.Errorf("cachemeta: unmarshal: short record %d: %w", z, ErrTooSmall)
	}

	ver := b[0]
	b = b[1:]

	switch {
	case ver == cacheMetaFormatVersion:
		if err := m.unmarshalV1(b); err != nil {
			return 0, err
		}
		m.FormatVersion = ver
		return z + 4, nil
	case ver > cacheMetaFormatVersion:
		return 0, fmt.Errorf("cachemeta: version %d: %w", ver, ErrVersionTooNew)
	default:
		return 0, fmt.Errorf("cachemeta: version %d: %w", ver, ErrCorrupt)
	}
}

func (m *CacheMeta) unmarshalV1(b []byte) error {
	b, m.LastScan = dectime(b)
	b, m.JournalID = dec64[uint64](b)
	b, m.LastUSN = dec64[int64](b)
	b, m.Generation = dec64[uint64](b)

	_, root, err := decstr(b)
	if err != nil {
		return err
	}
	m.Root = root
	return nil
}
