package ptree

import (
	"testing"
	"time"
)

func TestCacheMetaMarshalRoundtrip(t *testing.T) {
	assert := newAsserter(t)

	m := NewCacheMeta(`d:\`)
	m.LastScan = time.Now().UTC()
	m.JournalID = 0xdeadbeef
	m.LastUSN = 123456789
	m.Generation = 42

	b, err := m.Marshal()
	assert(err == nil, "marshal: %s", err)

	var got CacheMeta
	n, err := got.Unmarshal(b)
	assert(err == nil, "unmarshal: %s", err)
	assert(n == len(b), "unmarshal consumed %d, want %d", n, len(b))

	assert(got.Root == CanonPath(`d:\`), "root not canonicalized: %s", got.Root)
	assert(got.JournalID == m.JournalID, "journal id mismatch")
	assert(got.LastUSN == m.LastUSN, "last usn mismatch")
	assert(got.LastScan.Equal(m.LastScan), "last scan mismatch")
	assert(got.Generation == m.Generation, "generation mismatch")
}

func TestCacheMetaUnmarshalVersionTooNew(t *testing.T) {
	assert := newAsserter(t)

	m := NewCacheMeta(`C:\`)
	b, err := m.Marshal()
	assert(err == nil, "marshal: %s", err)

	b[4] = cacheMetaFormatVersion + 1

	var got CacheMeta
	_, err = got.Unmarshal(b)
	assert(err != nil, "expected error for future version")
}
