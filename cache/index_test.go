package cache

import (
	"bytes"
	"testing"
)

func TestIndexRoundtrip(t *testing.T) {
	assert := newAsserter(t)

	entries := []indexEntry{
		{Path: `C:\`, Offset: 4, Length: 10},
		{Path: `C:\A`, Offset: 18, Length: 20},
	}

	var buf bytes.Buffer
	assert(writeIndex(&buf, 7, entries) == nil, "writeIndex failed")

	gen, got, err := readIndex(&buf)
	assert(err == nil, "readIndex: %s", err)
	assert(gen == 7, "expected generation 7, got %d", gen)
	assert(len(got) == len(entries), "expected %d entries, got %d", len(entries), len(got))

	for i, e := range entries {
		assert(got[i].Path == e.Path, "path %d mismatch: %s != %s", i, got[i].Path, e.Path)
		assert(got[i].Offset == e.Offset, "offset %d mismatch", i)
		assert(got[i].Length == e.Length, "length %d mismatch", i)
	}
}

func TestReadIndexEmpty(t *testing.T) {
	assert := newAsserter(t)

	_, entries, err := readIndex(&bytes.Buffer{})
	assert(err == nil, "readIndex on empty buffer: %s", err)
	assert(len(entries) == 0, "expected no entries, got %d", len(entries))
}
