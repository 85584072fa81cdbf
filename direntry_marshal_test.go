package ptree

import (
	"testing"
	"time"
)

func TestDirEntryMarshalRoundtrip(t *testing.T) {
	assert := newAsserter(t)

	e, err := NewDirEntry(`C:\Users\bob`, time.Now(), []string{"Desktop", "Documents"}, false)
	assert(err == nil, "new-entry: %s", err)

	b, err := e.Marshal()
	assert(err == nil, "marshal: %s", err)
	assert(len(b) == e.MarshalSize(), "marshal size mismatch")

	var got DirEntry
	n, err := got.Unmarshal(b)
	assert(err == nil, "unmarshal: %s", err)
	assert(n == len(b), "unmarshal consumed %d, want %d", n, len(b))

	assert(got.Path == e.Path, "path mismatch: %s != %s", got.Path, e.Path)
	assert(got.Name == e.Name, "name mismatch: %s != %s", got.Name, e.Name)
	assert(len(got.Children) == 2, "expected 2 children, got %d", len(got.Children))
	assert(got.Modified.Equal(e.Modified), "modified mismatch")
	assert(got.IsSymlinkTargetSkipped == false, "symlink flag mismatch")
}

func TestDirEntryMarshalSymlinkFlag(t *testing.T) {
	assert := newAsserter(t)

	e, err := NewDirEntry(`C:\A\link`, time.Now(), nil, true)
	assert(err == nil, "new-entry: %s", err)

	b, err := e.Marshal()
	assert(err == nil, "marshal: %s", err)

	var got DirEntry
	_, err = got.Unmarshal(b)
	assert(err == nil, "unmarshal: %s", err)
	assert(got.IsSymlinkTargetSkipped, "expected symlink flag to roundtrip true")
}

func TestDirEntryUnmarshalTooSmall(t *testing.T) {
	assert := newAsserter(t)

	var got DirEntry
	_, err := got.Unmarshal([]byte{0, 1, 2})
	assert(err != nil, "expected error on truncated buffer")
}

func TestDirEntryUnmarshalVersionTooNew(t *testing.T) {
	assert := newAsserter(t)

	e, err := NewDirEntry(`C:\A`, time.Now(), nil, false)
	assert(err == nil, "new-entry: %s", err)

	b, err := e.Marshal()
	assert(err == nil, "marshal: %s", err)

	// the version byte sits right after the leading 4-byte length prefix
	b[4] = entryFormatVersion + 1

	var got DirEntry
	_, err = got.Unmarshal(b)
	assert(err != nil, "expected error for future version")
}
