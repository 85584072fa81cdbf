package journal

import "testing"

func TestClassifyBasicReasons(t *testing.T) {
	assert := newAsserter(t)

	cases := []struct {
		reason uint32
		want   Kind
	}{
		{reasonFileCreate, Created},
		{reasonFileDelete, Deleted},
		{reasonRenameNewName, Renamed},
		{reasonRenameOldName, KindNone},
		{reasonBasicInfoChange, Modified},
		{reasonDataExtend, Modified},
		{0, KindNone},
	}

	for _, c := range cases {
		got := classify(rawRecord{Reason: c.reason})
		assert(got == c.want, "reason %#x: got %v, want %v", c.reason, got, c.want)
	}
}

func TestRenamerPairsOldAndNewByFileRef(t *testing.T) {
	assert := newAsserter(t)

	rn := newRenamer()

	_, paired := rn.observe(rawRecord{FileRef: 1, Reason: reasonRenameOldName, Name: "Old"})
	assert(!paired, "old-name record should not pair on its own")

	old, paired := rn.observe(rawRecord{FileRef: 1, Reason: reasonRenameNewName, Name: "New"})
	assert(paired, "expected new-name record to pair with buffered old-name record")
	assert(old.Name == "Old", "expected paired old record name 'Old', got %s", old.Name)

	// a second new-name record for the same ref with no buffered old
	// name must not pair again.
	_, paired = rn.observe(rawRecord{FileRef: 1, Reason: reasonRenameNewName, Name: "New2"})
	assert(!paired, "expected no pairing without a buffered old-name record")
}

func TestFiletimeToUTCRejectsOutOfRangeValues(t *testing.T) {
	assert := newAsserter(t)

	_, ok := filetimeToUTC(0)
	assert(!ok, "zero filetime should be invalid")

	_, ok = filetimeToUTC(-1)
	assert(!ok, "negative filetime should be invalid")

	ts, ok := filetimeToUTC(validFiletime)
	assert(ok, "expected validFiletime to convert")
	assert(ts.Year() >= 1980 && ts.Year() <= 2200, "unexpected year %d", ts.Year())
}
