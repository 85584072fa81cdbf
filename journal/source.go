// source.go - the USN journal volume interface
//
// Licensing Terms: GPLv2

package journal

// volumeJournal is the narrow interface the platform-specific USN
// reader implements; Reconciler drives it without knowing whether the
// records came from a live DeviceIoControl call or a test fixture.
type volumeJournal struct {
	query func() (journalID uint64, firstValidUSN, nextUSN int64, err error)
	read  func(startUSN int64) (records []rawRecord, cursor int64, err error)
}

func (v *volumeJournal) Query() (uint64, int64, int64, error) {
	return v.query()
}

func (v *volumeJournal) Read(startUSN int64) ([]rawRecord, int64, error) {
	return v.read(startUSN)
}

// readBufferSize is the fixed per-call buffer used for each
// FSCTL_READ_USN_JOURNAL call.
const readBufferSize = 64 * 1024
