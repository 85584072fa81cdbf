// entry.go - USN record translation
//
// Licensing Terms: GPLv2

package journal

import "time"

// FileRef is an NTFS file reference number: a 64-bit value that
// identifies a file or directory record in the MFT, stable across
// renames (unlike its path).
type FileRef uint64

// Reason mask bits from a USN_RECORD_V2, as defined by the NTFS USN
// journal (winioctl.h). Only a subset is meaningful to a directory-only
// cache; the rest are still parsed so the reason mask round-trips, but
// they classify as Modified like any other metadata-only change.
const (
	reasonDataOverwrite        = 0x00000001
	reasonDataExtend           = 0x00000002
	reasonDataTruncation       = 0x00000004
	reasonNamedDataOverwrite   = 0x00000010
	reasonNamedDataExtend      = 0x00000020
	reasonNamedDataTruncation  = 0x00000040
	reasonFileCreate           = 0x00000100
	reasonFileDelete           = 0x00000200
	reasonEAChange             = 0x00000400
	reasonSecurityChange       = 0x00000800
	reasonRenameOldName        = 0x00001000
	reasonRenameNewName        = 0x00002000
	reasonIndexableChange      = 0x00004000
	reasonBasicInfoChange      = 0x00008000
	reasonHardLinkChange       = 0x00010000
	reasonCompressionChange    = 0x00020000
	reasonEncryptionChange     = 0x00040000
	reasonObjectIDChange       = 0x00080000
	reasonReparsePointChange   = 0x00100000
	reasonStreamChange         = 0x00200000
	reasonTransactedChange     = 0x00400000
	reasonIntegrityChange      = 0x00800000
	reasonClose                = 0x80000000
)

// rawRecord is one parsed USN_RECORD_V2, prior to path resolution. The
// timestamp is kept in its native filesystem units (100ns since
// 1601-01-01) so conversion and invalid-timestamp telemetry happen in
// one place (Reconciler.put), not duplicated per platform.
type rawRecord struct {
	USN          int64
	FileRef      FileRef
	ParentRef    FileRef
	Reason       uint32
	RawTimestamp int64
	Name         string
	IsDir        bool
}

func (r rawRecord) isClosed() bool {
	return r.Reason&reasonClose != 0
}

// filetimeEpochDelta100ns is the number of 100ns intervals between the
// Windows FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01).
const filetimeEpochDelta100ns = 116444736000000000

// filetimeToUTC converts a filesystem-native 100ns-since-1601 timestamp
// to UTC, reporting false for values outside a sane range so the caller
// can substitute "now" and count it in telemetry.
func filetimeToUTC(ft int64) (time.Time, bool) {
	if ft <= 0 {
		return time.Time{}, false
	}
	units := ft - filetimeEpochDelta100ns
	if units < 0 {
		return time.Time{}, false
	}
	sec := units / 10_000_000
	nsec := (units % 10_000_000) * 100
	t := time.Unix(sec, nsec).UTC()
	if t.Year() < 1980 || t.Year() > 2200 {
		return time.Time{}, false
	}
	return t, true
}

// Kind is the semantic change a reconciled record applies to the cache.
type Kind int

const (
	// KindNone is produced for a reason mask that carries no change the
	// cache applies, and for a lone RENAME_OLD_NAME (the renamer pairs
	// it instead). classify does not look at the close flag or IsDir:
	// Reconcile drops interim and file-only records before classifying.
	KindNone Kind = iota
	Created
	Deleted
	Renamed
	Modified
)

// classify maps a raw reason mask to a Kind. It does not resolve paths
// or pair renames; renamer does that.
func classify(r rawRecord) Kind {
	switch {
	case r.Reason&reasonFileCreate != 0:
		return Created
	case r.Reason&reasonFileDelete != 0:
		return Deleted
	case r.Reason&reasonRenameNewName != 0:
		return Renamed
	case r.Reason&reasonRenameOldName != 0:
		// paired by the renamer into the Renamed change carrying
		// OldPath; never surfaced on its own.
		return KindNone
	case r.Reason&(reasonDataOverwrite|reasonDataExtend|reasonDataTruncation|
		reasonNamedDataOverwrite|reasonNamedDataExtend|reasonNamedDataTruncation|
		reasonEAChange|reasonSecurityChange|reasonIndexableChange|reasonBasicInfoChange|
		reasonHardLinkChange|reasonCompressionChange|reasonEncryptionChange|
		reasonObjectIDChange|reasonReparsePointChange|reasonStreamChange|
		reasonTransactedChange|reasonIntegrityChange) != 0:
		return Modified
	default:
		return KindNone
	}
}

// renamer pairs RENAME_OLD_NAME/RENAME_NEW_NAME records sharing a
// FileRef into a single Renamed change.
type renamer struct {
	oldNames map[FileRef]rawRecord
}

func newRenamer() *renamer {
	return &renamer{oldNames: make(map[FileRef]rawRecord)}
}

// observe buffers RENAME_OLD_NAME records and returns the paired old
// record (if any) alongside a RENAME_NEW_NAME record.
func (rn *renamer) observe(r rawRecord) (old rawRecord, paired bool) {
	if r.Reason&reasonRenameOldName != 0 {
		rn.oldNames[r.FileRef] = r
		return rawRecord{}, false
	}
	if r.Reason&reasonRenameNewName != 0 {
		if old, ok := rn.oldNames[r.FileRef]; ok {
			delete(rn.oldNames, r.FileRef)
			return old, true
		}
	}
	return rawRecord{}, false
}

// rebuffer re-inserts old after an unclosed RENAME_NEW_NAME record
// consumed it from observe, so a later, closed RENAME_NEW_NAME record
// for the same FileRef can still pair with it.
func (rn *renamer) rebuffer(old rawRecord) {
	rn.oldNames[old.FileRef] = old
}
