// cachemeta.go - cache-wide metadata record
//
// Licensing Terms: GPLv2

package ptree

import "time"

// CacheMeta is the single metadata record written exactly once per
// commit: root path, last successful scan or reconcile time, journal
// identifier and cursor, and the format version. It is what lets
// Refresh decide whether the on-disk cache is still usable, and where
// journal reconciliation should resume.
type CacheMeta struct {
	// Root is the canonical path of the volume or subtree this cache
	// covers.
	Root string

	// LastScan is the UTC instant of the last successful full scan or
	// journal reconcile that produced a durable commit.
	LastScan time.Time

	// JournalID identifies the USN journal instance this cache was last
	// reconciled against. A journal can be deleted and recreated by the
	// filesystem, in which case its ID changes and any stored LastUSN is
	// meaningless.
	JournalID uint64

	// LastUSN is the cursor into the USN journal: the update sequence
	// number through which this cache has already applied changes.
	LastUSN int64

	// FormatVersion is the on-disk format version of this cache as a
	// whole (distinct from entryFormatVersion, which versions individual
	// DirEntry records).
	FormatVersion byte

	// Generation is incremented on every successful Commit and stamped
	// into the index and data files alongside the meta record. Open
	// compares all three and refuses a cache whose files don't share a
	// generation, since that can only happen if a commit was interrupted
	// partway through its rename sequence.
	Generation uint64
}

// cacheMetaFormatVersion is incremented whenever CacheMeta's own encoding
// changes.
const cacheMetaFormatVersion byte = 1

// NewCacheMeta returns a zero-value CacheMeta for a freshly initialized
// cache rooted at root: no prior scan, no journal association.
func NewCacheMeta(root string) *CacheMeta {
	return &CacheMeta{
		Root:          CanonPath(root),
		FormatVersion: cacheMetaFormatVersion,
	}
}
