// reconciler.go - applies USN journal changes to a cache.Store
//
// Licensing Terms: GPLv2

package journal

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/opencoff/go-logger"

	"github.com/opencoff/ptree"
	"github.com/opencoff/ptree/cache"
)

// Telemetry is the journal-side counterpart to walk.Stats.SkipCount:
// counts of malformed records, bad timestamps, and subtrees that had to
// be queued for re-enumeration rather than applied directly.
type Telemetry struct {
	ParseErrors        int64
	InvalidTimestamps  int64
	UnresolvedSubtrees int64
}

// Reconciler consumes USN journal records for one volume and applies
// the resulting Created/Deleted/Renamed/Modified changes to a
// cache.Store in USN order.
type Reconciler struct {
	store *cache.Store
	ridx  *ReverseIndex
	src   *volumeJournal
	log   logger.Logger

	parseErrors       atomic.Int64
	invalidTimestamps atomic.Int64
	unresolved        atomic.Int64
}

// Open opens the volume's USN journal and the reverse index persisted
// alongside store, ready for Reconcile.
func Open(store *cache.Store, ridxPath string, volume string, log logger.Logger) (*Reconciler, error) {
	ridx, err := OpenReverseIndex(ridxPath)
	if err != nil {
		return nil, err
	}
	src, err := openVolumeJournal(volume)
	if err != nil {
		return nil, err
	}
	return &Reconciler{store: store, ridx: ridx, src: src, log: log}, nil
}

// Telemetry returns a snapshot of this reconciler's accumulated counters.
func (r *Reconciler) Telemetry() Telemetry {
	return Telemetry{
		ParseErrors:        r.parseErrors.Load(),
		InvalidTimestamps:  r.invalidTimestamps.Load(),
		UnresolvedSubtrees: r.unresolved.Load(),
	}
}

// Reconcile applies every change since the store's last recorded
// journal cursor and commits the result. It returns the canonical paths
// of any subtree whose ancestor chain could not be resolved through the
// reverse index; the caller (ptree/core) re-enumerates those via
// walk.Scan. ErrDiscontinuous means the cache as a whole is unusable
// incrementally and the caller must fall back to a full walk instead.
func (r *Reconciler) Reconcile() ([]string, error) {
	meta := r.store.Meta()

	journalID, firstValid, nextUSN, err := r.src.Query()
	if err != nil {
		return nil, err
	}

	if journalID != meta.JournalID || meta.LastUSN < firstValid {
		return nil, ErrDiscontinuous
	}

	cursor := meta.LastUSN
	rn := newRenamer()
	var unresolved []string

	for cursor < nextUSN {
		records, next, rerr := r.src.Read(cursor)
		if rerr != nil {
			return unresolved, rerr
		}
		if next <= cursor {
			// no progress; avoid spinning forever on a stalled source
			break
		}

		for _, rec := range records {
			if !rec.IsDir {
				continue // the cache only tracks directories
			}

			if old, paired := rn.observe(rec); paired {
				if !rec.isClosed() {
					rn.rebuffer(old) // interim new-name record; wait for the closed one
					continue
				}
				unresolved = r.applyRename(old, rec, unresolved)
				continue
			}

			if !rec.isClosed() {
				continue // interim record; only the closed record commits
			}

			kind := classify(rec)
			if kind == KindNone {
				continue
			}
			unresolved = r.applyOne(kind, rec, unresolved)
		}

		cursor = next
		r.logf("journal: applied through usn %d", cursor)
	}

	r.store.SetJournalCursor(journalID, cursor)
	if serr := r.ridx.Save(); serr != nil {
		return unresolved, serr
	}
	if cerr := r.store.Commit(); cerr != nil {
		return unresolved, cerr
	}
	return unresolved, nil
}

// applyOne resolves and applies a single change that is not part of a
// paired rename. An unpaired RENAME_NEW_NAME (Renamed) is applied like a
// creation at its new path.
func (r *Reconciler) applyOne(kind Kind, rec rawRecord, unresolved []string) []string {
	path, ok := r.resolvePath(rec)
	if !ok {
		return r.queueUnresolved(rec, unresolved)
	}

	switch kind {
	case Created, Renamed:
		r.put(path, rec)
		r.addChildName(ptree.ParentPath(path), ptree.SplitName(path))
	case Deleted:
		r.store.RemoveSubtree(path)
		r.ridx.Delete(rec.FileRef)
		r.removeChildName(ptree.ParentPath(path), ptree.SplitName(path))
	case Modified:
		r.put(path, rec)
	}
	return unresolved
}

// applyRename resolves both halves of a paired rename and applies it as
// a remove-then-put, keeping both the old and new parent's child lists
// in sync with the move.
func (r *Reconciler) applyRename(old, newRec rawRecord, unresolved []string) []string {
	oldPath, oldOK := r.ridx.Lookup(old.FileRef)
	newPath, newOK := r.resolvePath(newRec)

	if !newOK {
		return r.queueUnresolved(newRec, unresolved)
	}
	if oldOK && oldPath != newPath {
		r.store.RemoveSubtree(oldPath)
		r.removeChildName(ptree.ParentPath(oldPath), ptree.SplitName(oldPath))
	}
	r.put(newPath, newRec)
	r.addChildName(ptree.ParentPath(newPath), ptree.SplitName(newPath))
	return unresolved
}

// addChildName inserts name into parentPath's Children list if it is
// not already present, preserving the pinned sort order. A parent the
// cache does not yet know about is left alone; it will be queued for
// re-enumeration the next time its own journal record or an
// unresolved-parent lookup surfaces it.
func (r *Reconciler) addChildName(parentPath, name string) {
	if len(name) == 0 {
		return
	}
	parent, err := r.store.Get(parentPath)
	if err != nil {
		return
	}
	if parent.HasChild(name) {
		return
	}
	children := append(append([]string{}, parent.Children...), name)
	entry, eerr := ptree.NewDirEntry(parent.Path, parent.Modified, children, parent.IsSymlinkTargetSkipped)
	if eerr != nil {
		r.parseErrors.Add(1)
		return
	}
	r.store.Put(entry)
}

// removeChildName deletes name from parentPath's Children list, if
// present.
func (r *Reconciler) removeChildName(parentPath, name string) {
	if len(name) == 0 {
		return
	}
	parent, err := r.store.Get(parentPath)
	if err != nil {
		return
	}
	children := make([]string, 0, len(parent.Children))
	for _, c := range parent.Children {
		if !strings.EqualFold(c, name) {
			children = append(children, c)
		}
	}
	if len(children) == len(parent.Children) {
		return
	}
	entry, eerr := ptree.NewDirEntry(parent.Path, parent.Modified, children, parent.IsSymlinkTargetSkipped)
	if eerr != nil {
		r.parseErrors.Add(1)
		return
	}
	r.store.Put(entry)
}

// resolvePath turns a record's ParentRef into a path via the reverse
// index and joins it with the record's own name.
func (r *Reconciler) resolvePath(rec rawRecord) (string, bool) {
	parent, ok := r.ridx.Lookup(rec.ParentRef)
	if !ok {
		return "", false
	}
	return ptree.JoinChild(parent, rec.Name), true
}

// queueUnresolved records telemetry for an unresolvable parent chain
// and, if this record's own FileRef was previously known, queues its
// last-known path for re-enumeration rather than discarding the change
// entirely.
func (r *Reconciler) queueUnresolved(rec rawRecord, unresolved []string) []string {
	r.unresolved.Add(1)
	if known, ok := r.ridx.Lookup(rec.FileRef); ok {
		unresolved = append(unresolved, known)
	}
	return unresolved
}

// put stages an entry for path, preserving its previously known
// children: a journal record carries only identity and a reason mask,
// never a child list, so Modified/Created/Renamed changes keep whatever
// children the cache already has on file until the next full or partial
// walk revisits the directory.
func (r *Reconciler) put(path string, rec rawRecord) {
	ts, valid := filetimeToUTC(rec.RawTimestamp)
	if !valid {
		ts = time.Now().UTC()
		r.invalidTimestamps.Add(1)
	}

	r.ridx.Put(rec.FileRef, path)

	var children []string
	if prev, err := r.store.Get(path); err == nil {
		children = prev.Children
	}

	entry, eerr := ptree.NewDirEntry(path, ts, children, false)
	if eerr != nil {
		r.parseErrors.Add(1)
		return
	}
	r.store.Put(entry)
}

func (r *Reconciler) logf(format string, args ...interface{}) {
	if r.log != nil {
		r.log.Debug(format, args...)
	}
}
