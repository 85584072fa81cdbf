// errors.go - descriptive errors for the ptree core data model
//
// Licensing Terms: GPLv2
//
// This software does not come with any express or implied
// warranty; it is provided "as is".

package ptree

import (
	"errors"
	"fmt"
)

// Error represents errors returned while decoding or validating the
// on-disk representation of the core data model (DirEntry, CacheMeta).
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("ptree: %s: %s", e.Op, e.Err.Error())
	}
	return fmt.Sprintf("ptree: %s '%s': %s", e.Op, e.Path, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

var _ error = &Error{}

var (
	// ErrCorrupt is returned when the on-disk index, data, or meta file
	// fails to decode. Distinct from plain absence.
	ErrCorrupt = errors.New("cache corrupt")

	// ErrVersionTooNew is returned when a record's format_version exceeds
	// what this build understands. It is a hard, non-recoverable error.
	ErrVersionTooNew = errors.New("format version too new")

	// ErrDuplicateChild signals a violation of the no-duplicate-child-name
	// invariant while assembling a DirEntry.
	ErrDuplicateChild = errors.New("duplicate child name")
)

// errAny returns true if err matches any of errs via errors.Is.
func errAny(err error, errs ...error) bool {
	for _, e := range errs {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
