// errors.go - orchestration-level error classification
//
// Licensing Terms: GPLv2

package core

import (
	"errors"
	"fmt"

	"github.com/opencoff/ptree/cache"
	"github.com/opencoff/ptree/journal"
)

// Error represents the errors returned by Scan and Refresh.
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

// ErrInvalidDrive is returned by Scan/Refresh when cfg.Drive is not a
// single letter. It does not check that the volume exists or is
// accessible.
var ErrInvalidDrive = errors.New("ptree: invalid or inaccessible drive")

// ExitCode maps err to a process exit code: 0 success (never produced
// here; the caller only calls this on a non-nil err), 1 user error, 2
// I/O failure, 3 cache corruption.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidDrive):
		return 1
	case errors.Is(err, cache.ErrCorrupt):
		return 3
	case errors.Is(err, journal.ErrDiscontinuous), errors.Is(err, journal.ErrUnavailable):
		// both are handled internally by falling back to a full walk;
		// reaching ExitCode with one unwrapped means that fallback
		// itself failed, which is an I/O-class failure.
		return 2
	default:
		return 2
	}
}
