package journal

import (
	"fmt"
	"runtime"
	"testing"
)

func newAsserter(t *testing.T) func(cond bool, msg string, args ...interface{}) {
	return func(cond bool, msg string, args ...interface{}) {
		if cond {
			return
		}

		_, file, line, ok := runtime.Caller(1)
		if !ok {
			file = "???"
			line = 0
		}

		s := fmt.Sprintf(msg, args...)
		t.Fatalf("\n%s: %d: Assertion failed: %s\n", file, line, s)
	}
}

// fixedJournal builds a volumeJournal whose Query/Read are driven by a
// canned set of records, for exercising Reconciler without a live
// volume handle.
func fixedJournal(journalID uint64, firstValid, nextUSN int64, records []rawRecord) *volumeJournal {
	delivered := false
	return &volumeJournal{
		query: func() (uint64, int64, int64, error) {
			return journalID, firstValid, nextUSN, nil
		},
		read: func(startUSN int64) ([]rawRecord, int64, error) {
			if delivered {
				return nil, nextUSN, nil
			}
			delivered = true
			return records, nextUSN, nil
		},
	}
}
