package walk

import (
	"fmt"
	"os"
	"path/filepath"
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

// mkTestDir builds a small tree of real directories under a temp root so
// enumerate() (via the non-Windows fallback) has something to list.
func mkTestDir(t *testing.T, layout map[string][]string) string {
	root := t.TempDir()
	for dir, children := range layout {
		full := filepath.Join(root, dir)
		if err := os.MkdirAll(full, 0o755); err != nil {
			t.Fatalf("mkdir %s: %s", full, err)
		}
		for _, c := range children {
			if err := os.MkdirAll(filepath.Join(full, c), 0o755); err != nil {
				t.Fatalf("mkdir %s/%s: %s", full, c, err)
			}
		}
	}
	return root
}
