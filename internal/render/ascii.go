// ascii.go - ASCII tree rendering
//
// Licensing Terms: GPLv2

// Package render implements the two output formats the CLI layer can
// produce from a scan: an ASCII tree and a JSON document, both built on
// the read-only cache.Reader snapshot.
package render

import (
	"fmt"
	"io"

	"github.com/opencoff/ptree"
	"github.com/opencoff/ptree/cache"
)

// ASCII writes an indented tree of r's entries starting at root to w,
// one line per DirEntry, using the conventional box-drawing prefixes.
// A symlink whose subtree was skipped is marked inline; it never
// recurses, since the cache never stores entries for a skipped subtree.
func ASCII(w io.Writer, r *cache.Reader, root *ptree.DirEntry) error {
	if _, err := fmt.Fprintf(w, "%s\n", root.Path); err != nil {
		return err
	}
	return asciiChildren(w, r, root, "")
}

func asciiChildren(w io.Writer, r *cache.Reader, e *ptree.DirEntry, prefix string) error {
	children, err := r.Children(e.Path)
	if err != nil {
		return err
	}

	for i, c := range children {
		last := i == len(children)-1
		branch, childPrefix := "├── ", prefix+"│   "
		if last {
			branch, childPrefix = "└── ", prefix+"    "
		}

		label := c.Name
		if c.IsSymlinkTargetSkipped {
			label += " -> [skipped]"
		}
		if _, err := fmt.Fprintf(w, "%s%s%s\n", prefix, branch, label); err != nil {
			return err
		}
		if c.IsSymlinkTargetSkipped {
			continue
		}
		if err := asciiChildren(w, r, c, childPrefix); err != nil {
			return err
		}
	}
	return nil
}
