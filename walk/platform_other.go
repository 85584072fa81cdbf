//go:build !windows

// platform_other.go - directory enumeration fallback for non-NTFS builds
//
// Licensing Terms: GPLv2

package walk

import (
	"os"
	"strings"
)

// enumerate is a degraded, cross-compile-only fallback used when ptree is
// built off Windows: no reparse-point or system-attribute bits exist on
// these file systems, so reparse points are approximated by the symlink
// mode bit and "hidden" by a leading dot.
func enumerate(dir string) (*dirListing, error) {
	fd, err := os.Open(dir)
	if err != nil {
		return nil, &Error{"open", dir, err}
	}
	defer fd.Close()

	st, err := fd.Stat()
	if err != nil {
		return nil, &Error{"stat", dir, err}
	}

	entries, err := fd.ReadDir(-1)
	if err != nil {
		return nil, &Error{"readdir", dir, err}
	}

	listing := &dirListing{Modified: st.ModTime()}

	for _, ent := range entries {
		info, err := ent.Info()
		if err != nil {
			continue
		}

		isSymlink := info.Mode()&os.ModeSymlink != 0
		if !ent.IsDir() && !isSymlink {
			continue
		}

		listing.Children = append(listing.Children, childInfo{
			Name:           ent.Name(),
			IsDir:          true,
			IsReparsePoint: isSymlink,
			Hidden:         strings.HasPrefix(ent.Name(), "."),
			System:         false,
		})
	}

	return listing, nil
}
