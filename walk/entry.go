// entry.go - the per-directory enumeration result
//
// Licensing Terms: GPLv2

package walk

import "time"

// childInfo is what one OS directory-listing call yields for one entry:
// name, type, and attributes, with no follow-up per-entry stat.
type childInfo struct {
	Name           string
	IsDir          bool
	IsReparsePoint bool
	Hidden         bool
	System         bool
}

// dirListing is everything enumerate() needs to return for one directory:
// its own last-modified instant (fused with the listing call where the
// OS allows it) and its children.
type dirListing struct {
	Modified time.Time
	Children []childInfo
}
