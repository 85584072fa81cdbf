// filter.go - path filter deciding whether a directory is traversed
//
// Licensing Terms: GPLv2
//
// This software does not come with any express or implied
// warranty; it is provided "as is".

// Package filter implements the traversal gate: given a candidate
// directory and its classification probe (reparse-point status +
// attributes), decide whether the walker descends into it. A Filter is
// pure and safe for concurrent use once built; its configuration does
// not change for the lifetime of a scan.
package filter

import (
	"strings"
)

// Probe is the classification evidence the walker gathers for a
// directory during its parent's enumeration - cheap to obtain from the
// same OS call that yields the name, so the filter never needs its own
// stat.
type Probe struct {
	// IsReparsePoint is true if the directory is a symlink or NTFS
	// junction.
	IsReparsePoint bool

	// Hidden is true if the attribute set marks the directory hidden.
	Hidden bool

	// System is true if the attribute set marks the directory system.
	System bool
}

// Decision is the outcome of consulting a Filter.
type Decision int

const (
	// Walk means the directory should be enumerated normally.
	Walk Decision = iota

	// SkipSymlink means the directory is a reparse point: the parent
	// still records it as a child with is_symlink_target_skipped set,
	// but its subtree is never enumerated.
	SkipSymlink

	// SkipSilent means the directory matches the always-skip set or
	// fails the hidden/system check: it is excluded with no record at
	// all.
	SkipSilent
)

// defaultSkipNames is the always-skip set applied regardless of admin
// mode.
var defaultSkipNames = []string{
	"System Volume Information",
	"$Recycle.Bin",
	".git",
}

// nonAdminSkipSuffixes is appended to the always-skip set when Options.Admin
// is false. Unlike defaultSkipNames these match as path suffixes, not bare
// terminal names, since they identify a location rather than a name that
// might recur anywhere in the tree.
var nonAdminSkipSuffixes = []string{
	`Windows\WinSxS`,
	`Windows\System32`,
	`Windows\Temp`,
}

// Options configures a Filter. It is immutable once passed to New.
type Options struct {
	// Admin disables the extra non-admin skip suffixes (Windows system
	// directories that are noisy or unreadable without elevation).
	Admin bool

	// Hidden, when false, causes hidden/system directories to be
	// skipped.
	Hidden bool

	// SkipExtra is additional terminal names (case-insensitive,
	// exact match) to always skip, layered on top of the default set.
	SkipExtra []string
}

// Filter is the built, immutable gate. Construct with New.
type Filter struct {
	hidden   bool
	names    map[string]struct{}
	suffixes []string
}

// New builds a Filter from opt. The returned Filter is safe for
// concurrent use by any number of walker workers.
func New(opt Options) *Filter {
	f := &Filter{
		hidden: opt.Hidden,
		names:  make(map[string]struct{}, len(defaultSkipNames)+len(opt.SkipExtra)),
	}

	for _, n := range defaultSkipNames {
		f.names[strings.ToUpper(n)] = struct{}{}
	}
	for _, n := range opt.SkipExtra {
		f.names[strings.ToUpper(n)] = struct{}{}
	}

	if !opt.Admin {
		f.suffixes = append(f.suffixes, nonAdminSkipSuffixes...)
	}

	return f
}

// Check applies the skip rules, in order, to the directory at path whose
// terminal name is name and whose classification is p.
func (f *Filter) Check(path, name string, p Probe) Decision {
	if p.IsReparsePoint {
		return SkipSymlink
	}

	if _, skip := f.names[strings.ToUpper(name)]; skip {
		return SkipSilent
	}
	for _, suf := range f.suffixes {
		if hasSuffixFold(path, suf) {
			return SkipSilent
		}
	}

	if !f.hidden && (p.Hidden || p.System) {
		return SkipSilent
	}

	return Walk
}

// hasSuffixFold reports whether s ends with suffix, case-insensitively,
// and either exactly or on a path-separator boundary - so
// `D:\Foo\Windows\System32` matches suffix `Windows\System32` but
// `D:\FooWindows\System32` does not.
func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	tail := s[len(s)-len(suffix):]
	if !strings.EqualFold(tail, suffix) {
		return false
	}
	if len(s) == len(suffix) {
		return true
	}
	sep := s[len(s)-len(suffix)-1]
	return sep == '\\' || sep == '/'
}
