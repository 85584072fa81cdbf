// canon.go - canonical NTFS path handling
//
// Licensing Terms: GPLv2

package ptree

import (
	"path/filepath"
	"strings"
)

// pathSep is the path separator this build treats as canonical. On a
// real deployment (Windows, the only platform with an NTFS volume to
// walk) this is '\'. Off Windows it follows the host's native separator
// instead, so that the non-Windows enumeration fallback
// (walk/platform_other.go) can be exercised against real, nested
// filesystem fixtures in tests without every join silently producing an
// unopenable path.
var pathSep = string(filepath.Separator)

// CanonPath normalizes p into the canonical form the rest of ptree
// assumes everywhere: uppercase volume letter, pathSep separators, no
// trailing separator except at the volume root ("C:\").
func CanonPath(p string) string {
	other := "/"
	if pathSep == "/" {
		other = `\`
	}
	p = strings.ReplaceAll(p, other, pathSep)

	if len(p) >= 2 && p[1] == ':' {
		p = strings.ToUpper(p[:1]) + p[1:]
	}

	for len(p) > 3 && strings.HasSuffix(p, pathSep) {
		p = p[:len(p)-1]
	}

	// collapse doubled separators left over from the substitution above,
	// except the leading "\\" of a UNC path.
	doubled := pathSep + pathSep
	for strings.Contains(p[min(2, len(p)):], doubled) {
		head := p[:min(2, len(p))]
		p = head + strings.ReplaceAll(p[min(2, len(p)):], doubled, pathSep)
	}

	return p
}

// IsVolumeRoot returns true if p is a bare volume root, e.g. "C:\".
func IsVolumeRoot(p string) bool {
	return len(p) == 3 && p[1] == ':' && p[2] == pathSep[0]
}

// JoinChild joins a canonical parent path with a child's terminal name.
func JoinChild(parent, name string) string {
	if IsVolumeRoot(parent) {
		return parent + name
	}
	return parent + pathSep + name
}

// SplitName returns the terminal component of a canonical path; empty
// string for the volume root, which has no name of its own.
func SplitName(p string) string {
	if IsVolumeRoot(p) {
		return ""
	}
	i := strings.LastIndex(p, pathSep)
	if i < 0 {
		return p
	}
	return p[i+1:]
}

// ParentPath returns the canonical path of p's parent; it returns p
// unchanged if p is already the volume root.
func ParentPath(p string) string {
	if IsVolumeRoot(p) {
		return p
	}
	i := strings.LastIndex(p, pathSep)
	if i <= 2 {
		// parent is the volume root, e.g. "C:\A" -> "C:\"
		return p[:3]
	}
	return p[:i]
}
