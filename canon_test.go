package ptree

import (
	"strings"
	"testing"
)

// s joins NTFS-style path segments with whatever this build's canonical
// separator is, so the expectations below hold both on a real Windows
// deployment (pathSep == `\`) and in the non-Windows dev/test fallback
// (pathSep == the host's native separator).
func s(segments ...string) string {
	return strings.Join(segments, pathSep)
}

func TestCanonPath(t *testing.T) {
	assert := newAsserter(t)

	root := s("C:", "") // "C:\" / "C:/"

	cases := []struct{ in, want string }{
		{"c:" + pathSep, "C:" + pathSep},
		{s("C:", "Users") + pathSep, s("C:", "Users")},
		{"c:/users/bob", s("C:", "users", "bob")},
		{root, root},
	}
	for _, c := range cases {
		got := CanonPath(c.in)
		assert(got == c.want, "CanonPath(%q) = %q, want %q", c.in, got, c.want)
	}
}

func TestIsVolumeRoot(t *testing.T) {
	assert := newAsserter(t)

	assert(IsVolumeRoot(s("C:", "")), "C:\\ should be a volume root")
	assert(!IsVolumeRoot(s("C:", "A")), "C:\\A should not be a volume root")
}

func TestSplitNameAndParentPath(t *testing.T) {
	assert := newAsserter(t)

	assert(SplitName(s("C:", "")) == "", "volume root name should be empty")
	assert(SplitName(s("C:", "A", "B")) == "B", "expected terminal name B")

	assert(ParentPath(s("C:", "")) == s("C:", ""), "volume root parent should be itself")
	assert(ParentPath(s("C:", "A")) == s("C:", ""), "expected parent of C:\\A to be C:\\")
	assert(ParentPath(s("C:", "A", "B")) == s("C:", "A"), "expected parent of C:\\A\\B to be C:\\A")
}

func TestJoinChild(t *testing.T) {
	assert := newAsserter(t)

	assert(JoinChild(s("C:", ""), "A") == s("C:", "A"), "volume root join mismatch")
	assert(JoinChild(s("C:", "A"), "B") == s("C:", "A", "B"), "nested join mismatch")
}
