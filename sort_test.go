package ptree

import "testing"

func TestSortNamesCaseInsensitive(t *testing.T) {
	assert := newAsserter(t)

	names := []string{"banana", "Apple", "cherry", "apple2"}
	SortNames(names)

	want := []string{"Apple", "apple2", "banana", "cherry"}
	for i := range want {
		assert(names[i] == want[i], "position %d: got %q want %q", i, names[i], want[i])
	}
}

func TestSortNamesAboveParallelThreshold(t *testing.T) {
	assert := newAsserter(t)

	n := ParallelSortThreshold + 50
	names := make([]string, n)
	for i := range names {
		names[i] = string(rune('z'-(i%26))) + string(rune('a'+(i/26)%26))
	}

	SortNames(names)

	for i := 1; i < len(names); i++ {
		assert(!less(names[i], names[i-1]), "names not sorted at index %d: %q before %q", i, names[i-1], names[i])
	}
}
