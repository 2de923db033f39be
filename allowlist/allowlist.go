package allowlist

import "strings"

type (
	// PrefixSet - ordered, immutable set of allowed type name prefixes.
	// Zero value is a valid empty set which denies everything.
	PrefixSet struct {
		prefixes []string
	}
)

// NewPrefixSet - build PrefixSet from prefixes (defensive copy, order preserved, duplicates kept).
func NewPrefixSet(prefixes ...string) PrefixSet {
	cp := make([]string, len(prefixes))
	copy(cp, prefixes)

	return PrefixSet{prefixes: cp}
}

// Prefixes - copy of the prefixes in original order.
func (s PrefixSet) Prefixes() []string {
	cp := make([]string, len(s.prefixes))
	copy(cp, s.prefixes)

	return cp
}

// Len - number of prefixes (duplicates counted).
func (s PrefixSet) Len() int {
	return len(s.prefixes)
}

// Allowed - true iff some prefix of allowed is a literal case-sensitive prefix of typeName.
// Matching is a raw string prefix test, NOT namespace aware: prefix "a/b.Tok" matches
// type "a/b.Token" too. End a prefix with "/" or "." to scope it to a package.
// Empty set denies everything. Pure function, safe for concurrent use.
func Allowed(typeName string, allowed PrefixSet) bool {
	for _, p := range allowed.prefixes {
		if strings.HasPrefix(typeName, p) {
			return true
		}
	}

	return false
}
