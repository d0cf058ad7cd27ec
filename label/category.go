package label

import "strings"

// Categories is an MLS category set, the c0,c1,c2.c5 part of an SELinux
// level string. Category ranges (c2.c5) are expanded to individual members
// since the sets involved are small and set difference is the only
// operation this package needs.
type Categories map[int]struct{}

// ParseCategories extracts the category set from a full level string, e.g.
// "s0:c0,c2.c5". Levels without a category component (just a sensitivity,
// "s0") yield an empty set.
func ParseCategories(level string) Categories {
	fields := strings.Split(level, ":")
	if len(fields) < 2 {
		return Categories{}
	}

	result := Categories{}
	for _, c := range strings.Split(fields[1], ",") {
		if c == "" {
			continue
		}
		r := strings.SplitN(c, ".", 2)
		lo := atoiCategory(r[0])
		if len(r) == 1 {
			result[lo] = struct{}{}
			continue
		}
		hi := atoiCategory(r[1])
		for i := lo; i < hi; i++ {
			result[i] = struct{}{}
		}
	}
	return result
}

// atoiCategory parses a single "cNN" token, dropping the leading "c". A
// malformed token parses as 0 rather than erroring: category strings here
// always come from labels this package itself constructed or from the
// kernel, never from untrusted input.
func atoiCategory(tok string) int {
	if len(tok) < 2 {
		return 0
	}
	n := 0
	for _, r := range tok[1:] {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// Narrower reports whether need contains a category not present in have,
// i.e. whether need is NOT already narrower than or equal to have. It
// mirrors gulag's check_category: RelabelIfNarrower passes the run level as
// have and a file's current level as need, and relabels the file down to
// the run level only when this reports true.
func Narrower(have, need string) bool {
	haveCats := ParseCategories(have)
	needCats := ParseCategories(need)
	for c := range needCats {
		if _, ok := haveCats[c]; !ok {
			return true
		}
	}
	return false
}
