package publicip

import (
	"regexp"
	"strconv"
)

var dottedQuad = regexp.MustCompile(`^([0-9]{1,3})\.([0-9]{1,3})\.([0-9]{1,3})\.([0-9]{1,3})$`)

// IsValidIPv4 reports whether candidate is four dot-separated groups of one to
// three decimal digits.
//
// Stricter than a pattern-only check: every group must also be at most 255,
// so "999.999.999.999" is rejected. Leading zeros such as "010" are allowed.
func IsValidIPv4(candidate string) bool {
	m := dottedQuad.FindStringSubmatch(candidate)
	if m == nil {
		return false
	}
	for _, group := range m[1:] {
		n, err := strconv.Atoi(group)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}
