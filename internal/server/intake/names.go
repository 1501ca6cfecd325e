package intake

import "strings"

// SplitName splits a full name at its first space. Without a space the whole
// value is the first name; the remainder keeps its inner spaces.
func SplitName(full string) (first, last string) {
	first, last, _ = strings.Cut(strings.TrimSpace(full), " ")
	return first, strings.TrimSpace(last)
}

// MaskSSN reduces an SSN to the display token XXX-XX-1234. Blank input
// stays blank.
func MaskSSN(ssn string) string {
	d := digits(ssn)
	if len(d) < 4 {
		return ""
	}
	return "XXX-XX-" + d[len(d)-4:]
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
