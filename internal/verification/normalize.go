package verification

import "strings"

// Normalize lowercases s, drops every rune outside [a-z0-9/ ] and collapses
// runs of spaces. Line breaks and tabs are dropped rather than turned into
// spaces. Normalize is idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(s))

	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r == ' ':
			space = sb.Len() > 0
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '/':
			if space {
				sb.WriteByte(' ')
				space = false
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// NormalizePtr normalizes *s, treating nil as empty.
func NormalizePtr(s *string) string {
	if s == nil {
		return ""
	}
	return Normalize(*s)
}
