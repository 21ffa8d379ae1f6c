package utils

import "strings"

// Mask masks a sensitive string for display, showing only first and last few characters.
// E.g., "ghp_abcdefgh1234" -> "ghp_****1234"
func Mask(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// FormatIdentity renders a git identity the way git prints author lines.
func FormatIdentity(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	switch {
	case name == "" && email == "":
		return "(unset)"
	case email == "":
		return name
	case name == "":
		return "<" + email + ">"
	default:
		return name + " <" + email + ">"
	}
}
