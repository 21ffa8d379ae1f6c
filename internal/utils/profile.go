package utils

import "strings"

// IsValidHostAlias reports whether alias can be used as an ssh Host alias.
// Patterns and whitespace would change the meaning of the generated block.
func IsValidHostAlias(alias string) bool {
	if alias == "" || len(alias) > 253 {
		return false
	}
	return !strings.ContainsAny(alias, " \t\r\n*?!,")
}

// IsValidEmail performs the minimal check git itself tolerates: a non-empty
// local part and domain around a single '@', no angle brackets or newlines.
func IsValidEmail(email string) bool {
	if strings.ContainsAny(email, "<>\r\n") {
		return false
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	return !strings.Contains(domain, "@")
}

// IsSafeConfigValue rejects values that would break a single-line config entry.
func IsSafeConfigValue(value string) bool {
	return !strings.ContainsAny(value, "\r\n\x00")
}
