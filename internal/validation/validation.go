// Package validation holds the input rules shared by the services.
package validation

import (
	"html"
	"net/mail"
	"strings"
)

// IsBlank reports whether s is empty or only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsEmail reports whether s is a single bare address such as buyer@example.com.
// Display names, angle brackets and dotless domains are rejected.
func IsEmail(s string) bool {
	if s == "" || len(s) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		return false
	}
	domain := s[at+1:]
	return strings.Contains(domain, ".") &&
		!strings.HasPrefix(domain, ".") &&
		!strings.HasSuffix(domain, ".")
}

// IsEscaped reports whether s is unchanged by HTML escaping, i.e. it holds no
// <, >, &, ' or " characters.
func IsEscaped(s string) bool {
	return html.EscapeString(s) == s
}
