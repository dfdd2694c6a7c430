package log

import "strings"

// RedactString keeps the first and last four characters of s visible.
func RedactString(s string) string {
	const visible = 4
	if len(s) <= visible*2 {
		return strings.Repeat("*", len(s))
	}
	return s[:visible] + strings.Repeat("*", len(s)-visible*2) + s[len(s)-visible:]
}
