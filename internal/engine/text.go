package engine

import "strings"

// truncateRunes caps s at n runes. Limits are enforced server-side no
// matter what the client validated.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func sanitizeText(s string, max int) string {
	return truncateRunes(strings.TrimSpace(s), max)
}
