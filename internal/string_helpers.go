package internal

import "strings"

// HasAnyOfPrefixes reports whether input starts with at least one prefix.
func HasAnyOfPrefixes(input string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(input, prefix) {
			return true
		}
	}

	return false
}

// TruncateMiddleEllipsis shortens input to at most maxLen bytes by replacing
// its middle with "...", keeping both ends readable.
func TruncateMiddleEllipsis(input string, maxLen int) string {
	const ellipsis = "..."
	if len(input) <= maxLen {
		return input
	}
	if maxLen <= len(ellipsis) {
		return input[:maxLen]
	}

	keep := maxLen - len(ellipsis)
	head := (keep + 1) / 2
	tail := keep - head
	return input[:head] + ellipsis + input[len(input)-tail:]
}
