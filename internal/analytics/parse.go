package analytics

import (
	"strconv"
	"strings"
	"unicode"
)

// parseInt reads the leading integer of s the way form input is usually read:
// leading space is skipped, the longest numeric prefix is used ("70kg" -> 70, "5.5" -> 5),
// a 0x prefix switches to hex, and anything without a numeric prefix is 0.
func parseInt(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	sign := 1
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}

	base := 10
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return 0
	}

	n, err := strconv.ParseInt(s[:end], base, 64)
	if err != nil {
		return 0
	}
	return sign * int(n)
}

// parseFloat reads the leading decimal number of s ("72.5 kg" -> 72.5, ".5" -> 0.5, "1e2x" -> 100).
// Strings without a numeric prefix are 0.
func parseFloat(s string) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}

	digits := 0
	for end < len(s) && isDigit(s[end], 10) {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end], 10) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}

	// exponent only counts when followed by digits
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		expDigits := exp
		for expDigits < len(s) && isDigit(s[expDigits], 10) {
			expDigits++
		}
		if expDigits > exp {
			end = expDigits
		}
	}

	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		// out of range
		return 0
	}
	return f
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16:
		return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	default:
		return false
	}
}
