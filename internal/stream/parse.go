package stream

import (
	"strconv"
	"strings"
)

// ParsePoint fills point from the whitespace separated tokens of line, left to
// right. Extraction is permissive: a token that is not entirely a decimal number
// contributes its longest numeric prefix, if any, and ends extraction. Positions
// that receive no value are zero. Tokens beyond len(point) are ignored.
func ParsePoint(line string, point []float64) {
	clear(point)

	fields := strings.Fields(line)
	for i := 0; i < len(point) && i < len(fields); i++ {
		tok := fields[i]
		n := numericPrefix(tok)
		if n == 0 {
			return
		}
		v, err := strconv.ParseFloat(tok[:n], 64)
		if err != nil {
			// Out of range: keep the saturated value ParseFloat reports.
			point[i] = v
			return
		}
		point[i] = v
		if n < len(tok) {
			return
		}
	}
}

// numericPrefix returns the length of the longest prefix of s that is a decimal
// floating point literal: [+-] digits [. digits] [(e|E) [+-] digits].
func numericPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits+frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
