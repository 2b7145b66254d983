package util

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// ParseFloatOK parses a finite float. NaN, ±Inf, empty and malformed input all yield false.
func ParseFloatOK(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !IsFinite(v) {
		return 0, false
	}
	return v, true
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsDisabled reports whether a toggle value means "off" (off, 0, false; case-insensitive).
func IsDisabled(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "0", "false":
		return true
	default:
		return false
	}
}

// Tokens splits s into lower-cased alphanumeric words.
func Tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ContainsAllTokens reports whether every token of needle occurs in haystack.
func ContainsAllTokens(haystack, needle string) bool {
	want := Tokens(needle)
	if len(want) == 0 {
		return false
	}
	have := make(map[string]struct{})
	for _, t := range Tokens(haystack) {
		have[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}
