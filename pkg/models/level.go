package models

import "strings"

// Event severity levels. The numbering is shared with the push API and the
// subscription level thresholds.
const (
	LevelDebug    = 10
	LevelInfo     = 20
	LevelWarning  = 30
	LevelError    = 40
	LevelCritical = 50
)

var levelNames = map[int]string{
	LevelDebug:    "DEBUG",
	LevelInfo:     "INFO",
	LevelWarning:  "WARNING",
	LevelError:    "ERROR",
	LevelCritical: "CRITICAL",
}

// Level match operators accepted on subscriptions.
const (
	LevelMatchEqual   = "e"
	LevelMatchGreater = "g"
	LevelMatchLess    = "l"
	LevelMatchGE      = "ge"
	LevelMatchLE      = "le"
)

// LevelName returns the canonical name for a severity level, or "" for an
// unknown value.
func LevelName(level int) string {
	return levelNames[level]
}

// IsValidLevel reports whether level is one of the five defined severities.
func IsValidLevel(level int) bool {
	_, ok := levelNames[level]
	return ok
}

// IsValidLevelMatch reports whether op is a known level match operator.
func IsValidLevelMatch(op string) bool {
	switch op {
	case LevelMatchEqual, LevelMatchGreater, LevelMatchLess, LevelMatchGE, LevelMatchLE:
		return true
	}
	return false
}

// ParseLevel converts a push "level" value into a severity. Integers 10-50
// are accepted as-is, strings are matched by their first letter
// (d/i/w/e/c, case-insensitive). Anything else defaults to INFO.
func ParseLevel(v interface{}) int {
	switch level := v.(type) {
	case int:
		if IsValidLevel(level) {
			return level
		}
	case float64:
		if IsValidLevel(int(level)) {
			return int(level)
		}
	case string:
		return ParseLevelString(level)
	}
	return LevelInfo
}

// ParseLevelString maps a textual level alias to a severity, defaulting to
// INFO for anything unrecognized.
func ParseLevelString(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelInfo
	}
	switch s[0] {
	case 'd':
		return LevelDebug
	case 'i':
		return LevelInfo
	case 'w':
		return LevelWarning
	case 'e':
		return LevelError
	case 'c':
		return LevelCritical
	}
	return LevelInfo
}
