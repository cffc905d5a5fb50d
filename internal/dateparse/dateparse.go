// Package dateparse resolves the date expressions accepted by CLI date
// flags. Parsing is layered:
//  1. Compact offset (+1d, -2w, +3m)
//  2. Absolute forms (2006-01-02, RFC3339)
//  3. Natural language ("tomorrow", "next friday")
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// compactOffsetRe matches compact offset patterns: [+-]?(\d+)([dwmy])
// Examples: +1d, -2w, 3m, 1y
var compactOffsetRe = regexp.MustCompile(`^([+-]?)(\d+)([dwmy])$`)

// ParseCompactOffset parses compact offset syntax and returns the shifted
// time.
//
// Units:
//   - d = days
//   - w = weeks
//   - m = months
//   - y = years
//
// Examples:
//   - "+1d" -> now + 1 day
//   - "-2w" -> now - 2 weeks
//   - "3m"  -> now + 3 months (no sign = positive)
//
// Returns an error if the input does not match the compact offset pattern.
func ParseCompactOffset(s string, now time.Time) (time.Time, error) {
	matches := compactOffsetRe.FindStringSubmatch(s)
	if matches == nil {
		return time.Time{}, fmt.Errorf("not a compact offset: %q", s)
	}

	sign := matches[1]
	amountStr := matches[2]
	unit := matches[3]

	amount, err := strconv.Atoi(amountStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid offset amount: %q", amountStr)
	}
	if sign == "-" {
		amount = -amount
	}

	return applyOffset(now, amount, unit), nil
}

func applyOffset(base time.Time, amount int, unit string) time.Time {
	switch unit {
	case "d":
		return base.AddDate(0, 0, amount)
	case "w":
		return base.AddDate(0, 0, amount*7)
	case "m":
		return base.AddDate(0, amount, 0)
	case "y":
		return base.AddDate(amount, 0, 0)
	default:
		return base
	}
}

// IsCompactOffset returns true if the string matches compact offset syntax.
func IsCompactOffset(s string) bool {
	return compactOffsetRe.MatchString(s)
}

// Parse resolves a date expression against the reference time, trying each
// layer in order: compact offset, absolute timestamp, natural language.
func Parse(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date expression")
	}

	if IsCompactOffset(s) {
		return ParseCompactOffset(s, now)
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	return ParseNaturalLanguage(s, now)
}

// Day resolves a date expression to a calendar day: the parsed time
// truncated to UTC midnight. Work dates and schedule dates are stored this
// way, so every date flag funnels through here.
func Day(s string, now time.Time) (time.Time, error) {
	t, err := Parse(s, now)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
