package render

import (
	"fmt"
	"strings"
)

// Severity is the bucket derived from a churn score.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityFor maps a churn score onto its severity class.
func SeverityFor(score int) Severity {
	switch {
	case score >= 80:
		return SeverityCritical
	case score >= 60:
		return SeverityHigh
	case score >= 40:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// badgeClass normalizes a free-text severity or urgency label into a known
// class so view layers never key styles off raw server text.
func badgeClass(label string) string {
	switch s := Severity(strings.ToLower(strings.TrimSpace(label))); s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return string(s)
	default:
		return "unknown"
	}
}

// FormatDuration renders a call length in seconds, e.g. "2 min 5 sec".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	if mins := seconds / 60; mins > 0 {
		return fmt.Sprintf("%d min %d sec", mins, seconds%60)
	}
	return fmt.Sprintf("%d sec", seconds)
}
