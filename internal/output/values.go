package output

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const NoLogs = "No logs available"

// FormatLogs joins log lines for display.
func FormatLogs(lines []string) string {
	if len(lines) == 0 {
		return NoLogs
	}
	return strings.Join(lines, "\n")
}

// MaskSecret keeps a short prefix of a secret so it can be told apart from others.
func MaskSecret(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "<none>"
	}
	if len(v) <= 8 {
		return strings.Repeat("*", len(v))
	}
	return v[:4] + strings.Repeat("*", 8)
}

// Timestamp renders t in UTC, or <none> for the zero time.
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return "<none>"
	}
	return t.UTC().Format(time.RFC3339)
}

// Ago renders a past time relative to now.
func Ago(t time.Time) string {
	if t.IsZero() {
		return "<none>"
	}
	return humanize.Time(t)
}

func Bytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

func Count(n int64) string { return humanize.Comma(n) }

func YesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
