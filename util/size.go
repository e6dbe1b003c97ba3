// Package util holds small helpers shared by config and HTTP code.
package util

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	kb = 1024
	mb = 1024 * kb
	gb = 1024 * mb
)

// ParseSize parses a size such as "100MB", "512KB", "2GB" or "1024" into
// bytes. Empty, malformed or negative input yields defaultBytes.
func ParseSize(s string, defaultBytes int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	multiplier := int64(1)
	for _, u := range []struct {
		suffix string
		size   int64
	}{{"GB", gb}, {"MB", mb}, {"KB", kb}, {"B", 1}} {
		if strings.HasSuffix(s, u.suffix) {
			multiplier = u.size
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			break
		}
	}
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil || val < 0 {
		return defaultBytes
	}
	return val * multiplier
}

// FormatSize renders n in the largest unit that divides it exactly, so
// FormatSize(ParseSize("100MB", 0)) == "100MB".
func FormatSize(n int64) string {
	switch {
	case n >= gb && n%gb == 0:
		return fmt.Sprintf("%dGB", n/gb)
	case n >= mb && n%mb == 0:
		return fmt.Sprintf("%dMB", n/mb)
	case n >= kb && n%kb == 0:
		return fmt.Sprintf("%dKB", n/kb)
	default:
		return fmt.Sprintf("%dB", n)
	}
}

// MaskSecret keeps the first visiblePrefix bytes of s for display in the
// startup summary. Short values are fully masked.
func MaskSecret(s string, visiblePrefix int) string {
	if len(s) <= visiblePrefix {
		return "***"
	}
	return s[:visiblePrefix] + "***"
}
