package subtitle

import (
	"fmt"
	"strings"
)

// Format is a subtitle file format.
type Format string

// Supported formats.
const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// ParseFormat maps a request value to a Format. Empty means SRT.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatSRT:
		return FormatSRT, nil
	case FormatVTT:
		return FormatVTT, nil
	default:
		return "", fmt.Errorf("unsupported subtitle format %q", s)
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	if f == FormatVTT {
		return ".vtt"
	}
	return ".srt"
}

// ContentType returns the MIME type used when serving inline text.
func (f Format) ContentType() string {
	if f == FormatVTT {
		return "text/vtt; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}
