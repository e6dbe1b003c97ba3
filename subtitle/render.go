package subtitle

import (
	"fmt"
	"math"
	"strings"

	"github.com/kbukum/whisper-srt/transcription"
)

// Render writes segments in the given format. An empty segment list yields
// an empty SRT document, or a bare header for VTT.
func Render(f Format, segments []transcription.Segment) string {
	if f == FormatVTT {
		return renderVTT(segments)
	}
	return renderSRT(segments)
}

func renderSRT(segments []transcription.Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1,
			Timestamp(seg.Start, ','),
			Timestamp(seg.End, ','),
			strings.TrimSpace(seg.Text))
	}
	return b.String()
}

func renderVTT(segments []transcription.Segment) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, seg := range segments {
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n",
			Timestamp(seg.Start, '.'),
			Timestamp(seg.End, '.'),
			strings.TrimSpace(seg.Text))
	}
	return b.String()
}

// Timestamp formats seconds as HH:MM:SS<sep>mmm. Seconds are rounded to the
// microsecond before milliseconds are truncated, so 1.0005 renders as
// 00:00:01,000 and 2.9999996 as 00:00:03,000. Negative and NaN inputs
// render as zero.
func Timestamp(seconds float64, sep byte) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	micros := int64(math.Round(seconds * 1e6))
	ms := micros / 1000
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, sep, ms)
}
