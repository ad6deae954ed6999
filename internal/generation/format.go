package generation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aura-lectures/backend/internal/models"
)

// FormatTimestamp renders seconds as MM:SS. Minutes are not wrapped at the hour.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Citation renders a time range as (MM:SS–MM:SS).
func Citation(start, end float64) string {
	return "(" + FormatTimestamp(start) + "–" + FormatTimestamp(end) + ")"
}

// FormatTranscript renders non-empty segments as "[MM:SS-MM:SS] text" lines for prompts.
func FormatTranscript(segments []models.Segment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s-%s] %s", FormatTimestamp(seg.Start), FormatTimestamp(seg.End), text))
	}
	return strings.Join(lines, "\n")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
