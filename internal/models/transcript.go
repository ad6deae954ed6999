package models

import "strings"

// Segment is one timestamped span of recognized speech. Times are seconds.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// Transcript is the chronological output of a transcription adapter.
type Transcript struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// PlainText joins the trimmed, non-empty segment texts one per line.
func (t *Transcript) PlainText() string {
	var b strings.Builder
	for _, seg := range t.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String()
}
