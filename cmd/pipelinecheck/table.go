package main

import (
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/aura-lectures/backend/internal/models"
)

func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

func renderHistory(changes []statusChange) string {
	rows := make([][]string, 0, len(changes))
	var start time.Time
	for i, c := range changes {
		if i == 0 {
			start = c.at
		}
		rows = append(rows, []string{string(c.status), c.at.Sub(start).Round(time.Millisecond).String()})
	}
	return renderTable([]string{"Status", "Elapsed"}, rows)
}

func renderArtifacts(root string, l models.Lecture) string {
	entries := []struct{ kind, p string }{
		{"transcript", l.TranscriptJSONPath},
		{"transcript_text", l.TranscriptTextPath},
		{"notes_short", l.ShortNotesPath},
		{"notes_detailed", l.DetailedNotesPath},
		{"flashcards", l.FlashcardsPath},
		{"quiz", l.QuizPath},
		{"script", l.ScriptPath},
		{"audio", l.NarratedAudioPath},
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		if e.p == "" {
			continue
		}
		rows = append(rows, []string{e.kind, filepath.Join(root, filepath.FromSlash(e.p))})
	}
	return renderTable([]string{"Artifact", "Path"}, rows)
}
