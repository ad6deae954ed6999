package transcription

import (
	"context"

	"github.com/aura-lectures/backend/internal/models"
)

// Stub returns a fixed transcript so the pipeline runs without a provider.
type Stub struct{}

// Name implements Transcriber.
func (Stub) Name() string { return "stub" }

// Transcribe ignores the recording and returns the same transcript every time.
func (Stub) Transcribe(ctx context.Context, audioPath string) (*models.Transcript, error) {
	return &models.Transcript{
		Language: "en",
		Segments: []models.Segment{
			{Start: 0, End: 5, Text: "Transcription is not configured for this server."},
			{Start: 5, End: 12, Text: "Set OPENAI_API_KEY to enable real speech-to-text for uploaded lectures."},
			{Start: 12, End: 20, Text: "This placeholder transcript lets the notes, flashcards and quiz stages run end to end."},
		},
	}, nil
}
