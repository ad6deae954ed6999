// Package transcription turns an uploaded recording into a timestamped transcript.
package transcription

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/aura-lectures/backend/config"
	"github.com/aura-lectures/backend/internal/models"
)

// Transcriber produces a transcript for the recording stored at audioPath.
// Implementations fail with an error rather than return an empty transcript.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) (*models.Transcript, error)
}

// AudioSource opens stored recordings.
type AudioSource interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Select returns the Whisper client when an API key is configured, the stub otherwise.
func Select(cfg config.TranscriptionConfig, audio AudioSource, logger *zap.Logger) Transcriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIKey == "" {
		logger.Info("transcription provider not configured, using stub")
		return Stub{}
	}
	logger.Info("transcription provider selected", zap.String("provider", "openai"), zap.String("model", cfg.Model))
	return NewWhisper(cfg, audio)
}
