// Package generation derives study documents (notes, flashcards, quiz, narrated
// script) from a lecture transcript.
package generation

import (
	"context"

	"go.uber.org/zap"

	"github.com/aura-lectures/backend/config"
	"github.com/aura-lectures/backend/internal/models"
)

// Generator produces the documents selected in opts. Fields for documents that
// were not requested stay nil.
type Generator interface {
	Name() string
	Generate(ctx context.Context, t *models.Transcript, opts models.GenerationOptions) (*models.GenerationResult, error)
}

// Select walks the providers in priority order and returns an LLM generator for the
// first one with a key. With no keys configured it returns the stub.
func Select(cfg config.GenerationConfig, logger *zap.Logger) Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, p := range cfg.Providers {
		if p.APIKey == "" {
			continue
		}
		logger.Info("generation provider selected", zap.String("provider", p.Name), zap.String("model", p.Model))
		return NewLLM(NewClient(Config{
			Name:           p.Name,
			APIKey:         p.APIKey,
			BaseURL:        p.BaseURL,
			Model:          p.Model,
			TimeoutSeconds: cfg.TimeoutSeconds,
		}))
	}
	logger.Info("no generation provider configured, using stub")
	return Stub{}
}
