// Package synthesis narrates a generated script. Synthesis is best effort: the
// synthesizers swallow provider errors and report that no audio was produced.
package synthesis

import (
	"context"

	"go.uber.org/zap"

	"github.com/aura-lectures/backend/config"
	"github.com/aura-lectures/backend/internal/models"
)

// Synthesizer returns narrated audio for script, or ok=false when nothing was produced.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, script string, opts models.SynthesisOptions) (audio []byte, ok bool)
}

// Disabled never produces audio.
type Disabled struct{}

// Name implements Synthesizer.
func (Disabled) Name() string { return "disabled" }

// Synthesize implements Synthesizer.
func (Disabled) Synthesize(context.Context, string, models.SynthesisOptions) ([]byte, bool) {
	return nil, false
}

// Select returns the ElevenLabs client when an API key is configured.
func Select(cfg config.SynthesisConfig, logger *zap.Logger) Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIKey == "" {
		logger.Info("speech synthesis not configured")
		return Disabled{}
	}
	return NewElevenLabs(cfg, logger)
}
