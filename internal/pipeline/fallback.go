package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aura-lectures/backend/internal/generation"
	"github.com/aura-lectures/backend/internal/models"
)

// fallbackGenerator tries the primary generator once and, on any error or panic,
// returns the stub output instead. There are no further retries.
type fallbackGenerator struct {
	primary generation.Generator
	backup  generation.Generator
	logger  *zap.Logger
}

// WithFallback wraps primary so a provider failure degrades to stub documents.
// A stub primary is returned unwrapped.
func WithFallback(primary generation.Generator, logger *zap.Logger) generation.Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if primary == nil {
		return generation.Stub{}
	}
	if _, ok := primary.(generation.Stub); ok {
		return primary
	}
	return &fallbackGenerator{primary: primary, backup: generation.Stub{}, logger: logger}
}

func (f *fallbackGenerator) Name() string { return f.primary.Name() }

func (f *fallbackGenerator) Generate(ctx context.Context, t *models.Transcript, opts models.GenerationOptions) (*models.GenerationResult, error) {
	result, err := f.tryPrimary(ctx, t, opts)
	if err == nil && result != nil {
		return result, nil
	}
	f.logger.Warn("generation provider failed, using stub output",
		zap.String("provider", f.primary.Name()),
		zap.Error(err),
	)
	return f.backup.Generate(ctx, t, opts)
}

func (f *fallbackGenerator) tryPrimary(ctx context.Context, t *models.Transcript, opts models.GenerationOptions) (result *models.GenerationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("provider panic: %v", r)
		}
	}()
	return f.primary.Generate(ctx, t, opts)
}
