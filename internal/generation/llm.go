package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/aura-lectures/backend/internal/models"
)

// Completer sends one prompt and returns the model reply.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLM generates documents with one prompt per requested document.
type LLM struct {
	client Completer
}

// NewLLM wraps a chat completion client.
func NewLLM(client Completer) *LLM {
	return &LLM{client: client}
}

// Name implements Generator.
func (g *LLM) Name() string { return g.client.Name() }

// Generate implements Generator. The first failing document aborts the whole bundle.
func (g *LLM) Generate(ctx context.Context, t *models.Transcript, opts models.GenerationOptions) (*models.GenerationResult, error) {
	if t == nil {
		return nil, errors.New("generate: transcript required")
	}
	transcript := FormatTranscript(t.Segments)
	prefs := withDefaults(opts.Prefs())
	res := &models.GenerationResult{}

	if opts.ShortNotes {
		notes, err := g.client.Complete(ctx, shortNotesPrompt(transcript, prefs))
		if err != nil {
			return nil, fmt.Errorf("short notes: %w", err)
		}
		res.ShortNotes = &notes
	}
	if opts.DetailedNotes {
		notes, err := g.client.Complete(ctx, detailedNotesPrompt(transcript, prefs))
		if err != nil {
			return nil, fmt.Errorf("detailed notes: %w", err)
		}
		res.DetailedNotes = &notes
	}
	if opts.Flashcards {
		reply, err := g.client.Complete(ctx, flashcardsPrompt(transcript))
		if err != nil {
			return nil, fmt.Errorf("flashcards: %w", err)
		}
		var set models.FlashcardSet
		if err := DecodeLLMJSON(reply, &set); err != nil {
			return nil, fmt.Errorf("flashcards: parse payload: %w", err)
		}
		if set.Total == 0 {
			set.Total = len(set.Flashcards)
		}
		res.Flashcards = &set
	}
	if opts.Quiz {
		reply, err := g.client.Complete(ctx, quizPrompt(transcript))
		if err != nil {
			return nil, fmt.Errorf("quiz: %w", err)
		}
		var quiz models.Quiz
		if err := DecodeLLMJSON(reply, &quiz); err != nil {
			return nil, fmt.Errorf("quiz: parse payload: %w", err)
		}
		if quiz.Total == 0 {
			quiz.Total = len(quiz.Questions)
		}
		res.Quiz = &quiz
	}
	if opts.NarratedScript {
		script, err := g.client.Complete(ctx, scriptPrompt(transcript, prefs))
		if err != nil {
			return nil, fmt.Errorf("narrated script: %w", err)
		}
		res.NarratedScript = &script
	}
	return res, nil
}
