package lectures

import (
	"fmt"

	"github.com/aura-lectures/backend/internal/models"
)

var difficulties = map[string]bool{"": true, "beginner": true, "intermediate": true, "advanced": true}

func defaultGeneration() models.GenerationOptions {
	return models.GenerationOptions{ShortNotes: true, DetailedNotes: true, Flashcards: true, Quiz: true}
}

func validateGeneration(o models.GenerationOptions) error {
	if !o.ShortNotes && !o.DetailedNotes && !o.Flashcards && !o.Quiz && !o.NarratedScript {
		return fmt.Errorf("at least one document must be requested")
	}
	p := o.Prefs()
	if !difficulties[p.Difficulty] {
		return fmt.Errorf("difficulty must be beginner, intermediate or advanced")
	}
	if p.TargetLengthMinutes < 0 || p.TargetLengthMinutes > 60 {
		return fmt.Errorf("target_length_minutes must be between 1 and 60")
	}
	if len(p.FocusTopics) > 10 {
		return fmt.Errorf("at most 10 focus topics")
	}
	return nil
}
