package generation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aura-lectures/backend/internal/models"
)

const (
	sectionSize        = 10
	maxFlashcards      = 5
	flashcardMinChars  = 20
	maxQuizQuestions   = 3
	quizMinChars       = 30
	quizOptionChars    = 50
	scriptContentChars = 500
)

// Stub derives documents mechanically from the transcript. Its output depends only
// on the transcript and options, so it doubles as the fallback for failed providers.
type Stub struct{}

// Name implements Generator.
func (Stub) Name() string { return "stub" }

// Generate implements Generator. It never fails.
func (s Stub) Generate(ctx context.Context, t *models.Transcript, opts models.GenerationOptions) (*models.GenerationResult, error) {
	var segments []models.Segment
	if t != nil {
		segments = t.Segments
	}
	res := &models.GenerationResult{}
	if opts.ShortNotes {
		notes := StubShortNotes(segments)
		res.ShortNotes = &notes
	}
	if opts.DetailedNotes {
		notes := StubDetailedNotes(segments)
		res.DetailedNotes = &notes
	}
	if opts.Flashcards {
		cards := StubFlashcards(segments)
		res.Flashcards = &cards
	}
	if opts.Quiz {
		quiz := StubQuiz(segments)
		res.Quiz = &quiz
	}
	if opts.NarratedScript {
		script := StubScript(segments)
		res.NarratedScript = &script
	}
	return res, nil
}

// StubShortNotes emits one bullet per non-empty segment with its time range.
func StubShortNotes(segments []models.Segment) string {
	var b strings.Builder
	b.WriteString("# Short Notes\n\n")
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s %s\n", text, Citation(seg.Start, seg.End))
	}
	return b.String()
}

// StubDetailedNotes groups segments into sections of ten, each headed by its time range.
func StubDetailedNotes(segments []models.Segment) string {
	var b strings.Builder
	b.WriteString("# Detailed Notes\n")
	for i := 0; i < len(segments); i += sectionSize {
		end := i + sectionSize
		if end > len(segments) {
			end = len(segments)
		}
		window := segments[i:end]
		fmt.Fprintf(&b, "\n## Section %d %s\n\n", i/sectionSize+1, Citation(window[0].Start, window[len(window)-1].End))
		for _, seg := range window {
			text := strings.TrimSpace(seg.Text)
			if text == "" {
				continue
			}
			fmt.Fprintf(&b, "- [%s] %s\n", FormatTimestamp(seg.Start), text)
		}
	}
	return b.String()
}

// StubFlashcards turns the first five substantial segments into cards.
func StubFlashcards(segments []models.Segment) models.FlashcardSet {
	set := models.FlashcardSet{Flashcards: []models.Flashcard{}}
	for _, seg := range segments {
		if len(set.Flashcards) == maxFlashcards {
			break
		}
		text := strings.TrimSpace(seg.Text)
		if utf8.RuneCountInString(text) <= flashcardMinChars {
			continue
		}
		n := len(set.Flashcards) + 1
		set.Flashcards = append(set.Flashcards, models.Flashcard{
			ID:        n,
			Front:     fmt.Sprintf("Key Point %d", n),
			Back:      text,
			Timestamp: fmt.Sprintf("[%s-%s]", FormatTimestamp(seg.Start), FormatTimestamp(seg.End)),
		})
	}
	set.Total = len(set.Flashcards)
	return set
}

// StubQuiz builds up to three questions whose first option is always correct.
func StubQuiz(segments []models.Segment) models.Quiz {
	quiz := models.Quiz{Questions: []models.QuizQuestion{}}
	for _, seg := range segments {
		if len(quiz.Questions) == maxQuizQuestions {
			break
		}
		text := strings.TrimSpace(seg.Text)
		if utf8.RuneCountInString(text) <= quizMinChars {
			continue
		}
		n := len(quiz.Questions) + 1
		ts := FormatTimestamp(seg.Start)
		quiz.Questions = append(quiz.Questions, models.QuizQuestion{
			ID:       n,
			Type:     "multiple_choice",
			Question: fmt.Sprintf("Which statement matches the lecture at %s?", ts),
			Options: []string{
				truncateRunes(text, quizOptionChars),
				"This topic was not covered in the lecture",
				"The lecture states the opposite",
				"None of the above",
			},
			Correct:     0,
			Explanation: fmt.Sprintf("Stated in the lecture at [%s].", ts),
		})
	}
	quiz.Total = len(quiz.Questions)
	return quiz
}

// StubScript wraps the first 500 characters of the lecture in fixed intro and outro lines.
func StubScript(segments []models.Segment) string {
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			texts = append(texts, text)
		}
	}
	content := truncateRunes(strings.Join(texts, " "), scriptContentChars)

	var b strings.Builder
	b.WriteString("[INTRO MUSIC]\n\n")
	b.WriteString("Welcome back! Here is a quick recap of today's lecture.\n\n")
	b.WriteString("[MAIN CONTENT]\n\n")
	b.WriteString(content)
	b.WriteString("\n\n[OUTRO MUSIC]\n\n")
	b.WriteString("That's all for this recap. Thanks for listening, and see you next lecture!\n")
	return b.String()
}
