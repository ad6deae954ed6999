package models

// GenerationPreferences tunes the generated documents.
type GenerationPreferences struct {
	Tone                string   `json:"tone,omitempty"`
	Difficulty          string   `json:"difficulty,omitempty"`
	TargetLengthMinutes int      `json:"target_length_minutes,omitempty"`
	FocusTopics         []string `json:"focus_topics,omitempty"`
}

// GenerationOptions selects which derivative documents to produce.
type GenerationOptions struct {
	ShortNotes     bool                   `json:"short_notes"`
	DetailedNotes  bool                   `json:"detailed_notes"`
	Flashcards     bool                   `json:"flashcards"`
	Quiz           bool                   `json:"quiz"`
	NarratedScript bool                   `json:"narrated_script"`
	Preferences    *GenerationPreferences `json:"preferences,omitempty"`
}

// Prefs returns the preferences, never nil.
func (o GenerationOptions) Prefs() GenerationPreferences {
	if o.Preferences == nil {
		return GenerationPreferences{}
	}
	return *o.Preferences
}

// SynthesisOptions controls the optional narrated-audio stage.
type SynthesisOptions struct {
	Enabled  bool   `json:"enabled"`
	VoiceID  string `json:"voice_id,omitempty"`
	TwoVoice bool   `json:"two_voice"`
}

// Flashcard is one study card.
type Flashcard struct {
	ID        int    `json:"id"`
	Front     string `json:"front"`
	Back      string `json:"back"`
	Timestamp string `json:"timestamp,omitempty"`
}

// FlashcardSet is the persisted flashcards.json document.
type FlashcardSet struct {
	Flashcards []Flashcard `json:"flashcards"`
	Total      int         `json:"total"`
}

// QuizQuestion is one multiple-choice question; Correct indexes Options.
type QuizQuestion struct {
	ID          int      `json:"id"`
	Type        string   `json:"type"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	Explanation string   `json:"explanation,omitempty"`
}

// Quiz is the persisted quiz.json document.
type Quiz struct {
	Questions []QuizQuestion `json:"questions"`
	Total     int            `json:"total"`
}

// GenerationResult holds only the documents that were requested.
type GenerationResult struct {
	ShortNotes     *string       `json:"short_notes,omitempty"`
	DetailedNotes  *string       `json:"detailed_notes,omitempty"`
	Flashcards     *FlashcardSet `json:"flashcards,omitempty"`
	Quiz           *Quiz         `json:"quiz,omitempty"`
	NarratedScript *string       `json:"narrated_script,omitempty"`
}
