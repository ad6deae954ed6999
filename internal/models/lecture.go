package models

import (
	"time"

	"github.com/google/uuid"
)

// LectureStatus is the processing state persisted on a lecture.
type LectureStatus string

// Lecture status lifecycle: uploaded -> transcribing -> transcribed -> generating -> (voiced) -> complete.
// failed is reachable from any non-terminal state.
const (
	LectureStatusUploaded     LectureStatus = "uploaded"
	LectureStatusTranscribing LectureStatus = "transcribing"
	LectureStatusTranscribed  LectureStatus = "transcribed"
	LectureStatusGenerating   LectureStatus = "generating"
	LectureStatusVoiced       LectureStatus = "voiced"
	LectureStatusComplete     LectureStatus = "complete"
	LectureStatusFailed       LectureStatus = "failed"
)

// InFlight reports whether a pipeline run currently owns the lecture.
func (s LectureStatus) InFlight() bool {
	return s != LectureStatusUploaded && !s.Terminal()
}

// Terminal reports whether the status ends a pipeline run.
func (s LectureStatus) Terminal() bool {
	return s == LectureStatusComplete || s == LectureStatusFailed
}

// Lecture is one uploaded recording and the artifacts derived from it.
type Lecture struct {
	ID                 uuid.UUID     `json:"id"`
	CourseID           uuid.UUID     `json:"course_id"`
	CourseCode         string        `json:"course_code"`
	Title              string        `json:"title"`
	AudioPath          string        `json:"audio_path"`
	Status             LectureStatus `json:"status"`
	ErrorMessage       *string       `json:"error_message,omitempty"`
	TranscriptJSONPath string        `json:"transcript_json_path,omitempty"`
	TranscriptTextPath string        `json:"transcript_text_path,omitempty"`
	ShortNotesPath     string        `json:"short_notes_path,omitempty"`
	DetailedNotesPath  string        `json:"detailed_notes_path,omitempty"`
	FlashcardsPath     string        `json:"flashcards_path,omitempty"`
	QuizPath           string        `json:"quiz_path,omitempty"`
	ScriptPath         string        `json:"script_path,omitempty"`
	NarratedAudioPath  string        `json:"narrated_audio_path,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// LectureUpdate is a partial update of a lecture record. Status is always written;
// nil pointer fields are left untouched. ClearError nulls the error message and
// ClearArtifacts nulls every derived artifact path before the update's own paths apply.
type LectureUpdate struct {
	Status             LectureStatus
	ErrorMessage       *string
	ClearError         bool
	ClearArtifacts     bool
	TranscriptJSONPath *string
	TranscriptTextPath *string
	ShortNotesPath     *string
	DetailedNotesPath  *string
	FlashcardsPath     *string
	QuizPath           *string
	ScriptPath         *string
	NarratedAudioPath  *string
}

// Apply copies the update onto l. Record stores that keep lectures in memory use it.
func (u LectureUpdate) Apply(l *Lecture) {
	l.Status = u.Status
	if u.ClearError {
		l.ErrorMessage = nil
	}
	if u.ErrorMessage != nil {
		msg := *u.ErrorMessage
		l.ErrorMessage = &msg
	}
	if u.ClearArtifacts {
		l.TranscriptJSONPath, l.TranscriptTextPath = "", ""
		l.ShortNotesPath, l.DetailedNotesPath = "", ""
		l.FlashcardsPath, l.QuizPath = "", ""
		l.ScriptPath, l.NarratedAudioPath = "", ""
	}
	setIf(&l.TranscriptJSONPath, u.TranscriptJSONPath)
	setIf(&l.TranscriptTextPath, u.TranscriptTextPath)
	setIf(&l.ShortNotesPath, u.ShortNotesPath)
	setIf(&l.DetailedNotesPath, u.DetailedNotesPath)
	setIf(&l.FlashcardsPath, u.FlashcardsPath)
	setIf(&l.QuizPath, u.QuizPath)
	setIf(&l.ScriptPath, u.ScriptPath)
	setIf(&l.NarratedAudioPath, u.NarratedAudioPath)
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// LectureStatusView is what polling clients read.
type LectureStatusView struct {
	Status       LectureStatus `json:"status"`
	ErrorMessage *string       `json:"error_message"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// StatusView returns the polling view of the lecture.
func (l *Lecture) StatusView() LectureStatusView {
	return LectureStatusView{Status: l.Status, ErrorMessage: l.ErrorMessage, UpdatedAt: l.UpdatedAt}
}
