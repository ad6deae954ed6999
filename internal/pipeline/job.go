// Package pipeline runs uploaded lectures through transcription, document
// generation and optional narration, one job at a time, persisting the lecture
// status after every stage.
package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aura-lectures/backend/internal/models"
)

// Stage names a pipeline step.
type Stage string

const (
	StageTranscription Stage = "transcription"
	StageGeneration    Stage = "generation"
	StageSynthesis     Stage = "synthesis"
)

// Job is one pipeline run for a single lecture. It lives only in memory.
type Job struct {
	ID         string
	LectureID  uuid.UUID
	CourseCode string
	AudioRef   string
	Generation models.GenerationOptions
	Synthesis  models.SynthesisOptions
}

// StageError records which stage failed a job.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// persistError marks a failed status write. Those are fatal to the process.
type persistError struct {
	status models.LectureStatus
	err    error
}

func (e *persistError) Error() string {
	return fmt.Sprintf("persist status %s: %v", e.status, e.err)
}

func (e *persistError) Unwrap() error { return e.err }
