package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-lectures/backend/internal/generation"
	"github.com/aura-lectures/backend/internal/models"
	"github.com/aura-lectures/backend/internal/synthesis"
	"github.com/aura-lectures/backend/internal/transcription"
	"github.com/aura-lectures/backend/pkg/storage"
)

// RecordStore persists lecture status. UpdateLecture always writes the status and
// bumps updated_at; it returns the updated record.
type RecordStore interface {
	UpdateLecture(ctx context.Context, id uuid.UUID, u models.LectureUpdate) (*models.Lecture, error)
}

// ArtifactWriter persists stage outputs and returns their paths.
type ArtifactWriter interface {
	WriteText(ctx context.Context, courseCode, lectureID, filename, content string) (string, error)
	WriteJSON(ctx context.Context, courseCode, lectureID, filename string, v any) (string, error)
	WriteBinary(ctx context.Context, courseCode, lectureID, filename string, data []byte) (string, error)
}

// StatusNotifier is told about every persisted status change.
type StatusNotifier interface {
	PublishStatus(ctx context.Context, lectureID uuid.UUID, view models.LectureStatusView) error
}

// Adapters are the external capabilities a job calls into.
type Adapters struct {
	Transcriber transcription.Transcriber
	Generator   generation.Generator
	Synthesizer synthesis.Synthesizer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProvisionalVoiced writes "voiced" once documents are stored and narration is
// about to run.
func WithProvisionalVoiced(enabled bool) Option {
	return func(o *Orchestrator) { o.provisionalVoiced = enabled }
}

// WithNotifier publishes each status write.
func WithNotifier(n StatusNotifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithFatalHandler replaces the handler for failed status writes. The default
// logs at fatal level, which exits the process.
func WithFatalHandler(fn func(error)) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.fatal = fn
		}
	}
}

// Orchestrator owns the in-memory job queue. Jobs run strictly in submission
// order and never concurrently.
type Orchestrator struct {
	store     RecordStore
	artifacts ArtifactWriter
	adapters  Adapters
	logger    *zap.Logger

	provisionalVoiced bool
	notifier          StatusNotifier
	fatal             func(error)

	mu       sync.Mutex
	queue    []Job
	draining bool
	idle     chan struct{}
	// owned counts queued plus running jobs per lecture.
	owned map[uuid.UUID]int
}

// New creates an orchestrator. The generator is wrapped with the stub fallback.
func New(store RecordStore, artifacts ArtifactWriter, adapters Adapters, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapters.Transcriber == nil {
		adapters.Transcriber = transcription.Stub{}
	}
	if adapters.Synthesizer == nil {
		adapters.Synthesizer = synthesis.Disabled{}
	}
	adapters.Generator = WithFallback(adapters.Generator, logger)

	idle := make(chan struct{})
	close(idle)
	o := &Orchestrator{
		store:     store,
		artifacts: artifacts,
		adapters:  adapters,
		logger:    logger,
		idle:      idle,
		owned:     make(map[uuid.UUID]int),
	}
	o.fatal = func(err error) {
		o.logger.Fatal("lecture status write failed", zap.Error(err))
	}
	for _, opt := range opts {
		opt(o)
	}
	logger.Info("pipeline ready",
		zap.String("transcriber", adapters.Transcriber.Name()),
		zap.String("generator", adapters.Generator.Name()),
		zap.String("synthesizer", adapters.Synthesizer.Name()),
	)
	return o
}

// Enqueue appends job to the queue and returns its id without waiting for it to run.
// A drain goroutine is started if none is active. Jobs for a lecture that already
// has one pending are still accepted; use TryEnqueue to refuse them.
func (o *Orchestrator) Enqueue(job Job) string {
	id, _ := o.enqueue(job, false)
	return id
}

// TryEnqueue is Enqueue unless the lecture already has a queued or running job,
// in which case it returns false and nothing is queued.
func (o *Orchestrator) TryEnqueue(job Job) (string, bool) {
	return o.enqueue(job, true)
}

// Queued reports whether the lecture has a job waiting or running.
func (o *Orchestrator) Queued(lectureID uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.owned[lectureID] > 0
}

func (o *Orchestrator) enqueue(job Job, exclusive bool) (string, bool) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	o.mu.Lock()
	if exclusive && o.owned[job.LectureID] > 0 {
		o.mu.Unlock()
		return "", false
	}
	o.queue = append(o.queue, job)
	o.owned[job.LectureID]++
	start := !o.draining
	if start {
		o.draining = true
		o.idle = make(chan struct{})
	}
	pending := len(o.queue)
	o.mu.Unlock()

	o.logger.Info("lecture job queued",
		zap.String("job_id", job.ID),
		zap.String("lecture_id", job.LectureID.String()),
		zap.Int("pending", pending),
	)
	if start {
		go o.drain()
	}
	return job.ID, true
}

// Pending returns the number of jobs waiting to run.
func (o *Orchestrator) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// WaitIdle blocks until the queue is empty and no job is running.
func (o *Orchestrator) WaitIdle(ctx context.Context) error {
	o.mu.Lock()
	idle := o.idle
	o.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) drain() {
	for {
		o.mu.Lock()
		if len(o.queue) == 0 {
			o.draining = false
			close(o.idle)
			o.mu.Unlock()
			return
		}
		job := o.queue[0]
		o.queue[0] = Job{}
		o.queue = o.queue[1:]
		o.mu.Unlock()

		o.run(context.Background(), job)

		o.mu.Lock()
		if o.owned[job.LectureID]--; o.owned[job.LectureID] <= 0 {
			delete(o.owned, job.LectureID)
		}
		o.mu.Unlock()
	}
}

// run drives one job to a terminal status. Stage errors end the job as failed;
// status write errors go to the fatal handler.
func (o *Orchestrator) run(ctx context.Context, job Job) {
	log := o.logger.With(zap.String("job_id", job.ID), zap.String("lecture_id", job.LectureID.String()))
	started := time.Now()

	err := o.execute(ctx, job, log)
	if err == nil {
		log.Info("lecture processed", zap.Duration("elapsed", time.Since(started)))
		return
	}

	var pe *persistError
	if errors.As(err, &pe) {
		o.fatal(pe)
		return
	}

	msg := err.Error()
	var se *StageError
	if errors.As(err, &se) {
		msg = se.Err.Error()
	}
	if msg == "" {
		msg = "processing failed"
	}
	log.Error("lecture processing failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
	if err := o.setStatus(ctx, job, models.LectureUpdate{Status: models.LectureStatusFailed, ErrorMessage: &msg}); err != nil {
		o.fatal(err)
	}
}

func (o *Orchestrator) execute(ctx context.Context, job Job, log *zap.Logger) (err error) {
	stage := StageTranscription
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline stage panicked", zap.Any("panic", r), zap.String("stage", string(stage)))
			err = &StageError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	lectureID := job.LectureID.String()

	if err := o.setStatus(ctx, job, models.LectureUpdate{Status: models.LectureStatusTranscribing, ClearError: true, ClearArtifacts: true}); err != nil {
		return err
	}
	transcript, err := o.adapters.Transcriber.Transcribe(ctx, job.AudioRef)
	if err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	if transcript == nil {
		return &StageError{Stage: stage, Err: errors.New("transcriber returned no transcript")}
	}
	jsonPath, err := o.artifacts.WriteJSON(ctx, job.CourseCode, lectureID, storage.FileTranscriptJSON, transcript)
	if err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	textPath, err := o.artifacts.WriteText(ctx, job.CourseCode, lectureID, storage.FileTranscriptText, transcript.PlainText())
	if err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	if err := o.setStatus(ctx, job, models.LectureUpdate{
		Status:             models.LectureStatusTranscribed,
		TranscriptJSONPath: &jsonPath,
		TranscriptTextPath: &textPath,
	}); err != nil {
		return err
	}
	log.Info("transcription stored", zap.Int("segments", len(transcript.Segments)), zap.String("language", transcript.Language))

	stage = StageGeneration
	if err := o.setStatus(ctx, job, models.LectureUpdate{Status: models.LectureStatusGenerating}); err != nil {
		return err
	}
	result, err := o.adapters.Generator.Generate(ctx, transcript, job.Generation)
	if err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	final, err := o.storeDocuments(ctx, job, result)
	if err != nil {
		return &StageError{Stage: stage, Err: err}
	}

	stage = StageSynthesis
	script := ""
	if result.NarratedScript != nil {
		script = *result.NarratedScript
	}
	narrate := job.Generation.NarratedScript && job.Synthesis.Enabled && strings.TrimSpace(script) != ""
	if narrate && o.provisionalVoiced {
		final.Status = models.LectureStatusVoiced
		if err := o.setStatus(ctx, job, final); err != nil {
			return err
		}
		final = models.LectureUpdate{}
	}
	if narrate {
		if audioPath, ok := o.narrate(ctx, job, script, log); ok {
			final.NarratedAudioPath = &audioPath
		}
	}

	final.Status = models.LectureStatusComplete
	return o.setStatus(ctx, job, final)
}

// storeDocuments writes every produced document and returns an update carrying
// their paths.
func (o *Orchestrator) storeDocuments(ctx context.Context, job Job, result *models.GenerationResult) (models.LectureUpdate, error) {
	var upd models.LectureUpdate
	if result == nil {
		return upd, nil
	}
	lectureID := job.LectureID.String()
	writeText := func(filename string, content *string, dst **string) error {
		if content == nil {
			return nil
		}
		p, err := o.artifacts.WriteText(ctx, job.CourseCode, lectureID, filename, *content)
		if err != nil {
			return err
		}
		*dst = &p
		return nil
	}
	if err := writeText(storage.FileNotesShort, result.ShortNotes, &upd.ShortNotesPath); err != nil {
		return upd, err
	}
	if err := writeText(storage.FileNotesDetailed, result.DetailedNotes, &upd.DetailedNotesPath); err != nil {
		return upd, err
	}
	if result.Flashcards != nil {
		p, err := o.artifacts.WriteJSON(ctx, job.CourseCode, lectureID, storage.FileFlashcards, result.Flashcards)
		if err != nil {
			return upd, err
		}
		upd.FlashcardsPath = &p
	}
	if result.Quiz != nil {
		p, err := o.artifacts.WriteJSON(ctx, job.CourseCode, lectureID, storage.FileQuiz, result.Quiz)
		if err != nil {
			return upd, err
		}
		upd.QuizPath = &p
	}
	if err := writeText(storage.FileScript, result.NarratedScript, &upd.ScriptPath); err != nil {
		return upd, err
	}
	return upd, nil
}

// narrate is best effort: any failure, a panicking synthesizer included, is logged
// and reported as no audio.
func (o *Orchestrator) narrate(ctx context.Context, job Job, script string, log *zap.Logger) (path string, stored bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("synthesizer panicked", zap.Any("panic", r), zap.String("synthesizer", o.adapters.Synthesizer.Name()))
			path, stored = "", false
		}
	}()
	audio, ok := o.adapters.Synthesizer.Synthesize(ctx, script, job.Synthesis)
	if !ok || len(audio) == 0 {
		log.Info("narration not produced", zap.String("synthesizer", o.adapters.Synthesizer.Name()))
		return "", false
	}
	p, err := o.artifacts.WriteBinary(ctx, job.CourseCode, job.LectureID.String(), storage.FileNarratedAudio, audio)
	if err != nil {
		log.Warn("store narrated audio failed", zap.Error(err))
		return "", false
	}
	log.Info("narration stored", zap.Int("bytes", len(audio)))
	return p, true
}

func (o *Orchestrator) setStatus(ctx context.Context, job Job, u models.LectureUpdate) error {
	lecture, err := o.store.UpdateLecture(ctx, job.LectureID, u)
	if err != nil {
		return &persistError{status: u.Status, err: err}
	}
	o.logger.Debug("lecture status updated",
		zap.String("job_id", job.ID),
		zap.String("lecture_id", job.LectureID.String()),
		zap.String("status", string(u.Status)),
	)
	if o.notifier != nil && lecture != nil {
		if err := o.notifier.PublishStatus(ctx, job.LectureID, lecture.StatusView()); err != nil {
			o.logger.Warn("publish lecture status failed", zap.Error(err), zap.String("lecture_id", job.LectureID.String()))
		}
	}
	return nil
}
