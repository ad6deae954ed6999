package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aura-lectures/backend/internal/generation"
	"github.com/aura-lectures/backend/internal/models"
	"github.com/aura-lectures/backend/internal/transcription"
	"github.com/aura-lectures/backend/pkg/storage"
)

// memStore is an in-memory RecordStore that keeps every persisted status.
type memStore struct {
	mu       sync.Mutex
	lectures map[uuid.UUID]*models.Lecture
	history  map[uuid.UUID][]models.LectureStatus
	events   *eventLog
	failOn   models.LectureStatus
}

func newMemStore(events *eventLog) *memStore {
	return &memStore{
		lectures: make(map[uuid.UUID]*models.Lecture),
		history:  make(map[uuid.UUID][]models.LectureStatus),
		events:   events,
	}
}

func (s *memStore) UpdateLecture(_ context.Context, id uuid.UUID, u models.LectureUpdate) (*models.Lecture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && u.Status == s.failOn {
		return nil, errors.New("database unavailable")
	}
	l, ok := s.lectures[id]
	if !ok {
		l = &models.Lecture{ID: id, Status: models.LectureStatusUploaded}
		s.lectures[id] = l
	}
	u.Apply(l)
	l.UpdatedAt = time.Now()
	s.history[id] = append(s.history[id], u.Status)
	if s.events != nil {
		s.events.add(id.String() + ":" + string(u.Status))
	}
	cp := *l
	return &cp, nil
}

func (s *memStore) lecture(id uuid.UUID) models.Lecture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.lectures[id]
}

func (s *memStore) statuses(id uuid.UUID) []models.LectureStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LectureStatus(nil), s.history[id]...)
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (e *eventLog) add(ev string) {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
}

func (e *eventLog) index(ev string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, v := range e.events {
		if v == ev {
			return i
		}
	}
	return -1
}

type failingTranscriber struct{ err error }

func (failingTranscriber) Name() string { return "failing" }

func (f failingTranscriber) Transcribe(context.Context, string) (*models.Transcript, error) {
	return nil, f.err
}

type fixedTranscriber struct{ t *models.Transcript }

func (fixedTranscriber) Name() string { return "fixed" }

func (f fixedTranscriber) Transcribe(context.Context, string) (*models.Transcript, error) {
	return f.t, nil
}

type failingGenerator struct{ calls int }

func (*failingGenerator) Name() string { return "openai" }

func (g *failingGenerator) Generate(context.Context, *models.Transcript, models.GenerationOptions) (*models.GenerationResult, error) {
	g.calls++
	return nil, errors.New("provider returned 500")
}

type fakeSynth struct {
	audio []byte
	ok    bool
	calls int
}

func (*fakeSynth) Name() string { return "fake" }

func (s *fakeSynth) Synthesize(context.Context, string, models.SynthesisOptions) ([]byte, bool) {
	s.calls++
	return s.audio, s.ok
}

type recordingNotifier struct {
	mu    sync.Mutex
	views []models.LectureStatusView
}

func (n *recordingNotifier) PublishStatus(_ context.Context, _ uuid.UUID, view models.LectureStatusView) error {
	n.mu.Lock()
	n.views = append(n.views, view)
	n.mu.Unlock()
	return nil
}

func newArtifacts(t *testing.T) *storage.Artifacts {
	t.Helper()
	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	return storage.NewArtifacts(local)
}

func waitIdle(t *testing.T, o *Orchestrator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, o.WaitIdle(ctx))
}

func allDocs() models.GenerationOptions {
	return models.GenerationOptions{ShortNotes: true, DetailedNotes: true, Flashcards: true, Quiz: true, NarratedScript: true}
}

func newJob(opts models.GenerationOptions, synth models.SynthesisOptions) Job {
	return Job{
		LectureID:  uuid.New(),
		CourseCode: "CS 101",
		AudioRef:   "audio/CS_101/lecture.mp3",
		Generation: opts,
		Synthesis:  synth,
	}
}

func TestSuccessfulRunWithoutSynthesis(t *testing.T) {
	store := newMemStore(nil)
	artifacts := newArtifacts(t)
	o := New(store, artifacts, Adapters{}, nil)

	job := newJob(allDocs(), models.SynthesisOptions{})
	id := o.Enqueue(job)
	assert.NotEmpty(t, id)
	waitIdle(t, o)

	assert.Equal(t, []models.LectureStatus{
		models.LectureStatusTranscribing,
		models.LectureStatusTranscribed,
		models.LectureStatusGenerating,
		models.LectureStatusComplete,
	}, store.statuses(job.LectureID))

	l := store.lecture(job.LectureID)
	assert.Nil(t, l.ErrorMessage)
	assert.Equal(t, storage.OutputKey("CS 101", job.LectureID.String(), storage.FileTranscriptJSON), l.TranscriptJSONPath)
	assert.NotEmpty(t, l.TranscriptTextPath)
	assert.NotEmpty(t, l.ShortNotesPath)
	assert.NotEmpty(t, l.DetailedNotesPath)
	assert.NotEmpty(t, l.FlashcardsPath)
	assert.NotEmpty(t, l.QuizPath)
	assert.NotEmpty(t, l.ScriptPath)
	assert.Empty(t, l.NarratedAudioPath)

	ctx := context.Background()
	var stored models.Transcript
	require.NoError(t, artifacts.ReadJSON(ctx, l.TranscriptJSONPath, &stored))
	want, _ := transcription.Stub{}.Transcribe(ctx, "")
	assert.Equal(t, *want, stored)
}

func TestOnlyRequestedDocumentsAreStored(t *testing.T) {
	store := newMemStore(nil)
	artifacts := newArtifacts(t)
	transcript := &models.Transcript{Language: "en", Segments: []models.Segment{
		{Start: 0, End: 1, Text: "a"},
		{Start: 1, End: 2, Text: "  "},
		{Start: 2, End: 3, Text: "b"},
	}}
	o := New(store, artifacts, Adapters{Transcriber: fixedTranscriber{t: transcript}}, nil)

	job := newJob(models.GenerationOptions{ShortNotes: true}, models.SynthesisOptions{})
	o.Enqueue(job)
	waitIdle(t, o)

	l := store.lecture(job.LectureID)
	assert.Equal(t, models.LectureStatusComplete, l.Status)
	assert.Empty(t, l.DetailedNotesPath)
	assert.Empty(t, l.FlashcardsPath)
	assert.Empty(t, l.QuizPath)
	assert.Empty(t, l.ScriptPath)

	notes, err := artifacts.ReadText(context.Background(), l.ShortNotesPath)
	require.NoError(t, err)
	var bullets []string
	for _, line := range strings.Split(notes, "\n") {
		if strings.HasPrefix(line, "- ") {
			bullets = append(bullets, line)
		}
	}
	require.Len(t, bullets, 2)
	assert.Equal(t, "- a (00:00–00:01)", bullets[0])
	assert.Equal(t, "- b (00:02–00:03)", bullets[1])
}

func TestSynthesisSuccessStoresAudio(t *testing.T) {
	store := newMemStore(nil)
	artifacts := newArtifacts(t)
	synth := &fakeSynth{audio: []byte("ID3"), ok: true}
	o := New(store, artifacts, Adapters{Synthesizer: synth}, nil)

	job := newJob(models.GenerationOptions{NarratedScript: true}, models.SynthesisOptions{Enabled: true})
	o.Enqueue(job)
	waitIdle(t, o)

	history := store.statuses(job.LectureID)
	require.GreaterOrEqual(t, len(history), 2)
	assert.Equal(t, []models.LectureStatus{models.LectureStatusGenerating, models.LectureStatusComplete}, history[len(history)-2:])
	assert.Equal(t, 1, synth.calls)

	l := store.lecture(job.LectureID)
	require.NotEmpty(t, l.NarratedAudioPath)
	audio, err := artifacts.ReadBinary(context.Background(), l.NarratedAudioPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3"), audio)
}

func TestSynthesisFailureStillCompletes(t *testing.T) {
	store := newMemStore(nil)
	synth := &fakeSynth{ok: false}
	o := New(store, newArtifacts(t), Adapters{Synthesizer: synth}, nil)

	job := newJob(models.GenerationOptions{NarratedScript: true}, models.SynthesisOptions{Enabled: true})
	o.Enqueue(job)
	waitIdle(t, o)

	l := store.lecture(job.LectureID)
	assert.Equal(t, models.LectureStatusComplete, l.Status)
	assert.Empty(t, l.NarratedAudioPath)
	assert.Nil(t, l.ErrorMessage)
	assert.NotEmpty(t, l.ScriptPath)
	assert.Equal(t, 1, synth.calls)
}

func TestSynthesisUnconfiguredNeverFails(t *testing.T) {
	store := newMemStore(nil)
	o := New(store, newArtifacts(t), Adapters{}, nil)

	job := newJob(models.GenerationOptions{NarratedScript: true}, models.SynthesisOptions{Enabled: true, VoiceID: "v"})
	o.Enqueue(job)
	waitIdle(t, o)

	l := store.lecture(job.LectureID)
	assert.Equal(t, models.LectureStatusComplete, l.Status)
	assert.Empty(t, l.NarratedAudioPath)
	assert.Nil(t, l.ErrorMessage)
	assert.NotContains(t, store.statuses(job.LectureID), models.LectureStatusFailed)
}

func TestSynthesisSkippedWhenNotRequested(t *testing.T) {
	store := newMemStore(nil)
	synth := &fakeSynth{audio: []byte("x"), ok: true}
	o := New(store, newArtifacts(t), Adapters{Synthesizer: synth}, nil)

	disabled := newJob(models.GenerationOptions{NarratedScript: true}, models.SynthesisOptions{Enabled: false})
	noScript := newJob(models.GenerationOptions{ShortNotes: true}, models.SynthesisOptions{Enabled: true})
	o.Enqueue(disabled)
	o.Enqueue(noScript)
	waitIdle(t, o)

	assert.Equal(t, 0, synth.calls)
	assert.Equal(t, models.LectureStatusComplete, store.lecture(disabled.LectureID).Status)
	assert.Equal(t, models.LectureStatusComplete, store.lecture(noScript.LectureID).Status)
}

func TestProvisionalVoiced(t *testing.T) {
	store := newMemStore(nil)
	synth := &fakeSynth{audio: []byte("ID3"), ok: true}
	o := New(store, newArtifacts(t), Adapters{Synthesizer: synth}, nil, WithProvisionalVoiced(true))

	narrated := newJob(models.GenerationOptions{NarratedScript: true}, models.SynthesisOptions{Enabled: true})
	plain := newJob(models.GenerationOptions{ShortNotes: true}, models.SynthesisOptions{})
	o.Enqueue(narrated)
	o.Enqueue(plain)
	waitIdle(t, o)

	assert.Equal(t, []models.LectureStatus{
		models.LectureStatusTranscribing,
		models.LectureStatusTranscribed,
		models.LectureStatusGenerating,
		models.LectureStatusVoiced,
		models.LectureStatusComplete,
	}, store.statuses(narrated.LectureID))
	l := store.lecture(narrated.LectureID)
	assert.NotEmpty(t, l.ScriptPath)
	assert.NotEmpty(t, l.NarratedAudioPath)

	assert.NotContains(t, store.statuses(plain.LectureID), models.LectureStatusVoiced)
}

func TestGenerationFailureFallsBackToStub(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := newMemStore(nil)
	artifacts := newArtifacts(t)
	primary := &failingGenerator{}
	o := New(store, artifacts, Adapters{Generator: primary}, zap.New(core))

	opts := allDocs()
	job := newJob(opts, models.SynthesisOptions{})
	o.Enqueue(job)
	waitIdle(t, o)

	l := store.lecture(job.LectureID)
	assert.Equal(t, models.LectureStatusComplete, l.Status)
	assert.Nil(t, l.ErrorMessage)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, logs.FilterMessage("generation provider failed, using stub output").Len())

	ctx := context.Background()
	transcript, _ := transcription.Stub{}.Transcribe(ctx, "")
	want, err := generation.Stub{}.Generate(ctx, transcript, opts)
	require.NoError(t, err)

	short, err := artifacts.ReadText(ctx, l.ShortNotesPath)
	require.NoError(t, err)
	assert.Equal(t, *want.ShortNotes, short)
	detailed, err := artifacts.ReadText(ctx, l.DetailedNotesPath)
	require.NoError(t, err)
	assert.Equal(t, *want.DetailedNotes, detailed)
	script, err := artifacts.ReadText(ctx, l.ScriptPath)
	require.NoError(t, err)
	assert.Equal(t, *want.NarratedScript, script)

	var cards models.FlashcardSet
	require.NoError(t, artifacts.ReadJSON(ctx, l.FlashcardsPath, &cards))
	assert.Equal(t, *want.Flashcards, cards)
	var quiz models.Quiz
	require.NoError(t, artifacts.ReadJSON(ctx, l.QuizPath, &quiz))
	assert.Equal(t, *want.Quiz, quiz)
}

func TestTranscriptionFailureMarksFailed(t *testing.T) {
	store := newMemStore(nil)
	o := New(store, newArtifacts(t), Adapters{Transcriber: failingTranscriber{err: errors.New("whisper: http 401: invalid key")}}, nil)

	job := newJob(allDocs(), models.SynthesisOptions{})
	o.Enqueue(job)
	waitIdle(t, o)

	assert.Equal(t, []models.LectureStatus{models.LectureStatusTranscribing, models.LectureStatusFailed}, store.statuses(job.LectureID))
	l := store.lecture(job.LectureID)
	require.NotNil(t, l.ErrorMessage)
	assert.Equal(t, "whisper: http 401: invalid key", *l.ErrorMessage)
	assert.Empty(t, l.TranscriptJSONPath)
}

func TestRerunClearsPreviousError(t *testing.T) {
	store := newMemStore(nil)
	job := newJob(models.GenerationOptions{ShortNotes: true}, models.SynthesisOptions{})

	failing := New(store, newArtifacts(t), Adapters{Transcriber: failingTranscriber{err: errors.New("boom")}}, nil)
	failing.Enqueue(job)
	waitIdle(t, failing)
	require.NotNil(t, store.lecture(job.LectureID).ErrorMessage)

	ok := New(store, newArtifacts(t), Adapters{}, nil)
	ok.Enqueue(job)
	waitIdle(t, ok)
	l := store.lecture(job.LectureID)
	assert.Equal(t, models.LectureStatusComplete, l.Status)
	assert.Nil(t, l.ErrorMessage)
}

func TestStatusWriteFailureIsFatal(t *testing.T) {
	store := newMemStore(nil)
	store.failOn = models.LectureStatusGenerating
	var mu sync.Mutex
	var fatal []error
	o := New(store, newArtifacts(t), Adapters{}, nil, WithFatalHandler(func(err error) {
		mu.Lock()
		fatal = append(fatal, err)
		mu.Unlock()
	}))

	job := newJob(allDocs(), models.SynthesisOptions{})
	o.Enqueue(job)
	waitIdle(t, o)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, fatal, 1)
	assert.Contains(t, fatal[0].Error(), "database unavailable")
	assert.Equal(t, models.LectureStatusTranscribed, store.lecture(job.LectureID).Status)
}

// gatedTranscriber blocks each call until released and tracks concurrency.
type gatedTranscriber struct {
	events  *eventLog
	release chan struct{}
	started chan string

	mu      sync.Mutex
	running int
	maxSeen int
}

func (*gatedTranscriber) Name() string { return "gated" }

func (g *gatedTranscriber) Transcribe(ctx context.Context, audioPath string) (*models.Transcript, error) {
	g.mu.Lock()
	g.running++
	if g.running > g.maxSeen {
		g.maxSeen = g.running
	}
	g.mu.Unlock()
	g.events.add("start:" + audioPath)
	g.started <- audioPath
	<-g.release
	g.mu.Lock()
	g.running--
	g.mu.Unlock()
	return transcription.Stub{}.Transcribe(ctx, audioPath)
}

func TestJobsRunInOrderOneAtATime(t *testing.T) {
	events := &eventLog{}
	store := newMemStore(events)
	gate := &gatedTranscriber{events: events, release: make(chan struct{}), started: make(chan string, 3)}
	o := New(store, newArtifacts(t), Adapters{Transcriber: gate}, nil)

	a := newJob(models.GenerationOptions{ShortNotes: true}, models.SynthesisOptions{})
	a.AudioRef = "a"
	b := newJob(models.GenerationOptions{ShortNotes: true}, models.SynthesisOptions{})
	b.AudioRef = "b"
	c := newJob(models.GenerationOptions{ShortNotes: true}, models.SynthesisOptions{})
	c.AudioRef = "c"

	o.Enqueue(a)
	assert.Equal(t, "a", <-gate.started)
	o.Enqueue(b)
	o.Enqueue(c)
	assert.Equal(t, 2, o.Pending())

	for _, want := range []string{"b", "c"} {
		gate.release <- struct{}{}
		assert.Equal(t, want, <-gate.started)
	}
	gate.release <- struct{}{}
	waitIdle(t, o)

	assert.Equal(t, 1, gate.maxSeen)
	assert.Equal(t, 0, o.Pending())
	aDone := events.index(a.LectureID.String() + ":" + string(models.LectureStatusComplete))
	bStart := events.index(b.LectureID.String() + ":" + string(models.LectureStatusTranscribing))
	cStart := events.index(c.LectureID.String() + ":" + string(models.LectureStatusTranscribing))
	bDone := events.index(b.LectureID.String() + ":" + string(models.LectureStatusComplete))
	require.NotEqual(t, -1, aDone)
	assert.Less(t, aDone, bStart)
	assert.Less(t, bDone, cStart)
}

func TestNotifierReceivesEveryStatus(t *testing.T) {
	store := newMemStore(nil)
	notifier := &recordingNotifier{}
	o := New(store, newArtifacts(t), Adapters{}, nil, WithNotifier(notifier))

	job := newJob(models.GenerationOptions{ShortNotes: true}, models.SynthesisOptions{})
	o.Enqueue(job)
	waitIdle(t, o)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.views, 4)
	assert.Equal(t, models.LectureStatusComplete, notifier.views[3].Status)
	assert.False(t, notifier.views[3].UpdatedAt.IsZero())
}

func TestWaitIdleWhenNothingQueued(t *testing.T) {
	o := New(newMemStore(nil), newArtifacts(t), Adapters{}, nil)
	waitIdle(t, o)
}

func TestRerunDropsPreviousArtifacts(t *testing.T) {
	store := newMemStore(nil)
	artifacts := newArtifacts(t)
	job := newJob(allDocs(), models.SynthesisOptions{Enabled: true})

	first := New(store, artifacts, Adapters{Synthesizer: &fakeSynth{audio: []byte("ID3"), ok: true}}, nil)
	first.Enqueue(job)
	waitIdle(t, first)
	require.NotEmpty(t, store.lecture(job.LectureID).NarratedAudioPath)

	second := New(store, artifacts, Adapters{Synthesizer: &fakeSynth{ok: false}}, nil)
	second.Enqueue(job)
	waitIdle(t, second)
	l := store.lecture(job.LectureID)
	assert.Equal(t, models.LectureStatusComplete, l.Status)
	assert.Empty(t, l.NarratedAudioPath)
	assert.NotEmpty(t, l.ScriptPath)

	job.Generation = models.GenerationOptions{ShortNotes: true}
	third := New(store, artifacts, Adapters{}, nil)
	third.Enqueue(job)
	waitIdle(t, third)
	l = store.lecture(job.LectureID)
	assert.NotEmpty(t, l.TranscriptJSONPath)
	assert.NotEmpty(t, l.ShortNotesPath)
	assert.Empty(t, l.DetailedNotesPath)
	assert.Empty(t, l.FlashcardsPath)
	assert.Empty(t, l.QuizPath)
	assert.Empty(t, l.ScriptPath)
	assert.Empty(t, l.NarratedAudioPath)
}

type panickingSynth struct{}

func (panickingSynth) Name() string { return "panicking" }

func (panickingSynth) Synthesize(context.Context, string, models.SynthesisOptions) ([]byte, bool) {
	panic("voice service client is nil")
}

func TestSynthesisPanicStillCompletes(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := newMemStore(nil)
	o := New(store, newArtifacts(t), Adapters{Synthesizer: panickingSynth{}}, zap.New(core))

	job := newJob(models.GenerationOptions{NarratedScript: true}, models.SynthesisOptions{Enabled: true})
	o.Enqueue(job)
	waitIdle(t, o)

	assert.Equal(t, []models.LectureStatus{
		models.LectureStatusTranscribing,
		models.LectureStatusTranscribed,
		models.LectureStatusGenerating,
		models.LectureStatusComplete,
	}, store.statuses(job.LectureID))
	l := store.lecture(job.LectureID)
	assert.Nil(t, l.ErrorMessage)
	assert.Empty(t, l.NarratedAudioPath)
	assert.NotEmpty(t, l.ScriptPath)
	assert.Equal(t, 1, logs.FilterMessage("synthesizer panicked").Len())
}

type panickingGenerator struct{}

func (panickingGenerator) Name() string { return "openrouter" }

func (panickingGenerator) Generate(context.Context, *models.Transcript, models.GenerationOptions) (*models.GenerationResult, error) {
	panic("unexpected response shape")
}

func TestGenerationPanicFallsBackToStub(t *testing.T) {
	store := newMemStore(nil)
	artifacts := newArtifacts(t)
	o := New(store, artifacts, Adapters{Generator: panickingGenerator{}}, nil)

	opts := models.GenerationOptions{ShortNotes: true}
	job := newJob(opts, models.SynthesisOptions{})
	o.Enqueue(job)
	waitIdle(t, o)

	l := store.lecture(job.LectureID)
	assert.Equal(t, models.LectureStatusComplete, l.Status)
	assert.Nil(t, l.ErrorMessage)

	ctx := context.Background()
	transcript, _ := transcription.Stub{}.Transcribe(ctx, "")
	want, err := generation.Stub{}.Generate(ctx, transcript, opts)
	require.NoError(t, err)
	short, err := artifacts.ReadText(ctx, l.ShortNotesPath)
	require.NoError(t, err)
	assert.Equal(t, *want.ShortNotes, short)
}

// brokenWriter fails text writes for one filename and delegates the rest.
type brokenWriter struct {
	*storage.Artifacts
	filename string
	err      error
}

func (w brokenWriter) WriteText(ctx context.Context, courseCode, lectureID, filename, content string) (string, error) {
	if filename == w.filename {
		return "", w.err
	}
	return w.Artifacts.WriteText(ctx, courseCode, lectureID, filename, content)
}

func TestDocumentWriteFailureMarksFailed(t *testing.T) {
	store := newMemStore(nil)
	writer := brokenWriter{Artifacts: newArtifacts(t), filename: storage.FileNotesShort, err: errors.New("disk quota exceeded")}
	o := New(store, writer, Adapters{}, nil)

	job := newJob(allDocs(), models.SynthesisOptions{})
	o.Enqueue(job)
	waitIdle(t, o)

	assert.Equal(t, []models.LectureStatus{
		models.LectureStatusTranscribing,
		models.LectureStatusTranscribed,
		models.LectureStatusGenerating,
		models.LectureStatusFailed,
	}, store.statuses(job.LectureID))
	l := store.lecture(job.LectureID)
	require.NotNil(t, l.ErrorMessage)
	assert.Equal(t, "disk quota exceeded", *l.ErrorMessage)
	assert.NotEmpty(t, l.TranscriptJSONPath)
	assert.Empty(t, l.ShortNotesPath)
}

func TestTryEnqueueRefusesPendingLecture(t *testing.T) {
	events := &eventLog{}
	store := newMemStore(events)
	gate := &gatedTranscriber{events: events, release: make(chan struct{}), started: make(chan string, 2)}
	o := New(store, newArtifacts(t), Adapters{Transcriber: gate}, nil)

	running := newJob(models.GenerationOptions{ShortNotes: true}, models.SynthesisOptions{})
	waiting := newJob(models.GenerationOptions{ShortNotes: true}, models.SynthesisOptions{})

	_, ok := o.TryEnqueue(running)
	require.True(t, ok)
	<-gate.started
	_, ok = o.TryEnqueue(waiting)
	require.True(t, ok)

	assert.True(t, o.Queued(running.LectureID))
	assert.True(t, o.Queued(waiting.LectureID))
	_, ok = o.TryEnqueue(running)
	assert.False(t, ok)
	_, ok = o.TryEnqueue(waiting)
	assert.False(t, ok)
	assert.Equal(t, 1, o.Pending())

	gate.release <- struct{}{}
	<-gate.started
	gate.release <- struct{}{}
	waitIdle(t, o)

	assert.False(t, o.Queued(running.LectureID))
	assert.False(t, o.Queued(waiting.LectureID))
	id, ok := o.TryEnqueue(running)
	assert.True(t, ok)
	assert.NotEmpty(t, id)
	<-gate.started
	gate.release <- struct{}{}
	waitIdle(t, o)
}
