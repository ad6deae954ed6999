// Package lectures handles lecture upload, processing requests, status polling
// and artifact downloads, and persists lecture records.
package lectures

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-lectures/backend/internal/models"
	"github.com/aura-lectures/backend/internal/pipeline"
	"github.com/aura-lectures/backend/pkg/response"
	"github.com/aura-lectures/backend/pkg/storage"
)

var allowedExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".mp4": true, ".webm": true, ".ogg": true,
}

// multipart envelope allowance on top of the file size limit
const formOverhead = 1 << 20

// Store is the lecture persistence the handler needs.
type Store interface {
	Create(ctx context.Context, l *models.Lecture) error
	GetLecture(ctx context.Context, id uuid.UUID) (*models.Lecture, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Lecture, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CourseLookup resolves course codes.
type CourseLookup interface {
	GetByCode(ctx context.Context, code string) (*models.Course, error)
}

// ArtifactStore saves uploads and serves stored artifacts.
type ArtifactStore interface {
	SaveAudio(ctx context.Context, courseCode, lectureID, filename string, body io.Reader, size int64) (string, error)
	Open(ctx context.Context, p string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, p string) (string, error)
}

// Enqueuer accepts pipeline jobs. TryEnqueue refuses a lecture that already has a
// queued or running job.
type Enqueuer interface {
	TryEnqueue(job pipeline.Job) (string, bool)
	Queued(lectureID uuid.UUID) bool
}

// ProcessRequest is the optional body for POST /lectures/:id/process.
// A missing generation block requests notes, flashcards and quiz.
type ProcessRequest struct {
	Generation *models.GenerationOptions `json:"generation"`
	Synthesis  models.SynthesisOptions   `json:"synthesis"`
}

// ProcessAccepted is returned when a job was queued.
type ProcessAccepted struct {
	Accepted  bool      `json:"accepted"`
	LectureID uuid.UUID `json:"lecture_id"`
	JobID     string    `json:"job_id"`
}

// Handler handles lecture HTTP endpoints.
type Handler struct {
	store     Store
	courses   CourseLookup
	artifacts ArtifactStore
	queue     Enqueuer
	maxUpload int64
	logger    *zap.Logger
}

// NewHandler creates a lecture handler. maxUploadBytes <= 0 disables the size check.
func NewHandler(store Store, courses CourseLookup, artifacts ArtifactStore, queue Enqueuer, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:     store,
		courses:   courses,
		artifacts: artifacts,
		queue:     queue,
		maxUpload: maxUploadBytes,
		logger:    logger,
	}
}

// Upload handles POST /courses/:code/lectures (multipart: title, file).
func (h *Handler) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	course, err := h.courses.GetByCode(ctx, c.Param("code"))
	if err != nil {
		h.writeError(c, err, "course not found", "load course failed")
		return
	}

	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+formOverhead)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.TooLarge(c, "file too large")
			return
		}
		response.BadRequest(c, "file required")
		return
	}
	if h.maxUpload > 0 && fileHeader.Size > h.maxUpload {
		response.TooLarge(c, "file too large")
		return
	}
	ext := strings.ToLower(path.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		response.BadRequest(c, "unsupported file type "+ext)
		return
	}
	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = strings.TrimSuffix(storage.SanitizeFilename(fileHeader.Filename), ext)
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "unreadable file")
		return
	}
	defer file.Close()

	lecture := &models.Lecture{
		ID:         uuid.New(),
		CourseID:   course.ID,
		CourseCode: course.Code,
		Title:      title,
		Status:     models.LectureStatusUploaded,
	}
	audioPath, err := h.artifacts.SaveAudio(ctx, course.Code, lecture.ID.String(), fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		h.logger.Error("save upload failed", zap.Error(err), zap.String("course_code", course.Code))
		response.Internal(c, "failed to store upload")
		return
	}
	lecture.AudioPath = audioPath
	if err := h.store.Create(ctx, lecture); err != nil {
		h.logger.Error("create lecture failed", zap.Error(err), zap.String("course_code", course.Code))
		response.Internal(c, "failed to create lecture")
		return
	}
	h.logger.Info("lecture uploaded",
		zap.String("lecture_id", lecture.ID.String()),
		zap.String("course_code", course.Code),
		zap.String("path", audioPath),
		zap.Int64("bytes", fileHeader.Size),
	)
	response.Created(c, lecture)
}

// ListByCourse handles GET /courses/:code/lectures.
func (h *Handler) ListByCourse(c *gin.Context) {
	course, err := h.courses.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, err, "course not found", "load course failed")
		return
	}
	list, err := h.store.ListByCourse(c.Request.Context(), course.ID)
	if err != nil {
		h.logger.Error("list lectures failed", zap.Error(err), zap.String("course_code", course.Code))
		response.Internal(c, "failed to list lectures")
		return
	}
	response.OK(c, list)
}

// Get handles GET /lectures/:id.
func (h *Handler) Get(c *gin.Context) {
	lecture, ok := h.loadLecture(c)
	if !ok {
		return
	}
	response.OK(c, lecture)
}

// Status handles GET /lectures/:id/status. It reads the record store, not the queue.
func (h *Handler) Status(c *gin.Context) {
	lecture, ok := h.loadLecture(c)
	if !ok {
		return
	}
	response.OK(c, lecture.StatusView())
}

// Process handles POST /lectures/:id/process. The job runs in the background.
func (h *Handler) Process(c *gin.Context) {
	lecture, ok := h.loadLecture(c)
	if !ok {
		return
	}
	if lecture.Status.InFlight() || h.queue.Queued(lecture.ID) {
		response.Conflict(c, "lecture is already being processed")
		return
	}
	if lecture.AudioPath == "" {
		response.BadRequest(c, "lecture has no uploaded audio")
		return
	}

	var req ProcessRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	opts := defaultGeneration()
	if req.Generation != nil {
		opts = *req.Generation
	}
	if err := validateGeneration(opts); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	jobID, queued := h.queue.TryEnqueue(pipeline.Job{
		LectureID:  lecture.ID,
		CourseCode: lecture.CourseCode,
		AudioRef:   lecture.AudioPath,
		Generation: opts,
		Synthesis:  req.Synthesis,
	})
	if !queued {
		response.Conflict(c, "lecture is already being processed")
		return
	}
	response.Accepted(c, ProcessAccepted{Accepted: true, LectureID: lecture.ID, JobID: jobID})
}

// Delete handles DELETE /lectures/:id.
func (h *Handler) Delete(c *gin.Context) {
	lecture, ok := h.loadLecture(c)
	if !ok {
		return
	}
	if lecture.Status.InFlight() || h.queue.Queued(lecture.ID) {
		response.Conflict(c, "lecture is being processed")
		return
	}
	if err := h.store.Delete(c.Request.Context(), lecture.ID); err != nil {
		h.writeError(c, err, "lecture not found", "delete lecture failed")
		return
	}
	response.NoContent(c)
}

// Artifact handles GET /lectures/:id/artifacts/:kind. Backends that can presign
// redirect; the rest stream the file.
func (h *Handler) Artifact(c *gin.Context) {
	lecture, ok := h.loadLecture(c)
	if !ok {
		return
	}
	kind := c.Param("kind")
	p, known := ArtifactPath(lecture, kind)
	if !known {
		response.BadRequest(c, "unknown artifact kind "+kind)
		return
	}
	if p == "" {
		response.NotFound(c, "artifact not available")
		return
	}

	ctx := c.Request.Context()
	url, err := h.artifacts.PresignedURL(ctx, p)
	if err == nil {
		c.Redirect(http.StatusFound, url)
		return
	}
	if !errors.Is(err, storage.ErrPresignUnsupported) {
		h.logger.Error("presign artifact failed", zap.Error(err), zap.String("path", p))
		response.Internal(c, "failed to sign artifact url")
		return
	}

	rc, err := h.artifacts.Open(ctx, p)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.NotFound(c, "artifact missing from storage")
			return
		}
		h.logger.Error("open artifact failed", zap.Error(err), zap.String("path", p))
		response.Internal(c, "failed to read artifact")
		return
	}
	defer rc.Close()
	filename := path.Base(p)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.DataFromReader(http.StatusOK, -1, storage.ContentTypeForFilename(filename), rc, nil)
}

// ArtifactPath maps an artifact kind to the lecture's stored path. known is false
// for unrecognised kinds.
func ArtifactPath(l *models.Lecture, kind string) (p string, known bool) {
	switch kind {
	case "transcript":
		return l.TranscriptJSONPath, true
	case "transcript_text":
		return l.TranscriptTextPath, true
	case "notes_short":
		return l.ShortNotesPath, true
	case "notes_detailed":
		return l.DetailedNotesPath, true
	case "flashcards":
		return l.FlashcardsPath, true
	case "quiz":
		return l.QuizPath, true
	case "script":
		return l.ScriptPath, true
	case "audio":
		return l.NarratedAudioPath, true
	case "source":
		return l.AudioPath, true
	default:
		return "", false
	}
}

func (h *Handler) loadLecture(c *gin.Context) (*models.Lecture, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return nil, false
	}
	lecture, err := h.store.GetLecture(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "lecture not found", "load lecture failed")
		return nil, false
	}
	return lecture, true
}

func (h *Handler) writeError(c *gin.Context, err error, notFound, logMsg string) {
	if errors.Is(err, models.ErrNotFound) {
		response.NotFound(c, notFound)
		return
	}
	h.logger.Error(logMsg, zap.Error(err))
	response.Internal(c, "internal error")
}
