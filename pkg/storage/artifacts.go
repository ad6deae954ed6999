package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
)

const (
	// FolderAudio is the prefix for uploaded source recordings.
	FolderAudio = "audio"
	// FolderOutputs is the prefix for generated artifacts.
	FolderOutputs = "outputs"
)

// Fixed artifact filenames inside a lecture's output directory.
const (
	FileTranscriptJSON = "transcript.json"
	FileTranscriptText = "transcript.txt"
	FileNotesShort     = "notes_short.md"
	FileNotesDetailed  = "notes_detailed.md"
	FileFlashcards     = "flashcards.json"
	FileQuiz           = "quiz.json"
	FileScript         = "podcast_script.txt"
	FileNarratedAudio  = "podcast_audio.mp3"
)

var (
	// ErrNotFound is returned when an artifact does not exist.
	ErrNotFound = errors.New("artifact not found")
	// ErrPresignUnsupported is returned by backends that cannot hand out direct URLs.
	ErrPresignUnsupported = errors.New("presigned urls not supported")
	// ErrInvalidPath is returned for paths that escape the artifact root.
	ErrInvalidPath = errors.New("invalid artifact path")

	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// Backend stores opaque objects under slash-separated keys.
type Backend interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Presigner is implemented by backends that can issue time-limited download URLs.
type Presigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

// Artifacts implements the lecture artifact contract on top of a Backend.
// Returned paths are backend keys and can be fed back into the read methods.
type Artifacts struct {
	backend Backend
}

// NewArtifacts wraps a backend.
func NewArtifacts(backend Backend) *Artifacts {
	return &Artifacts{backend: backend}
}

// SanitizeCourseCode maps a course code onto a safe directory name.
func SanitizeCourseCode(code string) string {
	s := unsafeChars.ReplaceAllString(strings.TrimSpace(code), "_")
	s = strings.Trim(s, ".")
	if s == "" {
		return "course"
	}
	return s
}

// SanitizeFilename keeps the base name of filename with unsafe characters replaced.
func SanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	s := unsafeChars.ReplaceAllString(base, "_")
	s = strings.TrimLeft(s, ".")
	if s == "" || s == "_" {
		return "upload"
	}
	return s
}

// AudioKey returns audio/{course}/{lectureID}_{filename}.
func AudioKey(courseCode, lectureID, filename string) string {
	return path.Join(FolderAudio, SanitizeCourseCode(courseCode), lectureID+"_"+SanitizeFilename(filename))
}

// OutputKey returns outputs/{course}/{lectureID}/{filename}.
func OutputKey(courseCode, lectureID, filename string) string {
	return path.Join(FolderOutputs, SanitizeCourseCode(courseCode), lectureID, SanitizeFilename(filename))
}

// ContentTypeForFilename returns the MIME type used when storing filename.
func ContentTypeForFilename(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}

// SaveAudio stores an uploaded recording and returns its path.
func (a *Artifacts) SaveAudio(ctx context.Context, courseCode, lectureID, filename string, body io.Reader, size int64) (string, error) {
	key := AudioKey(courseCode, lectureID, filename)
	if err := a.backend.Put(ctx, key, ContentTypeForFilename(filename), body, size); err != nil {
		return "", fmt.Errorf("save audio: %w", err)
	}
	return key, nil
}

// WriteText stores a text artifact.
func (a *Artifacts) WriteText(ctx context.Context, courseCode, lectureID, filename, content string) (string, error) {
	return a.WriteBinary(ctx, courseCode, lectureID, filename, []byte(content))
}

// WriteJSON stores v as indented JSON.
func (a *Artifacts) WriteJSON(ctx context.Context, courseCode, lectureID, filename string, v any) (string, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", filename, err)
	}
	return a.WriteBinary(ctx, courseCode, lectureID, filename, body)
}

// WriteBinary stores raw bytes.
func (a *Artifacts) WriteBinary(ctx context.Context, courseCode, lectureID, filename string, data []byte) (string, error) {
	key := OutputKey(courseCode, lectureID, filename)
	if err := a.backend.Put(ctx, key, ContentTypeForFilename(filename), bytes.NewReader(data), int64(len(data))); err != nil {
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	return key, nil
}

// Open returns a reader for the artifact at p. Caller must close it.
func (a *Artifacts) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	return a.backend.Get(ctx, p)
}

// ReadBinary returns the full artifact content.
func (a *Artifacts) ReadBinary(ctx context.Context, p string) ([]byte, error) {
	rc, err := a.backend.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

// ReadText returns a text artifact.
func (a *Artifacts) ReadText(ctx context.Context, p string) (string, error) {
	data, err := a.ReadBinary(ctx, p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadJSON decodes a JSON artifact into v.
func (a *Artifacts) ReadJSON(ctx context.Context, p string, v any) error {
	data, err := a.ReadBinary(ctx, p)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", p, err)
	}
	return nil
}

// Exists reports whether an artifact is present.
func (a *Artifacts) Exists(ctx context.Context, p string) (bool, error) {
	return a.backend.Exists(ctx, p)
}

// PresignedURL returns a direct download URL when the backend supports it.
func (a *Artifacts) PresignedURL(ctx context.Context, p string) (string, error) {
	ps, ok := a.backend.(Presigner)
	if !ok {
		return "", ErrPresignUnsupported
	}
	return ps.PresignGet(ctx, p)
}
