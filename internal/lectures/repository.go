package lectures

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-lectures/backend/internal/models"
)

const lectureColumns = `l.id, l.course_id, c.code, l.title, l.audio_path, l.status, l.error_message,
	COALESCE(l.transcript_json_path,''), COALESCE(l.transcript_text_path,''), COALESCE(l.short_notes_path,''),
	COALESCE(l.detailed_notes_path,''), COALESCE(l.flashcards_path,''), COALESCE(l.quiz_path,''),
	COALESCE(l.script_path,''), COALESCE(l.narrated_audio_path,''), l.created_at, l.updated_at`

// Repository is the lecture record store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a lectures repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanLecture(row pgx.Row) (*models.Lecture, error) {
	var l models.Lecture
	err := row.Scan(&l.ID, &l.CourseID, &l.CourseCode, &l.Title, &l.AudioPath, &l.Status, &l.ErrorMessage,
		&l.TranscriptJSONPath, &l.TranscriptTextPath, &l.ShortNotesPath,
		&l.DetailedNotesPath, &l.FlashcardsPath, &l.QuizPath,
		&l.ScriptPath, &l.NarratedAudioPath, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Create inserts a lecture. A zero ID is replaced with a new one.
func (r *Repository) Create(ctx context.Context, l *models.Lecture) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = models.LectureStatusUploaded
	}
	const q = `INSERT INTO lectures (id, course_id, title, audio_path, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`
	if err := r.pool.QueryRow(ctx, q, l.ID, l.CourseID, l.Title, l.AudioPath, l.Status).Scan(&l.CreatedAt, &l.UpdatedAt); err != nil {
		return fmt.Errorf("insert lecture: %w", err)
	}
	return nil
}

// GetLecture returns a lecture with its course code.
func (r *Repository) GetLecture(ctx context.Context, id uuid.UUID) (*models.Lecture, error) {
	q := `SELECT ` + lectureColumns + ` FROM lectures l JOIN courses c ON c.id = l.course_id WHERE l.id = $1`
	return scanLecture(r.pool.QueryRow(ctx, q, id))
}

// ListByCourse returns a course's lectures, newest first.
func (r *Repository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Lecture, error) {
	q := `SELECT ` + lectureColumns + ` FROM lectures l JOIN courses c ON c.id = l.course_id
		WHERE l.course_id = $1 ORDER BY l.created_at DESC`
	rows, err := r.pool.Query(ctx, q, courseID)
	if err != nil {
		return nil, fmt.Errorf("list lectures: %w", err)
	}
	defer rows.Close()
	list := make([]models.Lecture, 0)
	for rows.Next() {
		l, err := scanLecture(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *l)
	}
	return list, rows.Err()
}

// UpdateLecture writes the status, bumps updated_at and sets whichever other
// fields the update carries. It returns the updated record.
func (r *Repository) UpdateLecture(ctx context.Context, id uuid.UUID, u models.LectureUpdate) (*models.Lecture, error) {
	if u.Status == "" {
		return nil, errors.New("update lecture: status required")
	}
	set, args := updateAssignments(id, u)
	q := `WITH l AS (UPDATE lectures SET ` + strings.Join(set, ", ") + ` WHERE id = $1 RETURNING *)
		SELECT ` + lectureColumns + ` FROM l JOIN courses c ON c.id = l.course_id`
	l, err := scanLecture(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update lecture %s: %w", id, err)
	}
	return l, nil
}

// updateAssignments builds the SET list and its arguments; $1 is always the id.
func updateAssignments(id uuid.UUID, u models.LectureUpdate) ([]string, []any) {
	set := []string{"status = $2", "updated_at = NOW()"}
	args := []any{id, u.Status}
	add := func(column string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	switch {
	case u.ErrorMessage != nil:
		add("error_message", *u.ErrorMessage)
	case u.ClearError:
		set = append(set, "error_message = NULL")
	}
	paths := []struct {
		column string
		value  *string
	}{
		{"transcript_json_path", u.TranscriptJSONPath},
		{"transcript_text_path", u.TranscriptTextPath},
		{"short_notes_path", u.ShortNotesPath},
		{"detailed_notes_path", u.DetailedNotesPath},
		{"flashcards_path", u.FlashcardsPath},
		{"quiz_path", u.QuizPath},
		{"script_path", u.ScriptPath},
		{"narrated_audio_path", u.NarratedAudioPath},
	}
	for _, p := range paths {
		switch {
		case p.value != nil:
			add(p.column, *p.value)
		case u.ClearArtifacts:
			set = append(set, p.column+" = NULL")
		}
	}
	return set, args
}

// Delete removes a lecture record. Stored artifacts are left in place.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lectures WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lecture: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
