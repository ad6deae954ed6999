package courses

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-lectures/backend/internal/models"
)

// ErrDuplicateCode is returned when a course code is already taken.
var ErrDuplicateCode = errors.New("course code already exists")

const courseColumns = `id, code, title, description, created_at, updated_at`

// Repository handles course persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a courses repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	var c models.Course
	if err := row.Scan(&c.ID, &c.Code, &c.Title, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts a course and fills its ID and timestamps.
func (r *Repository) Create(ctx context.Context, c *models.Course) error {
	const q = `INSERT INTO courses (code, title, description) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, c.Code, c.Title, c.Description).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

// GetByID returns a course by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	return scanCourse(r.pool.QueryRow(ctx, q, id))
}

// GetByCode returns a course by its code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM courses WHERE code = $1`
	return scanCourse(r.pool.QueryRow(ctx, q, code))
}

// List returns all courses ordered by code.
func (r *Repository) List(ctx context.Context) ([]models.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM courses ORDER BY code`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()
	list := make([]models.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

// Update changes title and description. Nil fields are kept.
func (r *Repository) Update(ctx context.Context, code string, title, description *string) (*models.Course, error) {
	q := `UPDATE courses SET title = COALESCE($2, title), description = COALESCE($3, description), updated_at = NOW()
		WHERE code = $1 RETURNING ` + courseColumns
	return scanCourse(r.pool.QueryRow(ctx, q, code, title, description))
}

// Delete removes a course and, by cascade, its lectures.
func (r *Repository) Delete(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
