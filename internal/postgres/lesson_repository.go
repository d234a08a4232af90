package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drumline-app/drumline/internal/domain"
)

// Lesson is a stored lesson row.
type Lesson struct {
	ID        uuid.UUID `json:"id"`
	SchoolID  int64     `json:"school_id"`
	StudentID uuid.UUID `json:"student_id"`
	CreatedBy uuid.UUID `json:"created_by"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
}

// LessonRepo persists lessons. The guard chain runs before any of these
// mutations; the repository itself does no authorization.
type LessonRepo struct {
	pool *pgxpool.Pool
}

// NewLessonRepo creates a lesson repository over the shared pool.
func NewLessonRepo(pool *pgxpool.Pool) *LessonRepo {
	return &LessonRepo{pool: pool}
}

// Create inserts a lesson and returns the stored row.
func (r *LessonRepo) Create(ctx context.Context, schoolID int64, studentID, createdBy uuid.UUID, title string, startsAt time.Time) (*Lesson, error) {
	var l Lesson
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lessons (school_id, student_id, created_by, assigned_to, title, starts_at)
		VALUES ($1, $2, $3, $3, $4, $5)
		RETURNING id, school_id, student_id, created_by, title, starts_at
	`, schoolID, studentID, createdBy, title, startsAt).Scan(
		&l.ID, &l.SchoolID, &l.StudentID, &l.CreatedBy, &l.Title, &l.StartsAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}
	return &l, nil
}

// Update changes a lesson's title and start time.
func (r *LessonRepo) Update(ctx context.Context, id uuid.UUID, title string, startsAt time.Time) (*Lesson, error) {
	var l Lesson
	err := r.pool.QueryRow(ctx, `
		UPDATE lessons
		SET title = $2, starts_at = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, school_id, student_id, created_by, title, starts_at
	`, id, title, startsAt).Scan(
		&l.ID, &l.SchoolID, &l.StudentID, &l.CreatedBy, &l.Title, &l.StartsAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}
	return &l, nil
}

// Delete removes a lesson.
func (r *LessonRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrResourceNotFound
	}
	return nil
}
