package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drumline-app/drumline/internal/domain"
)

// resourceQueries maps each guarded kind to the query returning its ownership
// projection: school id, owner, creator, assignee. The map is the closed set
// of guarded tables; anything else is rejected before touching SQL.
var resourceQueries = map[domain.ResourceKind]string{
	domain.KindLesson: `
		SELECT school_id, student_id, created_by, assigned_to
		FROM lessons WHERE id = $1`,
	domain.KindStudent: `
		SELECT school_id, user_id, created_by, NULL::uuid
		FROM students WHERE id = $1`,
	domain.KindMessage: `
		SELECT school_id, recipient_id, sender_id, NULL::uuid
		FROM messages WHERE id = $1`,
	domain.KindAttendance: `
		SELECT school_id, student_id, recorded_by, NULL::uuid
		FROM attendance WHERE id = $1`,
	domain.KindInvoice: `
		SELECT school_id, student_id, created_by, NULL::uuid
		FROM invoices WHERE id = $1`,
}

// ResourceRepo implements domain.ResourceRepository backed by PostgreSQL.
type ResourceRepo struct {
	pool *pgxpool.Pool
}

// NewResourceRepo creates a resource repository over the shared pool.
func NewResourceRepo(pool *pgxpool.Pool) *ResourceRepo {
	return &ResourceRepo{pool: pool}
}

// Get fetches the ownership projection for one record.
func (r *ResourceRepo) Get(ctx context.Context, kind domain.ResourceKind, id uuid.UUID) (*domain.Resource, error) {
	query, ok := resourceQueries[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownResourceKind, kind)
	}

	res := domain.Resource{Kind: kind, ID: id}
	var creator, assignee *uuid.UUID
	err := r.pool.QueryRow(ctx, query, id).Scan(&res.SchoolID, &res.OwnerID, &creator, &assignee)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", kind, err)
	}

	if creator != nil {
		res.CreatorID = *creator
	}
	if assignee != nil {
		res.AssigneeID = *assignee
	}
	return &res, nil
}
