package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drumline-app/drumline/internal/domain"
)

// MembershipRepo implements domain.MembershipRepository backed by PostgreSQL.
type MembershipRepo struct {
	pool *pgxpool.Pool
}

// NewMembershipRepo creates a membership repository over the shared pool.
func NewMembershipRepo(pool *pgxpool.Pool) *MembershipRepo {
	return &MembershipRepo{pool: pool}
}

// ListForUser returns every membership row of a user.
func (r *MembershipRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Membership, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT school_id, user_id, role
		FROM memberships
		WHERE user_id = $1
		ORDER BY school_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var memberships []domain.Membership
	for rows.Next() {
		var m domain.Membership
		var role string
		if err := rows.Scan(&m.SchoolID, &m.UserID, &role); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		parsed, err := domain.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("membership row carries %w", err)
		}
		m.Role = parsed
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}
