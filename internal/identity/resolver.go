package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/drumline-app/drumline/internal/domain"
	apperrors "github.com/drumline-app/drumline/internal/errors"
	"github.com/drumline-app/drumline/internal/logging"
	"github.com/drumline-app/drumline/internal/metrics"
)

// Resolver turns authenticated principals into security contexts. It is safe
// for concurrent use; all state is read-only after construction.
type Resolver struct {
	memberships domain.MembershipRepository
	ranks       domain.RoleRanks
}

// NewResolver creates a resolver over the membership storage collaborator.
// ranks must be the same table used by the guards so that rank comparisons
// agree everywhere.
func NewResolver(memberships domain.MembershipRepository, ranks domain.RoleRanks) *Resolver {
	return &Resolver{memberships: memberships, ranks: ranks}
}

// Resolve builds the security context for a verified principal.
//
// Super principals get a synthetic all-schools context without a membership
// lookup. Admins use their home school, falling back to a school where they
// hold an admin membership; an admin credential with neither resolves without
// a primary school, since adopting a lower-role membership would apply the
// declared admin role to a school that never granted it. Teachers use their
// home school, falling back to their first membership. Students must already
// carry a home school; a student credential without one is rejected as
// misconfigured rather than silently assigned a fallback, because students
// are the role with the least trust and the smallest acceptable privilege
// surface.
//
// A membership lookup failure degrades to an empty membership set and is
// logged; it never fails the request on its own.
func (r *Resolver) Resolve(ctx context.Context, p domain.Principal) (*SecurityContext, error) {
	if p.ID == uuid.Nil {
		metrics.ContextResolutionsTotal.WithLabelValues("unauthenticated").Inc()
		return nil, apperrors.Unauthenticated("no verified principal")
	}

	if p.DeclaredRole == domain.RoleSuper {
		metrics.ContextResolutionsTotal.WithLabelValues("super").Inc()
		return &SecurityContext{
			userID:   p.ID,
			schoolID: p.HomeSchoolID,
			role:     domain.RoleSuper,
			ranks:    r.ranks,
			super:    true,
		}, nil
	}

	if p.DeclaredRole == domain.RoleStudent && !p.HasHomeSchool() {
		metrics.ContextResolutionsTotal.WithLabelValues("misconfigured").Inc()
		return nil, apperrors.Misconfigured("student account has no school").
			WithContext("user_id", p.ID.String())
	}

	memberships, err := r.memberships.ListForUser(ctx, p.ID)
	if err != nil {
		logging.WithUser(p.ID).Warn("Membership lookup failed, continuing with empty set",
			"error", err)
		metrics.MembershipLookupFailures.Inc()
		memberships = nil
	}

	sc := &SecurityContext{
		userID:      p.ID,
		schoolID:    p.HomeSchoolID,
		role:        p.DeclaredRole,
		memberships: memberships,
		ranks:       r.ranks,
	}

	if sc.schoolID == 0 {
		switch p.DeclaredRole {
		case domain.RoleAdmin:
			// Only an admin-role row may become the primary school. A
			// lower-role membership must not be promoted to the declared
			// admin role.
			for _, m := range memberships {
				if m.Role == domain.RoleAdmin {
					sc.schoolID = m.SchoolID
					break
				}
			}
		case domain.RoleTeacher:
			if len(memberships) > 0 {
				sc.schoolID = memberships[0].SchoolID
			}
		}
		if sc.schoolID == 0 {
			logging.WithUser(p.ID).Warn("Principal resolved without a school",
				"role", string(p.DeclaredRole))
		}
	}

	metrics.ContextResolutionsTotal.WithLabelValues("ok").Inc()
	return sc, nil
}
