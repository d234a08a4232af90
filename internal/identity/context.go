package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/drumline-app/drumline/internal/domain"
)

// SecurityContext is the immutable capability view of one authenticated
// principal for the duration of one request or connection. All fields are
// unexported; there is no way to mutate a context after Resolve builds it.
type SecurityContext struct {
	userID      uuid.UUID
	schoolID    int64
	role        domain.Role
	memberships []domain.Membership
	ranks       domain.RoleRanks
	super       bool
}

// UserID returns the authenticated principal's id.
func (sc *SecurityContext) UserID() uuid.UUID { return sc.userID }

// SchoolID returns the primary school id, 0 when the context has none.
func (sc *SecurityContext) SchoolID() int64 { return sc.schoolID }

// Role returns the primary role.
func (sc *SecurityContext) Role() domain.Role { return sc.role }

// IsSuper reports whether this is a synthetic all-schools context.
func (sc *SecurityContext) IsSuper() bool { return sc.super }

// Memberships returns a copy of the resolved membership rows.
func (sc *SecurityContext) Memberships() []domain.Membership {
	out := make([]domain.Membership, len(sc.memberships))
	copy(out, sc.memberships)
	return out
}

// CanAccessSchool reports whether the principal may touch data of the given
// school. Super contexts may access every school; everyone else needs the
// school to be their primary one or to appear in their membership rows.
func (sc *SecurityContext) CanAccessSchool(schoolID int64) bool {
	if sc.super {
		return true
	}
	if schoolID <= 0 {
		return false
	}
	if sc.schoolID == schoolID {
		return true
	}
	for _, m := range sc.memberships {
		if m.SchoolID == schoolID {
			return true
		}
	}
	return false
}

// HasRole reports whether the principal holds any of the given roles, scoped
// to schoolID when it is positive and to any school when it is 0. The primary
// role is checked first, then the membership rows. Super short-circuits to
// true like every other predicate.
func (sc *SecurityContext) HasRole(schoolID int64, roles ...domain.Role) bool {
	if sc.super {
		return true
	}
	primaryInScope := schoolID == 0 || sc.schoolID == schoolID
	for _, role := range roles {
		if primaryInScope && sc.role == role {
			return true
		}
		for _, m := range sc.memberships {
			if m.Role == role && (schoolID == 0 || m.SchoolID == schoolID) {
				return true
			}
		}
	}
	return false
}

// RoleAt returns the highest-ranked role the principal holds at the given
// school, or "" if they hold none there.
func (sc *SecurityContext) RoleAt(schoolID int64) domain.Role {
	if sc.super {
		return domain.RoleSuper
	}
	var best domain.Role
	if sc.schoolID == schoolID {
		best = sc.role
	}
	for _, m := range sc.memberships {
		if m.SchoolID == schoolID && sc.ranks.Rank(m.Role) > sc.ranks.Rank(best) {
			best = m.Role
		}
	}
	return best
}

// AtLeast reports whether the principal's role at the given school has at
// least the rank of min.
func (sc *SecurityContext) AtLeast(schoolID int64, min domain.Role) bool {
	if sc.super {
		return true
	}
	return sc.ranks.AtLeast(sc.RoleAt(schoolID), min)
}

// IsAdmin reports whether the principal is an admin of the given school.
func (sc *SecurityContext) IsAdmin(schoolID int64) bool {
	return sc.HasRole(schoolID, domain.RoleAdmin)
}

// IsTeacher reports whether the principal teaches at the given school.
func (sc *SecurityContext) IsTeacher(schoolID int64) bool {
	return sc.HasRole(schoolID, domain.RoleTeacher)
}

// IsStudent reports whether the principal is a student at the given school.
func (sc *SecurityContext) IsStudent(schoolID int64) bool {
	return sc.HasRole(schoolID, domain.RoleStudent)
}

type contextKey struct{}

// NewContext returns a context carrying the security context. Set once by the
// authentication middleware; the dispatcher reads it back as the ambient
// operation context.
func NewContext(ctx context.Context, sc *SecurityContext) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

// FromContext returns the security context carried by ctx, or nil.
func FromContext(ctx context.Context) *SecurityContext {
	sc, _ := ctx.Value(contextKey{}).(*SecurityContext)
	return sc
}
