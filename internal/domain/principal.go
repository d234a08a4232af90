package domain

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the ground truth handed over by the authentication
// collaborator for a verified request or connection handshake. The role and
// home school are taken from the verified credential, never from client
// supplied fields, and the struct is treated as read-only.
type Principal struct {
	ID           uuid.UUID
	DeclaredRole Role
	// HomeSchoolID is the principal's primary school, 0 when the credential
	// carries none (possible for super and legacy teacher accounts).
	HomeSchoolID int64
}

// HasHomeSchool reports whether the credential carried a primary school.
func (p Principal) HasHomeSchool() bool { return p.HomeSchoolID > 0 }

// Membership ties a principal to one school with one role. Principals may
// hold memberships in several schools (a teacher working at two schools).
type Membership struct {
	SchoolID int64
	UserID   uuid.UUID
	Role     Role
}

// MembershipRepository is the storage collaborator view needed to resolve a
// security context. Lookup failures degrade to an empty membership set at the
// caller; the repository just reports them.
type MembershipRepository interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Membership, error)
}
