package domain

import (
	"context"

	"github.com/google/uuid"
)

// ResourceKind names a guarded resource type. The set is closed: repository
// implementations map each kind to its own table and refuse unknown kinds.
type ResourceKind string

const (
	KindLesson     ResourceKind = "lesson"
	KindStudent    ResourceKind = "student"
	KindMessage    ResourceKind = "message"
	KindAttendance ResourceKind = "attendance"
	KindInvoice    ResourceKind = "invoice"
)

// Resource is the minimal ownership projection of a stored record that guard
// evaluation needs: which school it belongs to, which user it is about, and
// who created or is assigned to it.
type Resource struct {
	Kind     ResourceKind
	ID       uuid.UUID
	SchoolID int64
	// OwnerID is the identity the record is about (e.g. the student a lesson
	// belongs to). Students must match it exactly.
	OwnerID uuid.UUID
	// CreatorID is the user who created the record, uuid.Nil when unknown.
	CreatorID uuid.UUID
	// AssigneeID is the staff member assigned to the record, uuid.Nil when
	// unassigned.
	AssigneeID uuid.UUID
}

// ResourceRepository is the storage collaborator view used by resource-scoped
// guards. Get returns ErrResourceNotFound when the record is truly absent.
type ResourceRepository interface {
	Get(ctx context.Context, kind ResourceKind, id uuid.UUID) (*Resource, error)
}
