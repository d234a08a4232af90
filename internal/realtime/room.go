package realtime

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/drumline-app/drumline/internal/domain"
	"github.com/drumline-app/drumline/internal/identity"
)

// Room is a tagged union of addressable broadcast groups. Modeling rooms as
// types instead of bare strings keeps routing exhaustively checkable; Topic
// is the single place where wire-level topic names are produced.
type Room interface {
	// Topic returns the wire-level topic string for this room.
	Topic() string
	sealedRoom()
}

// SchoolRoom addresses every connection of one school.
type SchoolRoom struct {
	SchoolID int64
}

func (r SchoolRoom) Topic() string { return fmt.Sprintf("school:%d", r.SchoolID) }
func (SchoolRoom) sealedRoom()     {}

// SchoolRoleRoom addresses connections of one role within one school.
type SchoolRoleRoom struct {
	SchoolID int64
	Role     domain.Role
}

func (r SchoolRoleRoom) Topic() string {
	return fmt.Sprintf("school:%d:%s", r.SchoolID, r.Role)
}
func (SchoolRoleRoom) sealedRoom() {}

// UserRoom addresses every connection of one user.
type UserRoom struct {
	UserID uuid.UUID
}

func (r UserRoom) Topic() string { return "user:" + r.UserID.String() }
func (UserRoom) sealedRoom()     {}

// RoleUserRoom addresses one user's connections under their role, e.g.
// "teacher:<id>". Kept for role-scoped direct notifications.
type RoleUserRoom struct {
	Role   domain.Role
	UserID uuid.UUID
}

func (r RoleUserRoom) Topic() string {
	return fmt.Sprintf("%s:%s", r.Role, r.UserID)
}
func (RoleUserRoom) sealedRoom() {}

// RoomsFor is the deterministic function from a security context to its room
// set: the user room always, plus the school rooms when the context carries a
// school. It is pure; calling it twice with the same context yields the same
// rooms, and it is the only way room membership is ever derived.
func RoomsFor(sc *identity.SecurityContext) []Room {
	rooms := []Room{UserRoom{UserID: sc.UserID()}}
	if sc.SchoolID() > 0 {
		rooms = append(rooms,
			SchoolRoom{SchoolID: sc.SchoolID()},
			SchoolRoleRoom{SchoolID: sc.SchoolID(), Role: sc.Role()},
			RoleUserRoom{Role: sc.Role(), UserID: sc.UserID()},
		)
	}
	return rooms
}

// Topics maps rooms to their wire-level topic strings.
func Topics(rooms []Room) []string {
	out := make([]string, len(rooms))
	for i, r := range rooms {
		out[i] = r.Topic()
	}
	return out
}
