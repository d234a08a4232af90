package domain

import "fmt"

// Role is a principal's function within a school. Comparisons between roles
// always go through numeric ranks so that "at least teacher" style checks
// cannot drift out of sync with ad hoc name lists.
type Role string

const (
	// RoleStudent is the lowest-trust role. Students only ever see their
	// own records.
	RoleStudent Role = "student"
	// RoleTeacher covers school staff giving lessons.
	RoleTeacher Role = "teacher"
	// RoleAdmin is the school owner/administrator role with blanket access
	// inside their own school.
	RoleAdmin Role = "admin"
	// RoleSuper is the cross-school platform operator role.
	RoleSuper Role = "super"
)

// RoleRanks maps role names to numeric trust ranks. Higher rank means more
// trust. The table is part of the externally supplied policy surface; the
// defaults below are used when no policy file overrides them.
type RoleRanks map[Role]int

// DefaultRoleRanks returns the built-in rank table.
func DefaultRoleRanks() RoleRanks {
	return RoleRanks{
		RoleStudent: 10,
		RoleTeacher: 20,
		RoleAdmin:   30,
		RoleSuper:   40,
	}
}

// Rank returns the numeric rank for a role, or 0 for unknown roles so that
// unknown roles never outrank a known one.
func (r RoleRanks) Rank(role Role) int {
	return r[role]
}

// AtLeast reports whether role has at least the rank of min.
func (r RoleRanks) AtLeast(role, min Role) bool {
	return r.Rank(role) >= r.Rank(min) && r.Rank(role) > 0
}

// ParseRole validates a role name coming from an external source.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleTeacher, RoleAdmin, RoleSuper:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}
