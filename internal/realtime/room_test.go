package realtime

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drumline-app/drumline/internal/domain"
	"github.com/drumline-app/drumline/internal/identity"
)

type noMemberships struct{}

func (noMemberships) ListForUser(context.Context, uuid.UUID) ([]domain.Membership, error) {
	return nil, nil
}

// securityContext resolves a test security context through the real resolver.
func securityContext(t *testing.T, userID uuid.UUID, role domain.Role, schoolID int64) *identity.SecurityContext {
	t.Helper()
	resolver := identity.NewResolver(noMemberships{}, domain.DefaultRoleRanks())
	sc, err := resolver.Resolve(context.Background(), domain.Principal{
		ID:           userID,
		DeclaredRole: role,
		HomeSchoolID: schoolID,
	})
	require.NoError(t, err)
	return sc
}

func TestRoomTopics(t *testing.T) {
	userID := uuid.MustParse("7b7f2a40-0000-4000-8000-000000000001")

	assert.Equal(t, "school:5", SchoolRoom{SchoolID: 5}.Topic())
	assert.Equal(t, "school:5:teacher", SchoolRoleRoom{SchoolID: 5, Role: domain.RoleTeacher}.Topic())
	assert.Equal(t, "user:"+userID.String(), UserRoom{UserID: userID}.Topic())
	assert.Equal(t, fmt.Sprintf("teacher:%s", userID), RoleUserRoom{Role: domain.RoleTeacher, UserID: userID}.Topic())
}

func TestRoomsFor_TeacherWithSchool(t *testing.T) {
	userID := uuid.New()
	sc := securityContext(t, userID, domain.RoleTeacher, 5)

	topics := Topics(RoomsFor(sc))

	assert.ElementsMatch(t, []string{
		"user:" + userID.String(),
		"school:5",
		"school:5:teacher",
		"teacher:" + userID.String(),
	}, topics)
}

func TestRoomsFor_NoSchoolYieldsOnlyUserRoom(t *testing.T) {
	userID := uuid.New()
	sc := securityContext(t, userID, domain.RoleSuper, 0)

	topics := Topics(RoomsFor(sc))

	assert.Equal(t, []string{"user:" + userID.String()}, topics)
}

func TestRoomsFor_Deterministic(t *testing.T) {
	sc := securityContext(t, uuid.New(), domain.RoleStudent, 2)

	assert.Equal(t, Topics(RoomsFor(sc)), Topics(RoomsFor(sc)))
}
