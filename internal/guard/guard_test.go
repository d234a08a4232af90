package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drumline-app/drumline/internal/domain"
	apperrors "github.com/drumline-app/drumline/internal/errors"
	"github.com/drumline-app/drumline/internal/identity"
)

// fakeResourceRepo returns canned resources by id.
type fakeResourceRepo struct {
	resources map[uuid.UUID]*domain.Resource
	err       error
}

func (f *fakeResourceRepo) Get(_ context.Context, _ domain.ResourceKind, id uuid.UUID) (*domain.Resource, error) {
	if f.err != nil {
		return nil, f.err
	}
	res, ok := f.resources[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	return res, nil
}

type noMemberships struct{}

func (noMemberships) ListForUser(context.Context, uuid.UUID) ([]domain.Membership, error) {
	return nil, nil
}

// contextFor resolves a security context for a principal the way the
// authentication middleware would.
func contextFor(t *testing.T, userID uuid.UUID, role domain.Role, schoolID int64) *identity.SecurityContext {
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

func lessonGuard(repo *fakeResourceRepo, opts Options) *ResourceGuard {
	return NewResourceGuard(repo, map[domain.ResourceKind]Options{
		domain.KindLesson: opts,
	})
}

func TestCheck_NilContext(t *testing.T) {
	g := lessonGuard(&fakeResourceRepo{}, Options{})

	_, err := g.Check(context.Background(), nil, domain.KindLesson, uuid.New())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeUnauthenticated))
}

func TestCheck_AbsentResourceIsNotFound(t *testing.T) {
	g := lessonGuard(&fakeResourceRepo{}, Options{AllowAdmin: true})
	sc := contextFor(t, uuid.New(), domain.RoleAdmin, 1)

	_, err := g.Check(context.Background(), sc, domain.KindLesson, uuid.New())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeNotFound))
}

func TestCheck_ForeignSchoolIsPermissionDenied(t *testing.T) {
	lessonID := uuid.New()
	repo := &fakeResourceRepo{resources: map[uuid.UUID]*domain.Resource{
		lessonID: {Kind: domain.KindLesson, ID: lessonID, SchoolID: 2},
	}}
	g := lessonGuard(repo, Options{AllowAdmin: true})
	sc := contextFor(t, uuid.New(), domain.RoleAdmin, 1)

	_, err := g.Check(context.Background(), sc, domain.KindLesson, lessonID)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypePermissionDenied),
		"existing records in other schools are denied, not hidden")
}

func TestCheck_StorageFailureIsCollaboratorError(t *testing.T) {
	repo := &fakeResourceRepo{err: errors.New("connection reset")}
	g := lessonGuard(repo, Options{AllowAdmin: true})
	sc := contextFor(t, uuid.New(), domain.RoleAdmin, 1)

	_, err := g.Check(context.Background(), sc, domain.KindLesson, uuid.New())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeCollaborator))
}

func TestCheck_AdminAccess(t *testing.T) {
	lessonID := uuid.New()
	repo := &fakeResourceRepo{resources: map[uuid.UUID]*domain.Resource{
		lessonID: {Kind: domain.KindLesson, ID: lessonID, SchoolID: 1},
	}}
	sc := contextFor(t, uuid.New(), domain.RoleAdmin, 1)

	res, err := lessonGuard(repo, Options{AllowAdmin: true}).Check(
		context.Background(), sc, domain.KindLesson, lessonID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.SchoolID)

	_, err = lessonGuard(repo, Options{}).Check(
		context.Background(), sc, domain.KindLesson, lessonID)
	assert.True(t, apperrors.IsType(err, apperrors.TypePermissionDenied),
		"the zero options value denies admins too")
}

func TestCheck_TeacherMatchCreator(t *testing.T) {
	teacherID := uuid.New()
	otherTeacherID := uuid.New()
	created := uuid.New()
	assigned := uuid.New()
	foreign := uuid.New()
	repo := &fakeResourceRepo{resources: map[uuid.UUID]*domain.Resource{
		created:  {Kind: domain.KindLesson, ID: created, SchoolID: 1, CreatorID: teacherID},
		assigned: {Kind: domain.KindLesson, ID: assigned, SchoolID: 1, AssigneeID: teacherID},
		foreign:  {Kind: domain.KindLesson, ID: foreign, SchoolID: 1, CreatorID: otherTeacherID},
	}}
	g := lessonGuard(repo, Options{AllowTeacher: true, MatchCreator: true})
	sc := contextFor(t, teacherID, domain.RoleTeacher, 1)

	_, err := g.Check(context.Background(), sc, domain.KindLesson, created)
	assert.NoError(t, err, "creator may access")

	_, err = g.Check(context.Background(), sc, domain.KindLesson, assigned)
	assert.NoError(t, err, "assignee may access")

	_, err = g.Check(context.Background(), sc, domain.KindLesson, foreign)
	assert.True(t, apperrors.IsType(err, apperrors.TypePermissionDenied))
}

func TestCheck_TeacherWithoutMatchCreatorSeesSchoolWide(t *testing.T) {
	lessonID := uuid.New()
	repo := &fakeResourceRepo{resources: map[uuid.UUID]*domain.Resource{
		lessonID: {Kind: domain.KindLesson, ID: lessonID, SchoolID: 1, CreatorID: uuid.New()},
	}}
	g := lessonGuard(repo, Options{AllowTeacher: true})
	sc := contextFor(t, uuid.New(), domain.RoleTeacher, 1)

	_, err := g.Check(context.Background(), sc, domain.KindLesson, lessonID)
	assert.NoError(t, err)
}

func TestCheck_StudentStrictOwnerMatch(t *testing.T) {
	studentID := uuid.New()
	own := uuid.New()
	other := uuid.New()
	repo := &fakeResourceRepo{resources: map[uuid.UUID]*domain.Resource{
		own:   {Kind: domain.KindLesson, ID: own, SchoolID: 1, OwnerID: studentID},
		other: {Kind: domain.KindLesson, ID: other, SchoolID: 1, OwnerID: uuid.New()},
	}}
	g := lessonGuard(repo, Options{AllowStudent: true})
	sc := contextFor(t, studentID, domain.RoleStudent, 1)

	_, err := g.Check(context.Background(), sc, domain.KindLesson, own)
	assert.NoError(t, err)

	_, err = g.Check(context.Background(), sc, domain.KindLesson, other)
	assert.True(t, apperrors.IsType(err, apperrors.TypePermissionDenied),
		"students never see other students' records, same school or not")
}

func TestCheck_SuperBypassesOptions(t *testing.T) {
	lessonID := uuid.New()
	repo := &fakeResourceRepo{resources: map[uuid.UUID]*domain.Resource{
		lessonID: {Kind: domain.KindLesson, ID: lessonID, SchoolID: 42},
	}}
	g := lessonGuard(repo, Options{})
	sc := contextFor(t, uuid.New(), domain.RoleSuper, 0)

	res, err := g.Check(context.Background(), sc, domain.KindLesson, lessonID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.SchoolID)
}
