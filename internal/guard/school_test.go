package guard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drumline-app/drumline/internal/domain"
	apperrors "github.com/drumline-app/drumline/internal/errors"
	"github.com/drumline-app/drumline/internal/identity"
)

// invoke runs the same-school middleware around a handler that records the
// resolved school id.
func invoke(t *testing.T, req *http.Request, sc *identity.SecurityContext, paramID string) (int64, []byte, error) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if paramID != "" {
		c.SetParamNames("schoolID")
		c.SetParamValues(paramID)
	}
	if sc != nil {
		c.SetRequest(req.WithContext(identity.NewContext(req.Context(), sc)))
	}

	var resolved int64
	var body []byte
	handler := RequireSameSchool()(func(c echo.Context) error {
		resolved = SchoolIDFrom(c)
		if c.Request().Body != nil {
			body, _ = io.ReadAll(c.Request().Body)
		}
		return c.NoContent(http.StatusOK)
	})

	return resolved, body, handler(c)
}

func teacherContext(t *testing.T, schoolID int64) *identity.SecurityContext {
	t.Helper()
	resolver := identity.NewResolver(noMemberships{}, domain.DefaultRoleRanks())
	sc, err := resolver.Resolve(context.Background(), domain.Principal{
		ID:           uuid.New(),
		DeclaredRole: domain.RoleTeacher,
		HomeSchoolID: schoolID,
	})
	require.NoError(t, err)
	return sc
}

func TestRequireSameSchool_NoContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, _, err := invoke(t, req, nil, "")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeUnauthenticated))
}

func TestRequireSameSchool_FromRouteParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	resolved, _, err := invoke(t, req, teacherContext(t, 3), "3")

	require.NoError(t, err)
	assert.Equal(t, int64(3), resolved)
}

func TestRequireSameSchool_FromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?school_id=3", nil)

	resolved, _, err := invoke(t, req, teacherContext(t, 3), "")

	require.NoError(t, err)
	assert.Equal(t, int64(3), resolved)
}

func TestRequireSameSchool_FromBodyAndBodySurvives(t *testing.T) {
	payload := `{"school_id":3,"title":"rudiments"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	resolved, body, err := invoke(t, req, teacherContext(t, 3), "")

	require.NoError(t, err)
	assert.Equal(t, int64(3), resolved)

	// The middleware peeks at the body; the handler must still be able to
	// bind the full payload afterwards.
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "rudiments", decoded["title"])
}

func TestRequireSameSchool_DefaultsToPrimarySchool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	resolved, _, err := invoke(t, req, teacherContext(t, 9), "")

	require.NoError(t, err)
	assert.Equal(t, int64(9), resolved)
}

func TestRequireSameSchool_DeniesForeignSchool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?school_id=4", nil)

	_, _, err := invoke(t, req, teacherContext(t, 3), "")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypePermissionDenied))
}

func TestRequireSameSchool_RejectsMalformedID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?school_id=abc", nil)

	_, _, err := invoke(t, req, teacherContext(t, 3), "")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeValidation))
}
