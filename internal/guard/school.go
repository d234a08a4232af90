package guard

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "github.com/drumline-app/drumline/internal/errors"
	"github.com/drumline-app/drumline/internal/identity"
)

// schoolIDContextKey is where RequireSameSchool stores the resolved school id
// for downstream handlers.
const schoolIDContextKey = "schoolID"

// SchoolIDFrom returns the school id resolved by RequireSameSchool, or 0.
func SchoolIDFrom(c echo.Context) int64 {
	id, _ := c.Get(schoolIDContextKey).(int64)
	return id
}

// RequireSameSchool is the composite same-school guard. It extracts a
// candidate school id from the route parameter, then the query string, then a
// JSON body field (first match wins), defaults to the caller's primary school
// when none is supplied, and denies unless the security context can access
// the candidate. The resolved id is stored on the echo context.
func RequireSameSchool() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sc := identity.FromContext(c.Request().Context())
			if sc == nil {
				return apperrors.Unauthenticated("no verified principal")
			}

			candidate, err := extractSchoolID(c)
			if err != nil {
				return err
			}
			if candidate == 0 {
				candidate = sc.SchoolID()
			}

			if !sc.CanAccessSchool(candidate) {
				return apperrors.PermissionDenied("no access to this school").
					WithContext("school_id", candidate)
			}

			c.Set(schoolIDContextKey, candidate)
			return next(c)
		}
	}
}

// extractSchoolID searches route param, query, then body for a school id.
// Returns 0 when no candidate is supplied anywhere.
func extractSchoolID(c echo.Context) (int64, error) {
	if raw := c.Param("schoolID"); raw != "" {
		return parseSchoolID(raw)
	}
	if raw := c.QueryParam("school_id"); raw != "" {
		return parseSchoolID(raw)
	}
	return peekBodySchoolID(c)
}

func parseSchoolID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid school id")
	}
	return id, nil
}

// peekBodySchoolID reads a school_id field out of a JSON body without
// consuming it; the body is restored so handlers can bind it again.
func peekBodySchoolID(c echo.Context) (int64, error) {
	req := c.Request()
	if req.Body == nil || req.ContentLength == 0 {
		return 0, nil
	}

	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return 0, apperrors.Validation("unreadable request body")
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))

	var probe struct {
		SchoolID json.Number `json:"school_id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || probe.SchoolID == "" {
		return 0, nil
	}
	id, err := probe.SchoolID.Int64()
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid school id")
	}
	return id, nil
}
