package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/drumline-app/drumline/internal/domain"
	apperrors "github.com/drumline-app/drumline/internal/errors"
	"github.com/drumline-app/drumline/internal/guard"
	"github.com/drumline-app/drumline/internal/identity"
	"github.com/drumline-app/drumline/internal/realtime"
)

type createLessonRequest struct {
	SchoolID  int64     `json:"school_id"`
	StudentID uuid.UUID `json:"student_id"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
}

type updateLessonRequest struct {
	Title    string    `json:"title"`
	StartsAt time.Time `json:"starts_at"`
}

// handleCreateLesson creates a lesson in the guarded school and announces it
// to that school's audience. The same-school middleware has already resolved
// and authorized the target school.
func (s *Server) handleCreateLesson(c echo.Context) error {
	ctx := c.Request().Context()
	sc := identity.FromContext(ctx)
	if sc == nil {
		return apperrors.Unauthenticated("no verified principal")
	}

	var req createLessonRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid lesson payload")
	}
	if req.Title == "" || req.StudentID == uuid.Nil || req.StartsAt.IsZero() {
		return apperrors.Validation("title, student_id and starts_at are required")
	}

	schoolID := guard.SchoolIDFrom(c)
	if !sc.AtLeast(schoolID, domain.RoleTeacher) {
		return apperrors.PermissionDenied("teacher role required").
			WithContext("school_id", schoolID)
	}

	lesson, err := s.lessons.Create(ctx, schoolID, req.StudentID, sc.UserID(), req.Title, req.StartsAt)
	if err != nil {
		return apperrors.Collaborator("lesson store", err)
	}

	s.dispatcher.Dispatch(ctx, realtime.EntityLesson, realtime.ActionCreate,
		lesson.ID.String(), lesson, schoolID)

	return c.JSON(http.StatusCreated, lesson)
}

// handleUpdateLesson rewrites a lesson after the resource guard approves the
// caller for that specific row.
func (s *Server) handleUpdateLesson(c echo.Context) error {
	ctx := c.Request().Context()
	sc := identity.FromContext(ctx)
	if sc == nil {
		return apperrors.Unauthenticated("no verified principal")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.Validation("invalid lesson id")
	}

	var req updateLessonRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid lesson payload")
	}
	if req.Title == "" || req.StartsAt.IsZero() {
		return apperrors.Validation("title and starts_at are required")
	}

	res, err := s.resourceGuard.Check(ctx, sc, domain.KindLesson, id)
	if err != nil {
		return err
	}

	lesson, err := s.lessons.Update(ctx, id, req.Title, req.StartsAt)
	if err != nil {
		if errors.Is(err, domain.ErrResourceNotFound) {
			return apperrors.NotFound("lesson")
		}
		return apperrors.Collaborator("lesson store", err)
	}

	s.dispatcher.Dispatch(ctx, realtime.EntityLesson, realtime.ActionUpdate,
		lesson.ID.String(), lesson, res.SchoolID)

	return c.JSON(http.StatusOK, lesson)
}

// handleDeleteLesson removes a lesson after the guard approves, then
// announces the deletion with only the entity id as payload.
func (s *Server) handleDeleteLesson(c echo.Context) error {
	ctx := c.Request().Context()
	sc := identity.FromContext(ctx)
	if sc == nil {
		return apperrors.Unauthenticated("no verified principal")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.Validation("invalid lesson id")
	}

	res, err := s.resourceGuard.Check(ctx, sc, domain.KindLesson, id)
	if err != nil {
		return err
	}

	if err := s.lessons.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrResourceNotFound) {
			return apperrors.NotFound("lesson")
		}
		return apperrors.Collaborator("lesson store", err)
	}

	s.dispatcher.Dispatch(ctx, realtime.EntityLesson, realtime.ActionDelete,
		id.String(), map[string]string{"id": id.String()}, res.SchoolID)

	return c.NoContent(http.StatusNoContent)
}
