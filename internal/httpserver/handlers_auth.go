package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/drumline-app/drumline/internal/errors"
)

// handleCreateSession exchanges a verified bearer token for a cookie session.
// Password verification itself lives with the authentication collaborator
// that issued the token; this endpoint only ever trusts verified credentials.
func (s *Server) handleCreateSession(c echo.Context) error {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&body); err != nil || body.Token == "" {
		return apperrors.Validation("token is required")
	}

	principal, err := s.verifier.Verify(body.Token)
	if err != nil {
		return apperrors.Unauthenticated("invalid token")
	}

	sessionID := uuid.NewString()
	if err := s.sessionStore.Put(c.Request().Context(), sessionID, principal); err != nil {
		return apperrors.Internal("failed to store session", err)
	}

	session, _ := s.cookieStore.Get(c.Request(), sessionCookieName)
	session.Values["sid"] = sessionID
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.Internal("failed to save session cookie", err)
	}

	return c.JSON(http.StatusCreated, map[string]string{"status": "ok"})
}

// handleDeleteSession logs the browser session out.
func (s *Server) handleDeleteSession(c echo.Context) error {
	session, err := s.cookieStore.Get(c.Request(), sessionCookieName)
	if err == nil {
		if sessionID, ok := session.Values["sid"].(string); ok && sessionID != "" {
			_ = s.sessionStore.Delete(c.Request().Context(), sessionID)
		}
	}

	session.Options.MaxAge = -1
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.Internal("failed to clear session cookie", err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
