package httpserver

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/drumline-app/drumline/internal/domain"
	apperrors "github.com/drumline-app/drumline/internal/errors"
	"github.com/drumline-app/drumline/internal/identity"
)

// authenticate is the credential pipeline shared by stateless requests and
// websocket handshakes. It verifies a bearer token or a cookie session into
// a principal, resolves the security context, and attaches it to the request
// context for guards and the dispatcher.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal, err := s.principalFrom(c)
		if err != nil {
			return apperrors.Unauthenticated("no verified principal")
		}

		sc, err := s.resolver.Resolve(c.Request().Context(), principal)
		if err != nil {
			return err
		}

		c.Set("userID", sc.UserID())
		req := c.Request()
		c.SetRequest(req.WithContext(identity.NewContext(req.Context(), sc)))
		return next(c)
	}
}

// principalFrom checks the Authorization header first, then the session
// cookie. Both paths end at a verified credential; client-supplied role or
// school fields are never consulted.
func (s *Server) principalFrom(c echo.Context) (domain.Principal, error) {
	if header := c.Request().Header.Get("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			return domain.Principal{}, errors.New("malformed authorization header")
		}
		return s.verifier.Verify(token)
	}

	session, err := s.cookieStore.Get(c.Request(), sessionCookieName)
	if err != nil {
		return domain.Principal{}, err
	}
	sessionID, ok := session.Values["sid"].(string)
	if !ok || sessionID == "" {
		return domain.Principal{}, errors.New("no session")
	}
	return s.sessionStore.Get(c.Request().Context(), sessionID)
}
