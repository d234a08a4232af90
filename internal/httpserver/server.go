// Package httpserver wires the authorization core to HTTP and websocket
// transports. The websocket handshake runs the exact same authentication
// middleware as stateless requests; there is no separate token scheme for
// connections.
package httpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/drumline-app/drumline/internal/auth"
	"github.com/drumline-app/drumline/internal/config"
	apperrors "github.com/drumline-app/drumline/internal/errors"
	"github.com/drumline-app/drumline/internal/guard"
	"github.com/drumline-app/drumline/internal/identity"
	"github.com/drumline-app/drumline/internal/postgres"
	"github.com/drumline-app/drumline/internal/realtime"
)

const sessionCookieName = "drumline-session"

// Server hosts the HTTP routes and the websocket endpoint.
type Server struct {
	echo          *echo.Echo
	config        *config.Config
	verifier      *auth.TokenVerifier
	sessionStore  auth.SessionStore
	cookieStore   *sessions.CookieStore
	resolver      *identity.Resolver
	resourceGuard *guard.ResourceGuard
	lessons       *postgres.LessonRepo
	hub           *realtime.Hub
	dispatcher    *realtime.Dispatcher
	pool          *pgxpool.Pool
	redis         *goredis.Client
}

// NewServer assembles the server. All collaborators are injected; nothing
// here reaches for globals.
func NewServer(
	cfg *config.Config,
	verifier *auth.TokenVerifier,
	sessionStore auth.SessionStore,
	resolver *identity.Resolver,
	resourceGuard *guard.ResourceGuard,
	lessons *postgres.LessonRepo,
	hub *realtime.Hub,
	dispatcher *realtime.Dispatcher,
	pool *pgxpool.Pool,
	redisClient *goredis.Client,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	cookieStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	srv := &Server{
		echo:          e,
		config:        cfg,
		verifier:      verifier,
		sessionStore:  sessionStore,
		cookieStore:   cookieStore,
		resolver:      resolver,
		resourceGuard: resourceGuard,
		lessons:       lessons,
		hub:           hub,
		dispatcher:    dispatcher,
		pool:          pool,
		redis:         redisClient,
	}

	srv.registerRoutes()
	return srv
}

// Start begins serving. Blocks until Shutdown.
func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

// Shutdown drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
