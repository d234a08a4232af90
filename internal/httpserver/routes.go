package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drumline-app/drumline/internal/guard"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Session exchange: a verified bearer token becomes a cookie session
	s.echo.POST("/auth/session", s.handleCreateSession)
	s.echo.DELETE("/auth/session", s.handleDeleteSession)

	// Websocket endpoint; the handshake replays the stateless auth pipeline
	s.echo.GET("/ws", s.handleWebSocket, s.authenticate)

	// Lesson routes exercising the guard → mutation → dispatch chain
	api := s.echo.Group("/api", s.authenticate)
	api.POST("/lessons", s.handleCreateLesson, guard.RequireSameSchool())
	api.PUT("/lessons/:id", s.handleUpdateLesson)
	api.DELETE("/lessons/:id", s.handleDeleteLesson)
}
