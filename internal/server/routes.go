package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.web.GET("/health/live", s.handleLiveness)
	s.web.GET("/health/ready", s.handleReadiness)
	s.web.GET("/version", s.handleVersion)
	s.web.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Read-only library listing
	s.web.GET("/api/library", s.handleLibraryListing)

	// UI pages: controls at / and /control, displays at any /d-prefixed path
	s.web.GET("/", s.handleControlPage)
	s.web.GET("/control", s.handleControlPage)
	s.web.GET("/d*", s.handleDisplayPage)

	// Blob content
	s.web.GET("/canvas/:file", s.handleCanvasFile)
	s.web.GET("/scenes/*", s.handleSceneFile)

	// Everything else resolves against the public asset root
	s.web.GET("/*", s.handleStatic)

	// Message endpoint on its own listener
	s.ws.GET("/", s.handleWebSocket)
	s.ws.GET("/ws", s.handleWebSocket)
}
