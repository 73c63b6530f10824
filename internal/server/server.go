package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Giorgiomufen/display-sync/internal/config"
	"github.com/Giorgiomufen/display-sync/internal/domain"
	"github.com/Giorgiomufen/display-sync/internal/hub"
)

// libraryLister is the read-only slice of the library the HTTP API needs.
type libraryLister interface {
	List() ([]domain.LibraryEntry, error)
}

type Server struct {
	web       *echo.Echo
	ws        *echo.Echo
	config    *config.Config
	hub       *hub.Hub
	library   libraryLister
	startTime time.Time
}

func NewServer(cfg *config.Config, h *hub.Hub, library libraryLister) *Server {
	web := echo.New()
	web.HideBanner = true
	web.HidePort = true
	web.Use(middleware.Recover())

	ws := echo.New()
	ws.HideBanner = true
	ws.HidePort = true
	ws.Use(middleware.Recover())

	srv := &Server{
		web:       web,
		ws:        ws,
		config:    cfg,
		hub:       h,
		library:   library,
		startTime: time.Now(),
	}

	srv.registerRoutes()

	return srv
}

// Start runs both listeners and returns the first fatal error. A clean
// Shutdown surfaces as http.ErrServerClosed, mirroring net/http.
func (s *Server) Start() error {
	errCh := make(chan error, 2)
	go func() {
		errCh <- s.ws.Start(fmt.Sprintf(":%d", s.config.WSPort))
	}()
	go func() {
		errCh <- s.web.Start(fmt.Sprintf(":%d", s.config.HTTPPort))
	}()
	return <-errCh
}

func (s *Server) Shutdown(ctx context.Context) error {
	webErr := s.web.Shutdown(ctx)
	wsErr := s.ws.Shutdown(ctx)
	if webErr != nil && !errors.Is(webErr, http.ErrServerClosed) {
		return webErr
	}
	if wsErr != nil && !errors.Is(wsErr, http.ErrServerClosed) {
		return wsErr
	}
	return nil
}
