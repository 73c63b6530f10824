package server

import (
	"fmt"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Giorgiomufen/display-sync/internal/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()
	return c.JSON(200, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"library_dir", func() error { return checkDir(s.config.LibraryDir()) }},
		{"canvas_dir", func() error { return checkDir(s.config.CanvasDir()) }},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			return c.JSON(503, map[string]any{
				"status":       "unhealthy",
				"failed_check": check.name,
				"error":        err.Error(),
			})
		}
	}

	return c.JSON(200, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(200, version.Get())
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
