package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleLibraryListing(c echo.Context) error {
	entries, err := s.library.List()
	if err != nil {
		slog.Error("Failed to list library", "error", err)
		return c.String(500, "Failed to list library")
	}
	return c.JSON(200, entries)
}
