package server

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

var contentTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

func contentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

func (s *Server) handleControlPage(c echo.Context) error {
	return s.serveFile(c, filepath.Join(s.config.PublicDir, "control.html"))
}

func (s *Server) handleDisplayPage(c echo.Context) error {
	return s.serveFile(c, filepath.Join(s.config.PublicDir, "display.html"))
}

func (s *Server) handleCanvasFile(c echo.Context) error {
	// Base strips any traversal attempt; canvas filenames are flat.
	name := filepath.Base(c.Param("file"))
	return s.serveFile(c, filepath.Join(s.config.CanvasDir(), name))
}

func (s *Server) handleSceneFile(c echo.Context) error {
	return s.serveUnder(c, s.config.ScenesDir(), c.Param("*"))
}

func (s *Server) handleStatic(c echo.Context) error {
	return s.serveUnder(c, s.config.PublicDir, c.Request().URL.Path)
}

// serveUnder resolves rel inside root and serves it, refusing paths that
// escape the root.
func (s *Server) serveUnder(c echo.Context, root, rel string) error {
	rel = path.Clean("/" + rel)
	if rel == "/" {
		return c.String(404, "Not Found")
	}
	target := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, filepath.Clean(root)+string(os.PathSeparator)) {
		return c.String(404, "Not Found")
	}
	return s.serveFile(c, target)
}

func (s *Server) serveFile(c echo.Context, filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		return c.String(404, "Not Found")
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("Failed to read static file", "path", filePath, "error", err)
		return c.String(404, "Not Found")
	}
	return c.Blob(200, contentTypeFor(filePath), data)
}
