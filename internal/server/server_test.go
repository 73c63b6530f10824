package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/Giorgiomufen/display-sync/internal/blob"
	"github.com/Giorgiomufen/display-sync/internal/config"
	"github.com/Giorgiomufen/display-sync/internal/hub"
	"github.com/Giorgiomufen/display-sync/internal/library"
	"github.com/Giorgiomufen/display-sync/internal/state"
)

type serverFixture struct {
	server  *Server
	config  *config.Config
	library *library.Store
	web     *httptest.Server
	ws      *httptest.Server
}

// testServer builds a full Server against temp dirs and exposes both
// listeners through httptest.
func testServer(t *testing.T) serverFixture {
	t.Helper()

	cfg := &config.Config{
		AppEnv:    "test",
		HTTPPort:  3000,
		WSPort:    3001,
		LogLevel:  "error",
		LogFormat: "text",
		DataDir:   t.TempDir(),
		PublicDir: t.TempDir(),
	}

	writeFile(t, cfg.PublicDir, "control.html", "<html>control</html>")
	writeFile(t, cfg.PublicDir, "display.html", "<html>display</html>")

	clock := clockwork.NewRealClock()
	lib, err := library.NewStore(cfg.LibraryDir(), clock)
	require.NoError(t, err)
	uploads, err := blob.NewUploader(cfg.CanvasDir(), clock)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.ScenesDir(), "custom"), 0o755))

	h := hub.New(state.NewStore(), lib, uploads, hub.AddressInfo{LANIP: "127.0.0.1", HTTPPort: cfg.HTTPPort}, clock)
	t.Cleanup(func() { h.Stop() })

	srv := NewServer(cfg, h, lib)

	web := httptest.NewServer(srv.web)
	t.Cleanup(web.Close)
	ws := httptest.NewServer(srv.ws)
	t.Cleanup(ws.Close)

	return serverFixture{server: srv, config: cfg, library: lib, web: web, ws: ws}
}

func writeFile(t *testing.T, dir string, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func get(t *testing.T, base, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(base + path)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, body
}
