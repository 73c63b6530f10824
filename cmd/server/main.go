package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Giorgiomufen/display-sync/internal/blob"
	"github.com/Giorgiomufen/display-sync/internal/config"
	"github.com/Giorgiomufen/display-sync/internal/hub"
	"github.com/Giorgiomufen/display-sync/internal/library"
	"github.com/Giorgiomufen/display-sync/internal/logging"
	"github.com/Giorgiomufen/display-sync/internal/netutil"
	"github.com/Giorgiomufen/display-sync/internal/server"
	"github.com/Giorgiomufen/display-sync/internal/state"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupStores(cfg *config.Config, clock clockwork.Clock) (*library.Store, *blob.Uploader) {
	lib, err := library.NewStore(cfg.LibraryDir(), clock)
	if err != nil {
		slog.Error("Failed to open library store", "error", err)
		os.Exit(1)
	}

	uploads, err := blob.NewUploader(cfg.CanvasDir(), clock)
	if err != nil {
		slog.Error("Failed to open upload store", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Join(cfg.ScenesDir(), "custom"), 0o755); err != nil {
		slog.Error("Failed to create scenes dir", "error", err)
		os.Exit(1)
	}

	return lib, uploads
}

func runGracefulShutdown(srv *server.Server, h *hub.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		h.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "http_port", cfg.HTTPPort, "ws_port", cfg.WSPort)

	lib, uploads := setupStores(cfg, clock)
	stateStore := state.NewStore()

	lanIP := netutil.LocalIP()
	h := hub.New(stateStore, lib, uploads, hub.AddressInfo{LANIP: lanIP, HTTPPort: cfg.HTTPPort}, clock)

	srv := server.NewServer(cfg, h, lib)

	done := runGracefulShutdown(srv, h)

	slog.Info("Control panel ready", "url", fmt.Sprintf("http://localhost:%d/", cfg.HTTPPort))
	slog.Info("Displays connect at", "url", fmt.Sprintf("http://localhost:%d/d1", cfg.HTTPPort), "lan", fmt.Sprintf("http://%s:%d/", lanIP, cfg.HTTPPort))
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
