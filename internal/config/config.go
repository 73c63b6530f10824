package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	AppEnv    string
	HTTPPort  int
	WSPort    int
	LogLevel  string
	LogFormat string
	DataDir   string
	PublicDir string
}

func Load() (*Config, error) {
	httpPort, err := getEnvInt("HTTP_PORT", 3000)
	if err != nil {
		return nil, err
	}
	wsPort, err := getEnvInt("WS_PORT", 3001)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		HTTPPort:  httpPort,
		WSPort:    wsPort,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		DataDir:   getEnv("DATA_DIR", "data"),
		PublicDir: getEnv("PUBLIC_DIR", "public"),
	}

	if cfg.HTTPPort == cfg.WSPort {
		return nil, fmt.Errorf("HTTP_PORT and WS_PORT must differ, both are %d", cfg.HTTPPort)
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("DATA_DIR is required")
	}
	if cfg.PublicDir == "" {
		return nil, fmt.Errorf("PUBLIC_DIR is required")
	}

	return cfg, nil
}

// LibraryDir is where saved HTML documents and their metadata live.
func (c *Config) LibraryDir() string { return filepath.Join(c.DataDir, "custom") }

// CanvasDir is where uploaded canvas and scene images land.
func (c *Config) CanvasDir() string { return filepath.Join(c.DataDir, "canvas") }

// ScenesDir holds scene asset files served under /scenes/.
func (c *Config) ScenesDir() string { return filepath.Join(c.DataDir, "scenes") }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
