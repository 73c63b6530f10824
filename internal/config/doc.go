// Package config loads server configuration from environment variables.
//
// Everything has a working default, so a bare `go run ./cmd/server` starts a
// usable instance on ports 3000 (HTTP) and 3001 (WebSocket).
package config
