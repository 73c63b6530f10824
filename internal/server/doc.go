// Package server implements both listening endpoints using Echo.
//
// The web listener serves the control/display UI assets, uploaded blobs, the
// read-only library listing and observability routes. The ws listener upgrades
// connections and pumps inbound frames into the hub.
// Handlers split by concern: handlers_static.go, handlers_api.go,
// handlers_health.go, handlers_ws.go.
package server
