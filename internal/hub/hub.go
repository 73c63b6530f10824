package hub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/segmentio/ksuid"

	"github.com/Giorgiomufen/display-sync/internal/blob"
	"github.com/Giorgiomufen/display-sync/internal/domain"
	"github.com/Giorgiomufen/display-sync/internal/logging"
	"github.com/Giorgiomufen/display-sync/internal/metrics"
	"github.com/Giorgiomufen/display-sync/internal/protocol"
	"github.com/Giorgiomufen/display-sync/internal/state"
)

// LibraryStore is the slice of the library the hub drives.
type LibraryStore interface {
	List() ([]domain.LibraryEntry, error)
	Save(name, html string) (string, error)
	Load(id string) (domain.LibraryDocument, error)
	Delete(id string) bool
}

// ImageStore persists uploaded images and returns their serving path.
type ImageStore interface {
	SaveImage(ns blob.Namespace, payload string) (string, error)
}

// AddressInfo is what controls need to point displays at this server.
type AddressInfo struct {
	LANIP    string
	HTTPPort int
}

// commandTimeout bounds synchronous hub commands so a stuck actor cannot
// wedge connection handlers.
const commandTimeout = 5 * time.Second

// --- Command types ---

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type attachCmd struct {
	baseHubCmd
	connection *websocket.Conn
	ackChannel chan struct{}
}

type detachCmd struct {
	baseHubCmd
	connection *websocket.Conn
}

type inboundCmd struct {
	baseHubCmd
	connection *websocket.Conn
	data       []byte
}

type roleCountCmd struct {
	baseHubCmd
	role         domain.Role
	replyChannel chan int
}

type displayIDsCmd struct {
	baseHubCmd
	replyChannel chan []int
}

type stopCmd struct {
	baseHubCmd
}

// client is one registry entry: an opaque handle, the registered role and, for
// displays, the numeric display id.
type client struct {
	handle    ksuid.KSUID
	role      domain.Role
	displayID int
	writer    *clientWriter
}

// Hub is the message-driven engine tying connections, shared state, the
// library and uploads together.
type Hub struct {
	cmdCh   chan hubCmd
	clients map[*websocket.Conn]*client

	state   *state.Store
	library LibraryStore
	uploads ImageStore
	address AddressInfo
	clock   clockwork.Clock
}

func New(st *state.Store, lib LibraryStore, uploads ImageStore, address AddressInfo, clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clients: make(map[*websocket.Conn]*client),
		state:   st,
		library: lib,
		uploads: uploads,
		address: address,
		clock:   clock,
	}
	go h.run()
	return h
}

// --- Public API ---

// Attach adds a fresh, unregistered connection to the registry. It returns
// once the hub owns the connection, so the writer's pong handler and read
// deadline are in place before the caller starts reading.
func (h *Hub) Attach(conn *websocket.Conn) error {
	ackCh := make(chan struct{}, 1)
	h.cmdCh <- attachCmd{connection: conn, ackChannel: ackCh}

	// Use timeout to prevent blocking forever if the hub is stuck
	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case <-ackCh:
		return nil
	case <-timer.Chan():
		return fmt.Errorf("attach command timed out after %v", commandTimeout)
	}
}

// Detach removes a connection. Safe to call for connections the hub already
// dropped (slow clients).
func (h *Hub) Detach(conn *websocket.Conn) {
	h.cmdCh <- detachCmd{connection: conn}
}

// HandleMessage hands one raw inbound frame to the hub actor.
func (h *Hub) HandleMessage(conn *websocket.Conn, data []byte) {
	h.cmdCh <- inboundCmd{connection: conn, data: data}
}

// RoleCount returns how many attached connections registered the given role.
func (h *Hub) RoleCount(role domain.Role) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- roleCountCmd{role: role, replyChannel: replyCh}
	return <-replyCh
}

// DisplayIDs returns the ids of currently connected displays, ascending.
// Duplicate registrations show up as duplicate ids.
func (h *Hub) DisplayIDs() []int {
	replyCh := make(chan []int, 1)
	h.cmdCh <- displayIDsCmd{replyChannel: replyCh}
	return <-replyCh
}

// Stop shuts down the hub, closing every connection.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}
}

// --- Actor loop ---

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case attachCmd:
			h.handleAttach(c.connection)
			c.ackChannel <- struct{}{}
		case detachCmd:
			h.handleDetach(c.connection)
		case inboundCmd:
			h.dispatch(c.connection, c.data)
		case roleCountCmd:
			c.replyChannel <- h.countRole(c.role)
		case displayIDsCmd:
			c.replyChannel <- h.displayIDs()
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub: unknown command type", "command", cmd)
		}
	}
}

func (h *Hub) handleAttach(conn *websocket.Conn) {
	c := &client{
		handle: ksuid.New(),
		role:   domain.RoleUnset,
		writer: newClientWriter(conn, h.clock),
	}
	h.clients[conn] = c
	metrics.ConnectionsActive.WithLabelValues(roleLabel(c.role)).Inc()
	logging.WithConnection(c.handle.String()).Debug("Connection attached", "total", len(h.clients))
}

func (h *Hub) handleDetach(conn *websocket.Conn) {
	c, exists := h.clients[conn]
	if !exists {
		return
	}

	c.writer.stop()
	delete(h.clients, conn)
	metrics.ConnectionsActive.WithLabelValues(roleLabel(c.role)).Dec()
	logging.WithConnection(c.handle.String()).Debug("Connection detached", "role", string(c.role), "remaining", len(h.clients))

	// Controls always get a fresh display listing on any disconnect.
	h.broadcastDisplays()
}

func (h *Hub) handleStop() {
	for conn, c := range h.clients {
		c.writer.stop()
		delete(h.clients, conn)
		metrics.ConnectionsActive.WithLabelValues(roleLabel(c.role)).Dec()
	}
}

// --- Registry views ---

func (h *Hub) countRole(role domain.Role) int {
	n := 0
	for _, c := range h.clients {
		if c.role == role {
			n++
		}
	}
	return n
}

// displayIDs lists the ids of registered displays ascending. Duplicates are
// kept and id 0 is treated as unassigned, matching observed behavior.
func (h *Hub) displayIDs() []int {
	ids := make([]int, 0, len(h.clients))
	for _, c := range h.clients {
		if c.role == domain.RoleDisplay && c.displayID != 0 {
			ids = append(ids, c.displayID)
		}
	}
	sort.Ints(ids)
	return ids
}

// --- Fan-out ---

// send queues a payload for one connection, best-effort. Marshal failures and
// full buffers are logged and swallowed; the read pump notices dead peers.
func (h *Hub) send(c *client, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal outbound message", "error", err)
		return
	}
	if !c.writer.trySend(data) {
		slog.Warn("Dropping reply to slow client", "connection", c.handle.String())
	}
}

// broadcast fans a payload out to every connection with one of the given
// roles. Sends are isolated: a slow client is dropped, the loop carries on.
func (h *Hub) broadcast(payload any, payloadType string, roles ...domain.Role) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal broadcast message", "error", err)
		return
	}

	var slow []*websocket.Conn
	for conn, c := range h.clients {
		if !hasRole(c.role, roles) {
			continue
		}
		if c.writer.trySend(data) {
			metrics.BroadcastsSentTotal.WithLabelValues(payloadType, string(c.role)).Inc()
		} else {
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow client", "connection", h.clients[conn].handle.String())
		metrics.SlowClientDisconnects.Inc()
		h.handleDetach(conn)
	}
}

func (h *Hub) broadcastState() {
	h.broadcast(protocol.NewStateUpdate(h.state.Snapshot()), protocol.TypeStateUpdate, domain.RoleDisplay, domain.RoleControl)
}

func (h *Hub) broadcastStateToDisplays() {
	h.broadcast(protocol.NewStateUpdate(h.state.Snapshot()), protocol.TypeStateUpdate, domain.RoleDisplay)
}

func (h *Hub) broadcastDisplays() {
	h.broadcast(protocol.NewDisplaysUpdate(h.displayIDs()), protocol.TypeDisplaysUpdate, domain.RoleControl)
}

func (h *Hub) broadcastLibrary() {
	h.broadcast(protocol.NewLibraryUpdate(h.libraryListing()), protocol.TypeLibraryUpdate, domain.RoleControl)
}

func (h *Hub) libraryListing() []domain.LibraryEntry {
	entries, err := h.library.List()
	if err != nil {
		slog.Error("Failed to list library", "error", err)
		return []domain.LibraryEntry{}
	}
	return entries
}

func hasRole(role domain.Role, roles []domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func roleLabel(role domain.Role) string {
	if role == domain.RoleUnset {
		return "unset"
	}
	return string(role)
}
