package hub

import (
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/Giorgiomufen/display-sync/internal/blob"
	"github.com/Giorgiomufen/display-sync/internal/domain"
	"github.com/Giorgiomufen/display-sync/internal/logging"
	"github.com/Giorgiomufen/display-sync/internal/metrics"
	"github.com/Giorgiomufen/display-sync/internal/protocol"
)

// dispatch decodes one inbound frame and routes it by type. A frame that fails
// to decode is dropped; the connection stays open. Unknown types are ignored.
func (h *Hub) dispatch(conn *websocket.Conn, data []byte) {
	c, exists := h.clients[conn]
	if !exists {
		return
	}

	var msg protocol.Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		logging.WithConnection(c.handle.String()).Warn("Dropping malformed message", "error", err)
		metrics.MessagesReceivedTotal.WithLabelValues("malformed", "dropped").Inc()
		return
	}

	slog.Debug("Message received", "type", msg.Type, "role", roleLabel(c.role))

	status := "ok"
	switch msg.Type {
	case protocol.TypeRegisterControl:
		status = h.handleRegisterControl(c)
	case protocol.TypeRegisterDisplay:
		status = h.handleRegisterDisplay(c, msg)
	case protocol.TypeUpdateState:
		status = h.handleUpdateState(c, msg)
	case protocol.TypeSaveToLibrary:
		status = h.handleSaveToLibrary(msg)
	case protocol.TypeLoadFromLibrary:
		status = h.handleLoadFromLibrary(msg)
	case protocol.TypeDeleteFromLibrary:
		h.library.Delete(msg.ID)
		h.broadcastLibrary()
	case protocol.TypeBroadcastHTML:
		h.handleBroadcastHTML(msg)
	case protocol.TypeSetCanvasMode:
		h.handleSetCanvasMode(msg)
	case protocol.TypeUpdateCanvasLayout:
		status = h.handleUpdateCanvasLayout(msg)
	case protocol.TypeUploadImage:
		status = h.handleUpload(c, msg, blob.NamespaceCanvas, protocol.TypeImageUploaded)
	case protocol.TypeUploadSceneImage:
		status = h.handleUpload(c, msg, blob.NamespaceScene, protocol.TypeSceneImageUploaded)
	case protocol.TypeCanvasElements:
		status = h.handleCanvasElements(msg)
	case protocol.TypeCanvasContent:
		status = h.handleCanvasContent(msg)
	case protocol.TypeCanvasUpload:
		status = h.handleCanvasUpload(msg)
	default:
		slog.Debug("Ignoring unknown message type", "type", msg.Type)
		status = "unknown"
	}

	metrics.MessagesReceivedTotal.WithLabelValues(msg.Type, status).Inc()
}

// handleRegisterControl assigns the control role and replies with everything a
// control surface needs: full state, connected displays, library and how
// displays on the LAN can reach this server.
func (h *Hub) handleRegisterControl(c *client) string {
	if !h.assignRole(c, domain.RoleControl) {
		return "dropped"
	}

	h.send(c, protocol.ControlInit{
		Type:              protocol.TypeInit,
		State:             h.state.Snapshot(),
		ConnectedDisplays: h.displayIDs(),
		Library:           h.libraryListing(),
		LANIP:             h.address.LANIP,
		HTTPPort:          h.address.HTTPPort,
	})
	return "ok"
}

// handleRegisterDisplay assigns the display role, defaulting the id to 1, then
// replies to the sender and pushes the new listing to all controls.
func (h *Hub) handleRegisterDisplay(c *client, msg protocol.Inbound) string {
	if !h.assignRole(c, domain.RoleDisplay) {
		return "dropped"
	}

	c.displayID = 1
	if msg.DisplayID != nil {
		c.displayID = int(*msg.DisplayID)
	}
	logging.WithDisplay(c.displayID).Info("Display registered", "connection", c.handle.String())

	h.send(c, protocol.DisplayInit{
		Type:      protocol.TypeInit,
		DisplayID: c.displayID,
		State:     h.state.Snapshot(),
	})
	h.broadcastDisplays()
	return "ok"
}

func (h *Hub) handleUpdateState(c *client, msg protocol.Inbound) string {
	if msg.State != nil {
		if err := h.state.Apply(*msg.State); err != nil {
			slog.Warn("Rejecting state patch", "connection", c.handle.String(), "error", err)
			return "rejected"
		}
	}
	h.broadcastState()
	return "ok"
}

func (h *Hub) handleSaveToLibrary(msg protocol.Inbound) string {
	name := msg.Name
	if name == "" {
		name = "Untitled"
	}
	if _, err := h.library.Save(name, msg.HTML); err != nil {
		logging.WithError(err).Error("Failed to save library entry", "name", name)
		return "error"
	}
	h.broadcastLibrary()
	return "ok"
}

// handleLoadFromLibrary switches to custom mode with the stored document.
// An unknown id is a silent no-op.
func (h *Hub) handleLoadFromLibrary(msg protocol.Inbound) string {
	doc, err := h.library.Load(msg.ID)
	if err != nil {
		slog.Debug("Library load skipped", "id", msg.ID, "error", err)
		return "not_found"
	}
	h.state.SetCustom(doc.HTML, doc.Name)
	h.broadcastState()
	return "ok"
}

func (h *Hub) handleBroadcastHTML(msg protocol.Inbound) {
	name := msg.Name
	if name == "" {
		name = "Live"
	}
	h.state.SetCustom(msg.HTML, name)
	h.broadcastState()
}

func (h *Hub) handleSetCanvasMode(msg protocol.Inbound) {
	on := false
	if msg.CanvasMode != nil {
		on = *msg.CanvasMode
	}
	h.state.SetCanvasMode(on)
	h.broadcastState()
}

func (h *Hub) handleUpdateCanvasLayout(msg protocol.Inbound) string {
	layout, err := decodeLayout(msg.CanvasLayout)
	if err != nil {
		slog.Warn("Dropping bad canvas layout", "error", err)
		return "rejected"
	}
	if layout == nil {
		layout = map[string]any{}
	}
	h.state.SetCanvasLayout(layout)
	h.broadcastState()
	return "ok"
}

// handleUpload persists an image and replies to the sender only. Failures
// never leave the sending connection.
func (h *Hub) handleUpload(c *client, msg protocol.Inbound, ns blob.Namespace, replyType string) string {
	url, err := h.uploads.SaveImage(ns, msg.Image)
	if err != nil {
		slog.Warn("Image upload failed", "namespace", string(ns), "connection", c.handle.String(), "error", err)
		return "error"
	}
	h.send(c, protocol.ImageUploaded{Type: replyType, URL: url})
	return "ok"
}

func (h *Hub) handleCanvasElements(msg protocol.Inbound) string {
	elements, err := decodeElements(msg.Elements)
	if err != nil {
		slog.Warn("Dropping bad canvas elements", "error", err)
		return "rejected"
	}
	layout, err := decodeLayout(msg.CanvasLayout)
	if err != nil {
		slog.Warn("Dropping bad canvas layout", "error", err)
		return "rejected"
	}
	h.state.SetCanvasElements(elements, layout)
	h.broadcastStateToDisplays()
	return "ok"
}

func (h *Hub) handleCanvasContent(msg protocol.Inbound) string {
	var content any
	if msg.Content != nil {
		if err := json.Unmarshal(msg.Content, &content); err != nil {
			slog.Warn("Dropping bad canvas content", "error", err)
			return "rejected"
		}
	}
	layout, err := decodeLayout(msg.CanvasLayout)
	if err != nil {
		slog.Warn("Dropping bad canvas layout", "error", err)
		return "rejected"
	}
	h.state.SetCanvasContent(content, layout)
	h.broadcastStateToDisplays()
	return "ok"
}

// handleCanvasUpload resolves an image URL from either an uploaded payload or
// a pre-resolved url field, sets it as the canvas background and broadcasts.
// Without a resolved URL it aborts silently (any layout update still sticks).
func (h *Hub) handleCanvasUpload(msg protocol.Inbound) string {
	if msg.CanvasLayout != nil {
		layout, err := decodeLayout(msg.CanvasLayout)
		if err != nil {
			slog.Warn("Dropping bad canvas layout", "error", err)
			return "rejected"
		}
		h.state.SetCanvasLayout(layout)
	}

	url := msg.URL
	if msg.Image != "" {
		saved, err := h.uploads.SaveImage(blob.NamespaceCanvas, msg.Image)
		if err != nil {
			slog.Warn("Canvas upload failed", "error", err)
			url = ""
		} else {
			url = saved
		}
	}

	if url == "" {
		return "no_url"
	}

	h.state.SetCanvasContent(map[string]any{"type": "image", "url": url}, nil)
	h.broadcastState()
	return "ok"
}

// assignRole performs the single allowed role transition. Re-registration
// attempts are dropped.
func (h *Hub) assignRole(c *client, role domain.Role) bool {
	if c.role != domain.RoleUnset {
		slog.Warn("Ignoring re-registration", "connection", c.handle.String(), "role", string(c.role))
		return false
	}
	metrics.ConnectionsActive.WithLabelValues(roleLabel(c.role)).Dec()
	c.role = role
	metrics.ConnectionsActive.WithLabelValues(roleLabel(c.role)).Inc()
	return true
}

func decodeLayout(raw json.RawMessage) (map[string]any, error) {
	if raw == nil {
		return nil, nil
	}
	var layout map[string]any
	if err := json.Unmarshal(raw, &layout); err != nil {
		return nil, err
	}
	if layout == nil {
		layout = map[string]any{}
	}
	return layout, nil
}

func decodeElements(raw json.RawMessage) ([]any, error) {
	if raw == nil {
		return []any{}, nil
	}
	var elements []any
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, err
	}
	if elements == nil {
		elements = []any{}
	}
	return elements, nil
}
