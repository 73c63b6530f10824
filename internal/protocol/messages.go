// Package protocol defines the JSON wire envelope spoken over the WebSocket
// endpoint. Every message carries a "type" discriminator; the remaining fields
// depend on it.
package protocol

import (
	"encoding/json"

	"github.com/Giorgiomufen/display-sync/internal/domain"
)

// Inbound message types.
const (
	TypeRegisterControl    = "register_control"
	TypeRegisterDisplay    = "register_display"
	TypeUpdateState        = "update_state"
	TypeSaveToLibrary      = "save_to_library"
	TypeLoadFromLibrary    = "load_from_library"
	TypeDeleteFromLibrary  = "delete_from_library"
	TypeBroadcastHTML      = "broadcast_html"
	TypeSetCanvasMode      = "set_canvas_mode"
	TypeUpdateCanvasLayout = "update_canvas_layout"
	TypeUploadImage        = "upload_image"
	TypeUploadSceneImage   = "upload_scene_image"
	TypeCanvasElements     = "canvas_elements"
	TypeCanvasContent      = "canvas_content"
	TypeCanvasUpload       = "canvas_upload"
)

// Outbound message types.
const (
	TypeInit               = "init"
	TypeStateUpdate        = "state_update"
	TypeDisplaysUpdate     = "displays_update"
	TypeLibraryUpdate      = "library_update"
	TypeImageUploaded      = "image_uploaded"
	TypeSceneImageUploaded = "scene_image_uploaded"
)

// Inbound is the union of all client message payloads. Fields irrelevant to a
// given type are simply absent. Decoding validates typed fields (the state
// patch in particular) before any mutation happens.
type Inbound struct {
	Type string `json:"type"`

	// register_display
	DisplayID *domain.FlexInt `json:"displayId"`

	// update_state
	State *domain.StatePatch `json:"state"`

	// library and broadcast_html
	ID   string `json:"id"`
	Name string `json:"name"`
	HTML string `json:"html"`

	// canvas control
	CanvasMode   *bool           `json:"canvasMode"`
	CanvasLayout json.RawMessage `json:"canvasLayout"`
	Elements     json.RawMessage `json:"elements"`
	Content      json.RawMessage `json:"content"`

	// uploads
	Image string `json:"image"`
	URL   string `json:"url"`
}

// ControlInit is the reply to register_control: everything a control surface
// needs to render itself, including how displays on the LAN can reach us.
type ControlInit struct {
	Type              string                `json:"type"`
	State             domain.State          `json:"state"`
	ConnectedDisplays []int                 `json:"connectedDisplays"`
	Library           []domain.LibraryEntry `json:"library"`
	LANIP             string                `json:"lanIP"`
	HTTPPort          int                   `json:"httpPort"`
}

// DisplayInit is the reply to register_display.
type DisplayInit struct {
	Type      string       `json:"type"`
	DisplayID int          `json:"displayId"`
	State     domain.State `json:"state"`
}

// StateUpdate carries the full state after any mutation.
type StateUpdate struct {
	Type  string       `json:"type"`
	State domain.State `json:"state"`
}

// DisplaysUpdate tells controls which display ids are currently connected.
type DisplaysUpdate struct {
	Type              string `json:"type"`
	ConnectedDisplays []int  `json:"connectedDisplays"`
}

// LibraryUpdate carries the current library listing to controls.
type LibraryUpdate struct {
	Type    string                `json:"type"`
	Library []domain.LibraryEntry `json:"library"`
}

// ImageUploaded is the sender-only reply to an upload, with the serving path.
type ImageUploaded struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

func NewStateUpdate(st domain.State) StateUpdate {
	return StateUpdate{Type: TypeStateUpdate, State: st}
}

func NewDisplaysUpdate(ids []int) DisplaysUpdate {
	return DisplaysUpdate{Type: TypeDisplaysUpdate, ConnectedDisplays: ids}
}

func NewLibraryUpdate(entries []domain.LibraryEntry) LibraryUpdate {
	return LibraryUpdate{Type: TypeLibraryUpdate, Library: entries}
}
