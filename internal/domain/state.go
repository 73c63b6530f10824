package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Mode selects what displays render: a builtin scene or custom HTML.
type Mode string

const (
	ModeBuiltin Mode = "builtin"
	ModeCustom  Mode = "custom"
)

// State is the single presentation record broadcast to every display.
// All fields carry defaults, so a snapshot always serializes completely.
type State struct {
	Mode           Mode           `json:"mode"`
	Scene          string         `json:"scene"`
	Color          string         `json:"color"`
	Speed          float64        `json:"speed"`
	Intensity      float64        `json:"intensity"`
	Text           string         `json:"text"`
	DisplayCount   int            `json:"displayCount"`
	CustomHTML     string         `json:"customHtml"`
	CustomName     string         `json:"customName"`
	CanvasMode     bool           `json:"canvasMode"`
	CanvasLayout   map[string]any `json:"canvasLayout"`
	CanvasContent  any            `json:"canvasContent"`
	CanvasElements []any          `json:"canvasElements"`
	ImageURL       string         `json:"imageUrl"`
	LabelMode      string         `json:"labelMode"`
}

// DefaultState returns the state every fresh server starts with.
func DefaultState() State {
	return State{
		Mode:           ModeBuiltin,
		Scene:          "none",
		Color:          "#3b82f6",
		Speed:          1.0,
		Intensity:      1.0,
		Text:           "",
		DisplayCount:   3,
		CustomHTML:     "",
		CustomName:     "",
		CanvasMode:     false,
		CanvasLayout:   map[string]any{},
		CanvasContent:  nil,
		CanvasElements: []any{},
		ImageURL:       "",
		LabelMode:      "hidden",
	}
}

// FlexFloat accepts a JSON number or a numeric string.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: expected number, got %s", ErrInvalidPatch, data)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", ErrInvalidPatch, s)
	}
	*f = FlexFloat(n)
	return nil
}

// FlexInt accepts a JSON number (truncated) or a numeric string.
type FlexInt int

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*i = FlexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: expected integer, got %s", ErrInvalidPatch, data)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%w: %q is not an integer", ErrInvalidPatch, s)
	}
	*i = FlexInt(v)
	return nil
}

// StatePatch is a partial state update. Absent fields (nil pointers, nil raw
// messages) are left untouched. Decoding a patch validates every present field,
// so a malformed patch fails as a whole before any mutation happens. Unknown
// fields are ignored by the JSON decoder.
type StatePatch struct {
	Mode           *string         `json:"mode"`
	Scene          *string         `json:"scene"`
	Color          *string         `json:"color"`
	Speed          *FlexFloat      `json:"speed"`
	Intensity      *FlexFloat      `json:"intensity"`
	Text           *string         `json:"text"`
	DisplayCount   *FlexInt        `json:"displayCount"`
	CustomHTML     *string         `json:"customHtml"`
	CustomName     *string         `json:"customName"`
	CanvasMode     *bool           `json:"canvasMode"`
	CanvasLayout   json.RawMessage `json:"canvasLayout"`
	CanvasContent  json.RawMessage `json:"canvasContent"`
	CanvasElements json.RawMessage `json:"canvasElements"`
	ImageURL       *string         `json:"imageUrl"`
	LabelMode      *string         `json:"labelMode"`
}
