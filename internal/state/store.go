// Package state holds the single shared presentation state behind a mutex.
//
// Handlers never touch state fields directly: they take a Snapshot or submit a
// patch, and the store guarantees a patch applies completely or not at all.
package state

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Giorgiomufen/display-sync/internal/domain"
)

// Store owns the process-wide presentation state. All access goes through it.
type Store struct {
	mu    sync.RWMutex
	state domain.State
}

func NewStore() *Store {
	return &Store{state: domain.DefaultState()}
}

// Snapshot returns a copy of the current state. The canvas layout map and
// element slice are cloned so callers cannot mutate the shared record.
func (s *Store) Snapshot() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneState(s.state)
}

// Apply merges a patch into the current state. Only fields present in the
// patch change. Numeric coercion already happened during patch decoding, so
// the only failure left is a malformed opaque canvas field; in that case the
// whole patch is rejected and the state is untouched.
func (s *Store) Apply(p domain.StatePatch) error {
	layout, elements, content, hasContent, err := decodeCanvasFields(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Mode != nil {
		s.state.Mode = domain.Mode(*p.Mode)
	}
	if p.Scene != nil {
		s.state.Scene = *p.Scene
	}
	if p.Color != nil {
		s.state.Color = *p.Color
	}
	if p.Speed != nil {
		s.state.Speed = float64(*p.Speed)
	}
	if p.Intensity != nil {
		s.state.Intensity = float64(*p.Intensity)
	}
	if p.Text != nil {
		s.state.Text = *p.Text
	}
	if p.DisplayCount != nil {
		s.state.DisplayCount = int(*p.DisplayCount)
	}
	if p.CustomHTML != nil {
		s.state.CustomHTML = *p.CustomHTML
	}
	if p.CustomName != nil {
		s.state.CustomName = *p.CustomName
	}
	if p.CanvasMode != nil {
		s.state.CanvasMode = *p.CanvasMode
	}
	if layout != nil {
		s.state.CanvasLayout = layout
	}
	if elements != nil {
		s.state.CanvasElements = elements
	}
	if hasContent {
		s.state.CanvasContent = content
	}
	if p.ImageURL != nil {
		s.state.ImageURL = *p.ImageURL
	}
	if p.LabelMode != nil {
		s.state.LabelMode = *p.LabelMode
	}

	return nil
}

// SetCustom switches to custom mode with the given document.
func (s *Store) SetCustom(html, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Mode = domain.ModeCustom
	s.state.CustomHTML = html
	s.state.CustomName = name
}

// SetCanvasMode toggles free-form canvas compositing.
func (s *Store) SetCanvasMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CanvasMode = on
}

// SetCanvasLayout replaces the per-display geometry mapping.
func (s *Store) SetCanvasLayout(layout map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CanvasLayout = layout
}

// SetCanvasElements replaces the element list and, when layout is non-nil,
// the layout in the same step.
func (s *Store) SetCanvasElements(elements []any, layout map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CanvasElements = elements
	if layout != nil {
		s.state.CanvasLayout = layout
	}
}

// SetCanvasContent replaces the canvas background record and, when layout is
// non-nil, the layout in the same step. Content may be nil to clear it.
func (s *Store) SetCanvasContent(content any, layout map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CanvasContent = content
	if layout != nil {
		s.state.CanvasLayout = layout
	}
}

func decodeCanvasFields(p domain.StatePatch) (layout map[string]any, elements []any, content any, hasContent bool, err error) {
	if p.CanvasLayout != nil {
		if err = json.Unmarshal(p.CanvasLayout, &layout); err != nil {
			return nil, nil, nil, false, fmt.Errorf("%w: canvasLayout: %v", domain.ErrInvalidPatch, err)
		}
		if layout == nil {
			layout = map[string]any{}
		}
	}
	if p.CanvasElements != nil {
		if err = json.Unmarshal(p.CanvasElements, &elements); err != nil {
			return nil, nil, nil, false, fmt.Errorf("%w: canvasElements: %v", domain.ErrInvalidPatch, err)
		}
		if elements == nil {
			elements = []any{}
		}
	}
	if p.CanvasContent != nil {
		hasContent = true
		if err = json.Unmarshal(p.CanvasContent, &content); err != nil {
			return nil, nil, nil, false, fmt.Errorf("%w: canvasContent: %v", domain.ErrInvalidPatch, err)
		}
	}
	return layout, elements, content, hasContent, nil
}

func cloneState(st domain.State) domain.State {
	out := st
	out.CanvasLayout = make(map[string]any, len(st.CanvasLayout))
	for k, v := range st.CanvasLayout {
		out.CanvasLayout[k] = v
	}
	out.CanvasElements = make([]any, len(st.CanvasElements))
	copy(out.CanvasElements, st.CanvasElements)
	return out
}
