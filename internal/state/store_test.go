package state

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giorgiomufen/display-sync/internal/domain"
)

func decodePatch(t *testing.T, raw string) domain.StatePatch {
	t.Helper()
	var p domain.StatePatch
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestStore_Defaults(t *testing.T) {
	s := NewStore()
	st := s.Snapshot()

	assert.Equal(t, domain.ModeBuiltin, st.Mode)
	assert.Equal(t, "none", st.Scene)
	assert.Equal(t, "#3b82f6", st.Color)
	assert.Equal(t, 1.0, st.Speed)
	assert.Equal(t, 1.0, st.Intensity)
	assert.Equal(t, 3, st.DisplayCount)
	assert.Equal(t, "hidden", st.LabelMode)
	assert.NotNil(t, st.CanvasLayout)
	assert.NotNil(t, st.CanvasElements)
}

func TestStore_SnapshotAlwaysSerializesCompletely(t *testing.T) {
	s := NewStore()

	patches := []string{
		`{"mode":"custom","customHtml":"<b>hi</b>"}`,
		`{"speed":"2.5","displayCount":"7"}`,
		`{"canvasLayout":{"1":{"x":0}},"canvasElements":[{"id":"a"}]}`,
		`{"canvasContent":null}`,
		`{"text":"overlay","color":"#fff"}`,
	}

	for _, raw := range patches {
		require.NoError(t, s.Apply(decodePatch(t, raw)))

		data, err := json.Marshal(s.Snapshot())
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		for _, field := range []string{
			"mode", "scene", "color", "speed", "intensity", "text",
			"displayCount", "customHtml", "customName", "canvasMode",
			"canvasLayout", "canvasContent", "canvasElements", "imageUrl", "labelMode",
		} {
			assert.Contains(t, decoded, field, "patch %s", raw)
		}
	}
}

func TestStore_ApplyMergesOnlyPresentFields(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Apply(decodePatch(t, `{"mode":"custom","customHtml":"<b>hi</b>"}`)))

	st := s.Snapshot()
	assert.Equal(t, domain.ModeCustom, st.Mode)
	assert.Equal(t, "<b>hi</b>", st.CustomHTML)
	// Untouched fields keep their defaults
	assert.Equal(t, "none", st.Scene)
	assert.Equal(t, 1.0, st.Speed)
}

func TestStore_ApplyCoercesNumericStrings(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Apply(decodePatch(t, `{"speed":"1.5","intensity":2,"displayCount":"4"}`)))

	st := s.Snapshot()
	assert.Equal(t, 1.5, st.Speed)
	assert.Equal(t, 2.0, st.Intensity)
	assert.Equal(t, 4, st.DisplayCount)
}

func TestStore_MalformedPatchFailsAtomically(t *testing.T) {
	// A non-numeric speed fails patch decoding before Apply ever runs.
	var p domain.StatePatch
	err := json.Unmarshal([]byte(`{"speed":"fast","text":"x"}`), &p)
	require.Error(t, err)

	// A bad opaque canvas field fails Apply without touching any field.
	s := NewStore()
	p = decodePatch(t, `{"text":"x","canvasLayout":[1,2]}`)
	err = s.Apply(p)
	require.ErrorIs(t, err, domain.ErrInvalidPatch)
	assert.Equal(t, "", s.Snapshot().Text)
}

func TestStore_UnknownFieldsIgnored(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Apply(decodePatch(t, `{"text":"ok","futureField":123}`)))
	assert.Equal(t, "ok", s.Snapshot().Text)
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Apply(decodePatch(t, `{"canvasLayout":{"1":{"x":1}},"canvasElements":["a"]}`)))

	snap := s.Snapshot()
	snap.CanvasLayout["1"] = "mutated"
	snap.CanvasElements[0] = "mutated"

	fresh := s.Snapshot()
	assert.NotEqual(t, "mutated", fresh.CanvasLayout["1"])
	assert.NotEqual(t, "mutated", fresh.CanvasElements[0])
}

func TestStore_SetCustom(t *testing.T) {
	s := NewStore()
	s.SetCustom("<h1>x</h1>", "Page")

	st := s.Snapshot()
	assert.Equal(t, domain.ModeCustom, st.Mode)
	assert.Equal(t, "<h1>x</h1>", st.CustomHTML)
	assert.Equal(t, "Page", st.CustomName)
}

func TestStore_CanvasSetters(t *testing.T) {
	s := NewStore()

	s.SetCanvasMode(true)
	assert.True(t, s.Snapshot().CanvasMode)

	s.SetCanvasElements([]any{"el"}, map[string]any{"1": "l"})
	st := s.Snapshot()
	assert.Equal(t, []any{"el"}, st.CanvasElements)
	assert.Equal(t, "l", st.CanvasLayout["1"])

	// nil layout leaves the current layout alone
	s.SetCanvasContent(map[string]any{"type": "image", "url": "/canvas/x.png"}, nil)
	st = s.Snapshot()
	assert.Equal(t, "l", st.CanvasLayout["1"])
	content, ok := st.CanvasContent.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/canvas/x.png", content["url"])
}
