package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{`1.5`, 1.5, false},
		{`2`, 2, false},
		{`"3.25"`, 3.25, false},
		{`"fast"`, 0, true},
		{`true`, 0, true},
	}

	for _, tc := range tests {
		var f FlexFloat
		err := json.Unmarshal([]byte(tc.raw), &f)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidPatch, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, float64(f), tc.raw)
	}
}

func TestFlexInt(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{`4`, 4, false},
		{`4.9`, 4, false}, // truncates like a numeric cast
		{`"7"`, 7, false},
		{`"many"`, 0, true},
		{`[]`, 0, true},
	}

	for _, tc := range tests {
		var i FlexInt
		err := json.Unmarshal([]byte(tc.raw), &i)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidPatch, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, int(i), tc.raw)
	}
}

func TestStatePatch_AbsentVsNull(t *testing.T) {
	var p StatePatch
	require.NoError(t, json.Unmarshal([]byte(`{"canvasContent":null}`), &p))
	assert.NotNil(t, p.CanvasContent, "explicit null is present")
	assert.Nil(t, p.CanvasLayout, "absent field stays nil")
}

func TestDefaultState_SerializesEveryField(t *testing.T) {
	data, err := json.Marshal(DefaultState())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 15)
	assert.Equal(t, "builtin", decoded["mode"])
	assert.Equal(t, nil, decoded["canvasContent"])
}
