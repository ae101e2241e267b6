package valueobjects

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPosition(t *testing.T) {
	tests := []struct {
		name    string
		x, y    float64
		wantErr bool
	}{
		{name: "origin", x: 0, y: 0},
		{name: "layout slot", x: 450, y: 180},
		{name: "negative y above the base row", x: 800, y: -20},
		{name: "NaN x coordinate", x: math.NaN(), y: 0, wantErr: true},
		{name: "infinite y coordinate", x: 0, y: math.Inf(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := NewPosition(tt.x, tt.y)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid coordinates")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.x, pos.X())
			assert.Equal(t, tt.y, pos.Y())
		})
	}
}

func TestPositionEquals(t *testing.T) {
	assert.True(t, At(100, 400).Equals(At(100, 400)))
	assert.True(t, At(100, 400).Equals(At(100+1e-12, 400)))
	assert.False(t, At(100, 400).Equals(At(100, 480)))
}

func TestPositionJSON(t *testing.T) {
	data, err := json.Marshal(At(450, 100))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":450,"y":100}`, string(data))

	var pos Position
	require.NoError(t, json.Unmarshal([]byte(`{"x":800,"y":-100}`), &pos))
	assert.True(t, pos.Equals(At(800, -100)))
}
