package valueobjects

import (
	"strings"
	"testing"

	pkgerrors "careerflow/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		max     int
		want    string
		wantErr bool
	}{
		{name: "trims surrounding space", raw: "  Acme  ", max: 200, want: "Acme"},
		{name: "keeps inner space", raw: "Acme Corp", max: 200, want: "Acme Corp"},
		{name: "empty", raw: "", max: 200, wantErr: true},
		{name: "only whitespace", raw: " \t\n", max: 200, wantErr: true},
		{name: "over the limit", raw: strings.Repeat("a", 11), max: 10, wantErr: true},
		{name: "limit disabled", raw: strings.Repeat("a", 500), max: 0, want: strings.Repeat("a", 500)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeLabel(tt.raw, tt.max)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, pkgerrors.ErrInvalidLabel)
				assert.True(t, pkgerrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLabelKey(t *testing.T) {
	assert.Equal(t, LabelKey("ACME"), LabelKey(" acme "))
	assert.Equal(t, "Version 3", VersionLabel(3))
}
