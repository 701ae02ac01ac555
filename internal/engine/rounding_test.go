package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRoundToIncrement verifies nearest-multiple rounding with ties going up.
func TestRoundToIncrement(t *testing.T) {
	tests := []struct {
		name      string
		raw       float64
		increment float64
		want      float64
	}{
		{"65 percent of 142.5 on 2.5 plates", 142.5 * 0.65, 2.5, 92.5},
		{"tie rounds up", 93.75, 2.5, 95},
		{"below tie rounds down", 93.7, 2.5, 92.5},
		{"whole kilos", 131.49, 1, 131},
		{"whole kilos tie", 131.5, 1, 132},
		{"five kilo steps", 172.4, 5, 170},
		{"five kilo tie", 172.5, 5, 175},
		{"zero weight", 0, 2.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RoundToIncrement(tt.raw, tt.increment)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestRoundToIncrementRejectsNonPositive verifies a zero or negative increment
// is an input shape error rather than a division by zero.
func TestRoundToIncrementRejectsNonPositive(t *testing.T) {
	for _, inc := range []float64{0, -2.5} {
		_, err := RoundToIncrement(100, inc)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInputShape)
	}
}
