package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestComputeARI verifies the reps-weighted intensity, including 92.5 for zone 90.
func TestComputeARI(t *testing.T) {
	tests := []struct {
		name string
		reps ZoneReps
		want float64
	}{
		{"empty week", ZoneReps{}, 0},
		{"all zones zero", newZoneReps(), 0},
		{"single zone", ZoneReps{Zone85: 10}, 85},
		{"zone 90 is 92.5", ZoneReps{Zone90: 4}, 92.5},
		{"mixed week", ZoneReps{Zone65: 28, Zone75: 32, Zone85: 14, Zone90: 1}, 73.4},
		{"block example", ZoneReps{Zone65: 142, Zone75: 158, Zone85: 46, Zone90: 4}, 72.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unknown := ComputeARI(tt.reps)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, unknown)
		})
	}
}

// TestComputeARIUnknownZone verifies unknown keys count as 75% and are reported.
func TestComputeARIUnknownZone(t *testing.T) {
	got, unknown := ComputeARI(ZoneReps{Zone95: 1, Zone("100"): 1})
	assert.Equal(t, 85.0, got)
	assert.Equal(t, []Zone{"100"}, unknown)
}

// TestComputeARIBounds verifies any non-empty mix stays within the zone range.
func TestComputeARIBounds(t *testing.T) {
	for a := 0; a < 6; a++ {
		for b := 0; b < 6; b++ {
			reps := ZoneReps{AllZones[a]: a + 1, AllZones[b]: b*3 + 1}
			got, _ := ComputeARI(reps)
			assert.GreaterOrEqual(t, got, 55.0)
			assert.LessOrEqual(t, got, 95.0)
		}
	}
}
