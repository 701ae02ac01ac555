package engine

import "sort"

// ZoneIntensity is the %1RM each zone stands for.
var ZoneIntensity = map[Zone]float64{
	Zone55: 55,
	Zone65: 65,
	Zone75: 75,
	Zone85: 85,
	Zone90: 92.5,
	Zone95: 95,
}

// fallbackIntensity is used for zone keys missing from ZoneIntensity.
const fallbackIntensity = 75.0

// ComputeARI returns the reps-weighted average %1RM rounded to one decimal,
// or 0 when there are no reps. Zones missing from ZoneIntensity count as 75%
// and are returned as unknown so the caller can report them.
func ComputeARI(reps ZoneReps) (float64, []Zone) {
	keys := make([]Zone, 0, len(reps))
	for z := range reps {
		keys = append(keys, z)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var unknown []Zone
	var weighted float64
	total := 0
	for _, z := range keys {
		intensity, ok := ZoneIntensity[z]
		if !ok {
			intensity = fallbackIntensity
			unknown = append(unknown, z)
		}
		weighted += intensity * float64(reps[z])
		total += reps[z]
	}
	if total == 0 {
		return 0, unknown
	}
	return roundPlaces(weighted/float64(total), 1), unknown
}
