package engine

import "sort"

// VolumePatternsVersion identifies the revision of VolumePatterns. Bump it
// whenever an entry changes so stored programs can be traced to the table
// that produced them.
const VolumePatternsVersion = "2024.1"

// VolumePatterns maps a pattern code to the share of block volume each of the
// four weeks receives.
//
//	"1".."4"     ascending load, steeper with the number
//	"1a".."4a"   wave peaking in week 3 with a lighter week 4
//	"3b", "4b"   front-loaded taper
//	"1-3a" etc.  two-phase shapes (build, drop, build again)
//	"flat"       even spread
var VolumePatterns = map[string][DefaultWeeks]float64{
	"flat": {0.25, 0.25, 0.25, 0.25},

	"1": {0.22, 0.24, 0.26, 0.28},
	"2": {0.19, 0.23, 0.27, 0.31},
	"3": {0.16, 0.22, 0.28, 0.34},
	"4": {0.13, 0.21, 0.29, 0.37},

	"1a": {0.24, 0.27, 0.30, 0.19},
	"2a": {0.22, 0.28, 0.32, 0.18},
	"3a": {0.20, 0.28, 0.35, 0.17},
	"4a": {0.18, 0.28, 0.38, 0.16},

	"3b": {0.34, 0.28, 0.22, 0.16},
	"4b": {0.37, 0.29, 0.21, 0.13},

	"1-3a": {0.22, 0.30, 0.20, 0.28},
	"1-3b": {0.30, 0.22, 0.28, 0.20},
	"2-4a": {0.20, 0.32, 0.18, 0.30},
	"2-4b": {0.32, 0.20, 0.30, 0.18},
}

// ListVolumePatterns returns the known volume pattern codes, sorted.
func ListVolumePatterns() []string {
	codes := make([]string, 0, len(VolumePatterns))
	for code := range VolumePatterns {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ResolveWeeklyWeights returns the per-week volume shares for a pattern code.
// The returned slice is a fresh copy and sums to 1.0.
func ResolveWeeklyWeights(code string, weekCount int) ([]float64, error) {
	if weekCount != DefaultWeeks {
		return nil, configError("weeks", weekCount, "volume patterns are defined for %d weeks only", DefaultWeeks)
	}
	vec, ok := VolumePatterns[code]
	if !ok {
		return nil, configError("volume_pattern", code, "unknown volume pattern")
	}
	out := make([]float64, weekCount)
	copy(out, vec[:])
	return out, nil
}

// SpreadAcrossWeeks splits total reps over weeks proportionally to weights
// using cumulative rounding: week i receives round(total*cum_i) minus what the
// previous weeks already received. Weeks never go negative and always sum to
// total; rounding leftovers land in later weeks.
func SpreadAcrossWeeks(total int, weights []float64) []int {
	out := make([]int, len(weights))
	if len(weights) == 0 {
		return out
	}
	cum := 0.0
	prev := 0
	for i, w := range weights {
		cum += w
		target := int(roundHalfUp(float64(total) * cum))
		if i == len(weights)-1 {
			target = total
		}
		if target > total {
			target = total
		}
		if target < prev {
			target = prev
		}
		out[i] = target - prev
		prev = target
	}
	return out
}

// PatternTables is a snapshot of the lookup tables the engine calculates with.
type PatternTables struct {
	VolumePatternsVersion  string                           `json:"volume_patterns_version"`
	VolumePatternCodes     []string                         `json:"volume_pattern_codes"`
	VolumePatterns         map[string][DefaultWeeks]float64 `json:"volume_patterns"`
	SessionPatternsVersion string                           `json:"session_patterns_version"`
	SessionPatternCodes    []string                         `json:"session_pattern_codes"`
	SessionPatterns        map[string][]int                 `json:"session_patterns"`
	ZoneIntensities        map[Zone]float64                 `json:"zone_intensities"`
	Roundings              []float64                        `json:"roundings"`
}

// Tables returns a copy of the pattern tables safe for callers to modify.
func Tables() PatternTables {
	t := PatternTables{
		VolumePatternsVersion:  VolumePatternsVersion,
		VolumePatternCodes:     ListVolumePatterns(),
		VolumePatterns:         make(map[string][DefaultWeeks]float64, len(VolumePatterns)),
		SessionPatternsVersion: SessionPatternsVersion,
		SessionPatternCodes:    ListSessionPatterns(),
		SessionPatterns:        make(map[string][]int, len(SessionPatterns)),
		ZoneIntensities:        make(map[Zone]float64, len(ZoneIntensity)),
		Roundings:              append([]float64(nil), AllowedRoundings...),
	}
	for code, w := range VolumePatterns {
		t.VolumePatterns[code] = w
	}
	for code, w := range SessionPatterns {
		t.SessionPatterns[code] = append([]int(nil), w...)
	}
	for z, pct := range ZoneIntensity {
		t.ZoneIntensities[z] = pct
	}
	return t
}
