package engine

import (
	"sort"
	"strconv"
)

// SessionPatternsVersion identifies the revision of SessionPatterns.
const SessionPatternsVersion = "2024.1"

// SessionPatterns maps a session-distribution code to per-session
// percentages. The code spells out the weights ("d25_33_42" is 25/33/42) and
// the last session is always the heaviest.
var SessionPatterns = map[string][]int{
	"d50_50": {50, 50},
	"d45_55": {45, 55},
	"d40_60": {40, 60},
	"d35_65": {35, 65},

	"d33_33_34": {33, 33, 34},
	"d30_30_40": {30, 30, 40},
	"d25_35_40": {25, 35, 40},
	"d25_33_42": {25, 33, 42},
	"d20_35_45": {20, 35, 45},
}

// ListSessionPatterns returns the known session pattern codes, sorted.
func ListSessionPatterns() []string {
	codes := make([]string, 0, len(SessionPatterns))
	for code := range SessionPatterns {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// SessionKey returns the document key for a 1-based session number.
func SessionKey(n int) string {
	return "session_" + strconv.Itoa(n)
}

// sessionWeights looks up a pattern and checks it has sessionsPerWeek entries.
func sessionWeights(code string, sessionsPerWeek int) ([]int, error) {
	weights, ok := SessionPatterns[code]
	if !ok {
		return nil, configError("session_distribution", code, "unknown session pattern")
	}
	if len(weights) != sessionsPerWeek {
		return nil, configError("session_distribution", code,
			"pattern has %d sessions but sessions_per_week is %d", len(weights), sessionsPerWeek)
	}
	return weights, nil
}

// SplitSessions divides a week's zone reps across sessions. For every zone,
// all sessions but the last get round(reps*w/100) and the last session takes
// what is left, so per-zone session sums always equal the week's zone reps.
func SplitSessions(week ZoneReps, code string, sessionsPerWeek int) (Sessions, error) {
	weights, err := sessionWeights(code, sessionsPerWeek)
	if err != nil {
		return nil, err
	}

	zones := make([]ZoneReps, len(weights))
	for i := range zones {
		zones[i] = newZoneReps()
	}

	last := len(weights) - 1
	for _, zone := range AllZones {
		reps := week[zone]
		assigned := 0
		for i := 0; i < last; i++ {
			share := int(roundHalfUp(float64(reps*weights[i]) / 100))
			zones[i][zone] = share
			assigned += share
		}
		leftover := reps - assigned
		if leftover < 0 {
			return nil, configError("session_distribution", code,
				"zone %s: %d reps cannot be split without a negative session", zone, reps)
		}
		zones[last][zone] = leftover
	}

	out := make(Sessions, len(weights))
	for i, z := range zones {
		out[SessionKey(i+1)] = SessionResult{Total: z.Total(), Zones: z}
	}
	return out, nil
}
