// Package engine turns a lifter's 1RM and coaching parameters into a 4-week,
// percentage-based program: reps per intensity zone per week and per session,
// plus ARI, zone totals and tonnage. Every call is a pure function of its input.
package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Zone is a named intensity band. Zone "90" stands for 92.5% of 1RM.
type Zone string

const (
	Zone55 Zone = "55"
	Zone65 Zone = "65"
	Zone75 Zone = "75"
	Zone85 Zone = "85"
	Zone90 Zone = "90"
	Zone95 Zone = "95"
)

// AllZones lists the zones from lightest to heaviest.
var AllZones = []Zone{Zone55, Zone65, Zone75, Zone85, Zone90, Zone95}

// ZoneReps maps a zone to an absolute rep count.
type ZoneReps map[Zone]int

// Total returns the sum of reps across all zones.
func (z ZoneReps) Total() int {
	total := 0
	for _, reps := range z {
		total += reps
	}
	return total
}

// newZoneReps returns a map with every zone present and set to zero.
func newZoneReps() ZoneReps {
	z := make(ZoneReps, len(AllZones))
	for _, zone := range AllZones {
		z[zone] = 0
	}
	return z
}

// Lift names accepted in the input document, in canonical processing order.
const (
	LiftSquat      = "squat"
	LiftBenchPress = "bench_press"
	LiftDeadlift   = "deadlift"
)

var liftOrder = []string{LiftSquat, LiftBenchPress, LiftDeadlift}

// Lifts returns the supported lift names in canonical order.
func Lifts() []string {
	return append([]string(nil), liftOrder...)
}

// DefaultWeeks is the only block length the pattern tables describe.
const DefaultWeeks = 4

// IntensityDistribution describes how block volume is split across zones.
// The 65% share is never supplied; it absorbs whatever the other zones leave.
type IntensityDistribution struct {
	Pct75  int `json:"75_percent"`
	Pct85  int `json:"85_percent"`
	Reps90 int `json:"90_total_reps"`
	Reps95 int `json:"95_total_reps"`
}

// LiftInput holds the coaching parameters for one lift.
type LiftInput struct {
	OneRM                 float64               `json:"one_rm"`
	Rounding              float64               `json:"rounding"`
	Volume                int                   `json:"volume"`
	Weights               map[Zone]float64      `json:"weights,omitempty"`
	IntensityDistribution IntensityDistribution `json:"intensity_distribution"`
	VolumePatternMain     string                `json:"volume_pattern_main"`
	VolumePattern8190     string                `json:"volume_pattern_8190"`
	SessionsPerWeek       int                   `json:"sessions_per_week"`
	SessionDistribution   string                `json:"session_distribution"`
}

// Input is the document a program-creation request hands to the engine.
type Input struct {
	Lifts map[string]LiftInput `json:"lifts"`
	Block string               `json:"block,omitempty"`
	Weeks int                  `json:"weeks,omitempty"`
}

// SessionResult is one training session's share of a week.
type SessionResult struct {
	Total int      `json:"total"`
	Zones ZoneReps `json:"zones"`
}

// Sessions maps a session key (session_1, session_2, ...) to its reps.
type Sessions map[string]SessionResult

// WeekResult is the prescription for one lift in one week.
type WeekResult struct {
	Zones     ZoneReps `json:"zones"`
	TotalReps int      `json:"total_reps"`
	ARI       float64  `json:"ari"`
	Tonnage   float64  `json:"tonnage"`
	Sessions  Sessions `json:"sessions"`
}

// LiftSummary aggregates a lift over the whole block.
type LiftSummary struct {
	TotalNL          int              `json:"total_nl"`
	BlockARI         float64          `json:"block_ari"`
	ZoneDistribution map[Zone]float64 `json:"zone_distribution"`
	ZoneTotals       ZoneReps         `json:"zone_totals"`
	Tonnage          float64          `json:"tonnage"`
	Weights          map[Zone]float64 `json:"weights"`
}

// LiftResult is the calculated block for one lift. It serializes as
// {"week_1": ..., "week_N": ..., "_summary": ...}.
type LiftResult struct {
	Weeks   []WeekResult
	Summary LiftSummary
}

const summaryKey = "_summary"

// WeekKey returns the document key for a 1-based week number.
func WeekKey(week int) string {
	return "week_" + strconv.Itoa(week)
}

func (r LiftResult) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(r.Weeks)+1)
	for i, w := range r.Weeks {
		doc[WeekKey(i+1)] = w
	}
	doc[summaryKey] = r.Summary
	return json.Marshal(doc)
}

func (r *LiftResult) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	weeks := make(map[int]WeekResult)
	for key, raw := range doc {
		if key == summaryKey {
			if err := json.Unmarshal(raw, &r.Summary); err != nil {
				return fmt.Errorf("decoding %s: %w", key, err)
			}
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(key, "week_"))
		if !strings.HasPrefix(key, "week_") || err != nil || n < 1 {
			return fmt.Errorf("unexpected key %q in lift result", key)
		}
		var w WeekResult
		if err := json.Unmarshal(raw, &w); err != nil {
			return fmt.Errorf("decoding %s: %w", key, err)
		}
		weeks[n] = w
	}

	nums := make([]int, 0, len(weeks))
	for n := range weeks {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	r.Weeks = make([]WeekResult, 0, len(nums))
	for i, n := range nums {
		if n != i+1 {
			return fmt.Errorf("missing %s in lift result", WeekKey(i+1))
		}
		r.Weeks = append(r.Weeks, weeks[n])
	}
	return nil
}

// Output is the engine's result document.
type Output struct {
	Calculated map[string]LiftResult `json:"calculated"`
}

// Lifts returns the calculated lift names in canonical order.
func (o *Output) Lifts() []string {
	names := make([]string, 0, len(o.Calculated))
	for _, name := range liftOrder {
		if _, ok := o.Calculated[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// TotalNL sums the block volume over every calculated lift.
func (o *Output) TotalNL() int {
	var total int
	for _, r := range o.Calculated {
		total += r.Summary.TotalNL
	}
	return total
}
