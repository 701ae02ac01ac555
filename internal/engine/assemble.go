package engine

import (
	"context"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

// Observer receives one callback per calculated lift.
type Observer interface {
	ObserveLift(lift string, duration time.Duration, err error)
}

// Calculator runs the engine for whole input documents.
type Calculator struct {
	log      *slog.Logger
	observer Observer
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithObserver reports per-lift timings and failures to o.
func WithObserver(o Observer) Option {
	return func(c *Calculator) { c.observer = o }
}

// NewCalculator creates a Calculator.
func NewCalculator(log *slog.Logger, opts ...Option) *Calculator {
	if log == nil {
		log = slog.Default()
	}
	c := &Calculator{log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks the document shape and every lift's parameters before any
// calculation starts. Lifts are checked in canonical order so the reported
// error is stable.
func (in Input) Validate() error {
	if len(in.Lifts) == 0 {
		return shapeError("lifts", len(in.Lifts), "at least one lift is required")
	}
	for name := range in.Lifts {
		if !isKnownLift(name) {
			return shapeError("lifts", name, "unknown lift")
		}
	}
	switch in.Block {
	case "", "prep", "peak":
	default:
		return shapeError("block", in.Block, "must be prep or peak")
	}
	if w := in.weeks(); w != DefaultWeeks {
		return configError("weeks", w, "only %d-week blocks are supported", DefaultWeeks)
	}
	for _, name := range in.liftNames() {
		if err := in.Lifts[name].Validate(); err != nil {
			return annotate(err, name, "")
		}
	}
	return nil
}

func (in Input) weeks() int {
	if in.Weeks == 0 {
		return DefaultWeeks
	}
	return in.Weeks
}

// liftNames returns the lifts present in the input in canonical order.
func (in Input) liftNames() []string {
	names := make([]string, 0, len(in.Lifts))
	for _, name := range liftOrder {
		if _, ok := in.Lifts[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

func isKnownLift(name string) bool {
	for _, l := range liftOrder {
		if l == name {
			return true
		}
	}
	return false
}

// Validate checks one lift's fields for shape errors.
func (li LiftInput) Validate() error {
	if !(li.OneRM > 0) || math.IsInf(li.OneRM, 0) {
		return shapeError("one_rm", li.OneRM, "must be a positive number")
	}
	if !isAllowedRounding(li.Rounding) {
		return shapeError("rounding", li.Rounding, "must be one of %v", AllowedRoundings)
	}
	if li.Volume <= 0 {
		return shapeError("volume", li.Volume, "must be positive")
	}
	if li.SessionsPerWeek != 2 && li.SessionsPerWeek != 3 {
		return shapeError("sessions_per_week", li.SessionsPerWeek, "must be 2 or 3")
	}
	if li.VolumePatternMain == "" {
		return shapeError("volume_pattern_main", li.VolumePatternMain, "is required")
	}
	if li.VolumePattern8190 == "" {
		return shapeError("volume_pattern_8190", li.VolumePattern8190, "is required")
	}
	if li.SessionDistribution == "" {
		return shapeError("session_distribution", li.SessionDistribution, "is required")
	}
	for zone, w := range li.Weights {
		if _, ok := ZoneIntensity[zone]; !ok {
			return shapeError("weights", zone, "unknown zone")
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return shapeError("weights."+string(zone), w, "must be a non-negative number")
		}
	}
	return li.IntensityDistribution.validate()
}

// Calculate validates in and computes every lift concurrently. Any failing
// lift fails the whole call; when several fail, the first in canonical order
// is reported.
func (c *Calculator) Calculate(ctx context.Context, in Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	names := in.liftNames()
	results := make([]LiftResult, len(names))
	errs := make([]error, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			liftStart := time.Now()
			res, unknown, err := CalculateLift(name, in.Lifts[name])
			if c.observer != nil {
				c.observer.ObserveLift(name, time.Since(liftStart), err)
			}
			if len(unknown) > 0 {
				c.log.Warn("unknown zones counted at fallback intensity", "lift", name, "zones", unknown)
			}
			results[i] = res
			errs[i] = err
			return err
		})
	}
	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	out := &Output{Calculated: make(map[string]LiftResult, len(names))}
	for i, name := range names {
		out.Calculated[name] = results[i]
	}
	c.log.Debug("program calculated", "lifts", names, "duration", time.Since(start).String())
	return out, nil
}

// CalculateLift builds the full block for one lift. It returns any zone keys
// the ARI step did not recognise alongside the result.
//
// Each zone's block total is spread over the weeks on its own: the 85 and 90
// zones by VolumePattern8190, every other zone by VolumePatternMain. A week's
// TotalReps is the sum of those per-zone spreads, so it follows the main
// pattern only approximately when the band pattern differs.
func CalculateLift(name string, li LiftInput) (LiftResult, []Zone, error) {
	if err := li.Validate(); err != nil {
		return LiftResult{}, nil, annotate(err, name, "")
	}

	blockZones, err := DistributeZones(li.Volume, li.IntensityDistribution)
	if err != nil {
		return LiftResult{}, nil, annotate(err, name, "")
	}
	mainWeights, err := ResolveWeeklyWeights(li.VolumePatternMain, DefaultWeeks)
	if err != nil {
		return LiftResult{}, nil, annotate(err, name, "volume_pattern_main")
	}
	bandWeights, err := ResolveWeeklyWeights(li.VolumePattern8190, DefaultWeeks)
	if err != nil {
		return LiftResult{}, nil, annotate(err, name, "volume_pattern_8190")
	}
	if _, err := sessionWeights(li.SessionDistribution, li.SessionsPerWeek); err != nil {
		return LiftResult{}, nil, annotate(err, name, "")
	}
	weights, err := zoneWeights(li)
	if err != nil {
		return LiftResult{}, nil, annotate(err, name, "")
	}

	weekZones := make([]ZoneReps, DefaultWeeks)
	for i := range weekZones {
		weekZones[i] = newZoneReps()
	}
	for _, zone := range AllZones {
		pattern := mainWeights
		if inBand8190(zone) {
			pattern = bandWeights
		}
		for i, reps := range SpreadAcrossWeeks(blockZones[zone], pattern) {
			weekZones[i][zone] = reps
		}
	}

	var unknown []Zone
	weeks := make([]WeekResult, DefaultWeeks)
	for i, zones := range weekZones {
		sessions, err := SplitSessions(zones, li.SessionDistribution, li.SessionsPerWeek)
		if err != nil {
			return LiftResult{}, nil, annotate(err, name, "")
		}
		ari, u := ComputeARI(zones)
		unknown = append(unknown, u...)
		weeks[i] = WeekResult{
			Zones:     zones,
			TotalReps: zones.Total(),
			ARI:       ari,
			Tonnage:   tonnage(zones, weights),
			Sessions:  sessions,
		}
	}

	blockARI, u := ComputeARI(blockZones)
	unknown = append(unknown, u...)

	return LiftResult{
		Weeks: weeks,
		Summary: LiftSummary{
			TotalNL:          blockZones.Total(),
			BlockARI:         blockARI,
			ZoneDistribution: zoneShares(blockZones),
			ZoneTotals:       blockZones,
			Tonnage:          tonnage(blockZones, weights),
			Weights:          weights,
		},
	}, unknown, nil
}

// inBand8190 reports whether a zone follows the 81-90% band pattern.
func inBand8190(z Zone) bool {
	return z == Zone85 || z == Zone90
}

// zoneWeights returns the working weight for every zone: the coach's value
// where supplied, otherwise 1RM x zone intensity rounded to the increment.
func zoneWeights(li LiftInput) (map[Zone]float64, error) {
	out := make(map[Zone]float64, len(AllZones))
	for _, zone := range AllZones {
		if w, ok := li.Weights[zone]; ok {
			out[zone] = w
			continue
		}
		w, err := RoundToIncrement(li.OneRM*ZoneIntensity[zone]/100, li.Rounding)
		if err != nil {
			return nil, err
		}
		out[zone] = w
	}
	return out, nil
}

func tonnage(reps ZoneReps, weights map[Zone]float64) float64 {
	var t float64
	for _, zone := range AllZones {
		t += float64(reps[zone]) * weights[zone]
	}
	return roundPlaces(t, 1)
}

// zoneShares returns each zone's percentage of the total, one decimal.
func zoneShares(reps ZoneReps) map[Zone]float64 {
	total := reps.Total()
	out := make(map[Zone]float64, len(AllZones))
	for _, zone := range AllZones {
		if total == 0 {
			out[zone] = 0
			continue
		}
		out[zone] = roundPlaces(float64(reps[zone])/float64(total)*100, 1)
	}
	return out
}
