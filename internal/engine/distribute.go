package engine

// percentOf returns pct% of volume rounded half-up. The product is formed in
// integers so 350*45/100 is exactly 157.5 before rounding.
func percentOf(pct, volume int) int {
	return int(roundHalfUp(float64(pct*volume) / 100))
}

func (d IntensityDistribution) validate() error {
	if d.Pct75 < 0 || d.Pct75 > 100 {
		return shapeError("intensity_distribution.75_percent", d.Pct75, "must be between 0 and 100")
	}
	if d.Pct85 < 0 || d.Pct85 > 100 {
		return shapeError("intensity_distribution.85_percent", d.Pct85, "must be between 0 and 100")
	}
	if d.Reps90 < 0 {
		return shapeError("intensity_distribution.90_total_reps", d.Reps90, "must not be negative")
	}
	if d.Reps95 < 0 {
		return shapeError("intensity_distribution.95_total_reps", d.Reps95, "must not be negative")
	}
	return nil
}

// DistributeZones converts a block volume and an intensity distribution into
// absolute reps per zone. Zones 75 and 85 are rounded independently, 90 and
// 95 are taken as given, and 65 absorbs the remainder so the zones always sum
// to volume. Zone 55 is reserved and always 0.
func DistributeZones(volume int, d IntensityDistribution) (ZoneReps, error) {
	if volume <= 0 {
		return nil, shapeError("volume", volume, "must be positive")
	}
	if err := d.validate(); err != nil {
		return nil, err
	}

	reps75 := percentOf(d.Pct75, volume)
	reps85 := percentOf(d.Pct85, volume)
	committed := reps75 + reps85 + d.Reps90 + d.Reps95
	reps65 := volume - committed
	if reps65 < 0 {
		return nil, configError("intensity_distribution", d,
			"zones 75/85/90/95 need %d reps but volume is %d", committed, volume)
	}

	z := newZoneReps()
	z[Zone65] = reps65
	z[Zone75] = reps75
	z[Zone85] = reps85
	z[Zone90] = d.Reps90
	z[Zone95] = d.Reps95
	return z, nil
}
