package engine

import "math"

// roundHalfUp rounds to the nearest integer with ties going up.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// roundPlaces rounds half-up to the given number of decimal places.
func roundPlaces(x float64, places int) float64 {
	p := math.Pow10(places)
	return roundHalfUp(x*p) / p
}

// RoundToIncrement rounds raw to the nearest multiple of increment, ties up.
// RoundToIncrement(92.625, 2.5) == 92.5.
func RoundToIncrement(raw, increment float64) (float64, error) {
	if !(increment > 0) || math.IsInf(increment, 0) {
		return 0, shapeError("rounding", increment, "increment must be a positive number")
	}
	if raw == 0 {
		return 0, nil
	}
	steps := roundHalfUp(raw / increment)
	// Two decimals strip the float noise of steps*increment (e.g. 92.50000000001).
	return roundPlaces(steps*increment, 2), nil
}

// AllowedRoundings are the plate increments a coach can pick.
var AllowedRoundings = []float64{1.0, 2.5, 5.0}

func isAllowedRounding(v float64) bool {
	for _, r := range AllowedRoundings {
		if v == r {
			return true
		}
	}
	return false
}
