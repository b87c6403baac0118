package matching

import "math"

// Weights controls how much each signal contributes to the composite score.
// Values are relative; NormalizeWeights rescales them to sum to 1.
type Weights struct {
	Time  float64
	Level float64
	City  float64
}

var defaultWeights = Weights{Time: 0.45, Level: 0.50, City: 0.05}

// DefaultWeights returns the balanced profile used when a request supplies none.
func DefaultWeights() Weights { return defaultWeights }

// Valid reports whether every component is finite and non-negative.
func (w Weights) Valid() bool {
	for _, v := range [...]float64{w.Time, w.Level, w.City} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NormalizeWeights rescales w so the three components sum to 1.
//
// Invalid components or a zero total cannot be rescaled; in that case the
// default distribution is returned.
func NormalizeWeights(w Weights) Weights {
	if !w.Valid() || w.Time+w.Level+w.City <= 0 {
		w = defaultWeights
	}
	sum := w.Time + w.Level + w.City
	return Weights{Time: w.Time / sum, Level: w.Level / sum, City: w.City / sum}
}
