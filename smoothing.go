package main

import "math"

// ---------------------------------------------------------------------------
// Line smoothing — debiased exponential moving average
// ---------------------------------------------------------------------------

// smoothingWeight maps the 0-100 smoothness setting onto an EMA weight.
// 0 disables smoothing entirely; 100 is capped just below 1 so the series
// still converges.
func smoothingWeight(smoothness int) float64 {
	s := clampSmoothness(smoothness)
	if s == 0 {
		return 0
	}
	w := float64(s) / float64(smoothnessMax)
	if w > 0.99 {
		w = 0.99
	}
	return w
}

// smoothSeries applies a debiased exponential moving average to values and
// returns a new slice. NaN values pass through untouched and do not advance
// the accumulator. smoothness 0 returns a copy of the input.
func smoothSeries(values []float64, smoothness int) []float64 {
	out := make([]float64, len(values))
	weight := smoothingWeight(smoothness)
	if weight == 0 {
		copy(out, values)
		return out
	}

	acc := 0.0
	debias := 0.0 // running (1 - weight^n) denominator
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = v
			continue
		}
		acc = acc*weight + (1-weight)*v
		debias = debias*weight + (1 - weight)
		out[i] = acc / debias
	}
	return out
}
