package stats

// DefaultRatioThreshold is the outlier bound applied to raw numerators in
// FilterRatio.
const DefaultRatioThreshold = 1000.0

// denomEpsilon guards against division blow-up on near-zero denominators.
const denomEpsilon = 1e-6

// FilterRatio cleans a numerator/denominator pair into a bounded ratio series
// (as percentages) for distribution analysis.
//
// Two filter passes over the raw values, in this order:
//  1. drop pairs whose denominator magnitude is below epsilon;
//  2. drop pairs whose numerator lies outside (-threshold, threshold).
//
// The epsilon pass must run first: the threshold is defined in raw-numerator
// units, not ratio units, so reversing the passes changes which pairs survive
// at a boundary. Surviving pairs yield num/denom × 100.
func FilterRatio(num, denom []float64, threshold float64) []float64 {
	n := len(num)
	if len(denom) < n {
		n = len(denom)
	}

	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		d := denom[i]
		if d < denomEpsilon && d > -denomEpsilon {
			continue
		}
		v := num[i]
		if v >= threshold || v <= -threshold {
			continue
		}
		out = append(out, v/d*100)
	}
	return out
}
