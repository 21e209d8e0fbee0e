package formulas

// MaxDrawdown calculates the maximum peak-to-trough decline of a value series.
//
// The result is expressed as a fraction of the running peak and is always
// negative or zero (zero for a monotonically rising series).
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	maxDD := 0.0
	peak := values[0]

	for _, v := range values[1:] {
		if v > peak {
			peak = v
			continue
		}
		if peak > 0 {
			dd := (v - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}
