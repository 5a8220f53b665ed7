package view

import "math"

// innerRadius keeps the lowest value off the centre of a polar plot
const innerRadius = 0.2

// Polar wraps a channel around a circle that turns once per period.
// The angle is t mod period; the radius is the value scaled from
// [minV, maxV] into [innerRadius, 1]. Results are unit-circle coordinates.
func Polar(t, values []float64, period, minV, maxV float64) ([]float64, []float64) {
	n := min(len(t), len(values))
	xs := make([]float64, n)
	ys := make([]float64, n)
	if !(period > 0) {
		return xs[:0], ys[:0]
	}
	for i := 0; i < n; i++ {
		phase := math.Mod(t[i], period)
		if phase < 0 {
			phase += period
		}
		theta := 2 * math.Pi * phase / period
		r := innerRadius + (1-innerRadius)*unit(values[i], minV, maxV)
		xs[i] = r * math.Cos(theta)
		ys[i] = r * math.Sin(theta)
	}
	return xs, ys
}

// XORChunks cuts a uniformly sampled channel into chunks of width seconds
// and compares every chunk after the first with a reference chunk: the one
// before it, or the first chunk when baseline is set. Samples within
// tolerance of the reference are erased (NaN) so only differences remain.
// The sample spacing is taken from the first two timestamps.
func XORChunks(t, values []float64, width, tolerance float64, baseline bool) [][]float64 {
	n := min(len(t), len(values))
	if n < 2 || !(width > 0) {
		return nil
	}
	dt := t[1] - t[0]
	if !(dt > 0) {
		return nil
	}
	per := int(math.Floor(width / dt))
	if per <= 0 {
		return nil
	}
	chunks := n / per
	if chunks < 2 {
		return nil
	}

	out := make([][]float64, 0, chunks-1)
	for i := 1; i < chunks; i++ {
		ref := (i - 1) * per
		if baseline {
			ref = 0
		}
		cur := i * per
		diff := make([]float64, per)
		for j := 0; j < per; j++ {
			v := values[cur+j]
			if math.Abs(v-values[ref+j]) <= tolerance {
				v = math.NaN()
			}
			diff[j] = v
		}
		out = append(out, diff)
	}
	return out
}

// paddedRange widens [minV, maxV] by a tenth on each side, or by 0.5 when
// the range is flat, so points never sit on the border
func paddedRange(minV, maxV float64) (float64, float64) {
	pad := (maxV - minV) * 0.1
	if pad == 0 {
		pad = 0.5
	}
	return minV - pad, maxV + pad
}

// unit scales v from [minV, maxV] into [0, 1]. A flat range maps to 0.5.
func unit(v, minV, maxV float64) float64 {
	span := maxV - minV
	if !(span > 0) {
		return 0.5
	}
	return (v - minV) / span
}
