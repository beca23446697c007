package export

import (
	"fmt"
	"math"
	"strings"
)

// WaveformSVG plots values against their index: a pickup signal over time,
// or a string's displacement over node index. The vertical scale is
// symmetric about rest so a zero line runs through the middle, and the
// largest magnitude reaches 90% of the half height.
func WaveformSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	amp := 0.0
	for _, v := range values {
		if a := math.Abs(v); a > amp && !math.IsInf(a, 0) {
			amp = a
		}
	}
	if amp == 0 {
		amp = 1
	}

	mid := float64(height) / 2
	scale := 0.9 * mid / amp
	step := float64(width) / float64(len(values)-1)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#333333" stroke-width="1"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`,
		width, height, width, height, mid, width, mid, strokeColor)

	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		cmd := " L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&sb, "%s%.1f,%.1f", cmd, float64(i)*step, mid-v*scale)
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// Decimate reduces values to at most n points by keeping the sample with
// the largest magnitude in each bucket, so peaks survive.
func Decimate(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	out := make([]float64, n)
	for b := 0; b < n; b++ {
		lo := b * len(values) / n
		hi := (b + 1) * len(values) / n
		best := values[lo]
		for _, v := range values[lo:hi] {
			if math.Abs(v) > math.Abs(best) {
				best = v
			}
		}
		out[b] = best
	}
	return out
}
