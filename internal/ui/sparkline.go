package ui

import "strings"

// sparkChars are eight block heights from lowest to full.
var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a one-line bar chart from a series of samples.
// All samples are scaled against the series maximum.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		return strings.Repeat(string(sparkChars[0]), len(values))
	}

	var sb strings.Builder
	sb.Grow(len(values) * 3)
	for _, v := range values {
		if v < 0 {
			v = 0
		}
		idx := int(v / max * float64(len(sparkChars)-1))
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		sb.WriteRune(sparkChars[idx])
	}
	return sb.String()
}
