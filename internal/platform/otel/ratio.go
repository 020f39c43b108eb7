package otel

import (
	"math"
	"strconv"
)

// parseRatio reads a sampling ratio, rejecting NaN and values outside [0,1].
func parseRatio(raw string) (float64, bool) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(value) || value < 0 || value > 1 {
		return 0, false
	}
	return value, true
}
