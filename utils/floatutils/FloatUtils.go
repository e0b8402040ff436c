// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipInterval is a wrapper to use Clip with an r1.Interval instead of
// a separate max and min value
func ClipInterval(value float64, interval r1.Interval) float64 {
	return Clip(value, interval.Min, interval.Max)
}

// Normalize maps value from interval onto [0, 1], clipping values
// outside of the interval. Degenerate intervals map to 0.
func Normalize(value float64, interval r1.Interval) float64 {
	width := interval.Max - interval.Min
	if width <= 0 {
		return 0.0
	}
	return (ClipInterval(value, interval) - interval.Min) / width
}

// MaxSlice gets the maximum value and indices of the maximum values in
// a slice of float64. The slice must not be empty.
func MaxSlice(values []float64) (max float64, indices []int) {
	max, indices = values[0], []int{0}

	for i := 1; i < len(values); i++ {
		if values[i] > max {
			max = values[i]
			indices = []int{i}
		} else if values[i] == max {
			indices = append(indices, i)
		}
	}
	return
}
