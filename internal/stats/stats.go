// Package stats holds the numeric primitives used to normalize raw signals.
// Every function returns a defined number for any input and never panics.
package stats

import (
	"math"
)

// DefaultWindow is the moving-window length used by ZScore.
const DefaultWindow = 24

// minStdDev below which a history is treated as flat.
const minStdDev = 0.01

// ZScore measures current against the last window entries of history
// (oldest first). Returns 0 for fewer than 3 points or a flat window.
func ZScore(current float64, history []float64, window int) float64 {
	if len(history) < 3 || !finite(current) {
		return 0
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	mean := Mean(history)
	std := StdDev(history)
	if !finite(mean) || !finite(std) || std < minStdDev {
		return 0
	}

	return Round2((current - mean) / std)
}

// Slope is the rate of change of the last element against the mean of the rest.
// A jump from a zero baseline is reported as 1.0.
func Slope(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}

	current := series[len(series)-1]
	avg := Mean(series[:len(series)-1])
	if !finite(current) || !finite(avg) {
		return 0
	}

	if avg == 0 {
		if current == 0 {
			return 0
		}
		// TODO: scale by magnitude once real historical traces confirm a normalization.
		return 1.0
	}

	return (current - avg) / avg
}

// Velocity is change per minute.
func Velocity(current, previous, deltaMinutes float64) float64 {
	if deltaMinutes == 0 || !finite(deltaMinutes) {
		return 0
	}
	v := (current - previous) / deltaMinutes
	if !finite(v) {
		return 0
	}
	return v
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// Clamp bounds v to [lo, hi]; NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
