// Package utils contains math helpers shared by the geometry and planning packages.
package utils

import (
	"math"
	"math/rand"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Math.pow( x, 2 ) is slow, this is faster.
func Square(n float64) float64 {
	return n * n
}

// Clamp returns x clamped to the interval [lower, upper].
func Clamp(x, lower, upper float64) float64 {
	if x < lower {
		return lower
	}
	if x > upper {
		return upper
	}
	return x
}

// Float64AlmostEqual evaluates whether two float64s are within an epsilon of each other.
func Float64AlmostEqual(v1, v2, epsilon float64) bool {
	return math.Abs(v1-v2) < epsilon
}

// SampleTruncatedNormal samples a normal distribution with the given mean and standard
// deviation, rejecting samples outside [lower, upper]. Falls back to the interval
// midpoint if rejection does not terminate quickly.
func SampleTruncatedNormal(mean, stdDev, lower, upper float64, r *rand.Rand) float64 {
	const maxRejections = 100
	for i := 0; i < maxRejections; i++ {
		sample := r.NormFloat64()*stdDev + mean
		if sample >= lower && sample <= upper {
			return sample
		}
	}
	return (lower + upper) / 2
}

// SampleRandomIntRange samples a random integer within a range given by [min, max]
// using the given rand.Rand.
func SampleRandomIntRange(min, max int, r *rand.Rand) int {
	return r.Intn(max-min+1) + min
}
