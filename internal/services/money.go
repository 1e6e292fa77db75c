package services

import "math"

// round2 rounds a monetary amount to cents. Applied after every total
// recalculation so stored amounts stay within currency precision.
func round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}
