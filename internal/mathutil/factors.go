// Package mathutil provides integer arithmetic used to relate sample rates.
package mathutil

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotInteger indicates a rate that cannot be represented as an exact
// positive integer after applying the helper factor.
var ErrNotInteger = errors.New("rate is not an exact integer")

// GCD returns the greatest common divisor of a and b (non-negative inputs).
func GCD(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ExactInteger converts x to an int when x is a whole number in
// [0, maxRateValue].
func ExactInteger(x float64) (int, bool) {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 || x > maxRateValue {
		return 0, false
	}
	if x != math.Trunc(x) {
		return 0, false
	}
	return int(x), true
}

// RationalFactors returns the reduced upsampling and downsampling factors
// that convert sourceRate into targetRate: targetRate/sourceRate == up/down.
func RationalFactors(sourceRate, targetRate float64) (up, down int, err error) {
	return RationalFactorsWithHelper(sourceRate, targetRate, defaultHelperFactor)
}

// RationalFactorsWithHelper is RationalFactors for rates that only become
// integers after multiplication by helper (e.g. helper 2 for 11025.5 Hz).
func RationalFactorsWithHelper(sourceRate, targetRate, helper float64) (up, down int, err error) {
	source, ok := ExactInteger(sourceRate * helper)
	if !ok {
		return 0, 0, fmt.Errorf("%w: source rate %g x %g", ErrNotInteger, sourceRate, helper)
	}
	target, ok := ExactInteger(targetRate * helper)
	if !ok {
		return 0, 0, fmt.Errorf("%w: target rate %g x %g", ErrNotInteger, targetRate, helper)
	}
	if source == 0 || target == 0 {
		return 0, 0, fmt.Errorf("%w: rates must be non-zero (source %d, target %d)", ErrNotInteger, source, target)
	}

	g := GCD(source, target)
	return target / g, source / g, nil
}
