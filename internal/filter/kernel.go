// Package filter provides filter design functions for rational resampling.
package filter

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/window"
)

// ErrInvalidKernel indicates unusable kernel design parameters.
var ErrInvalidKernel = errors.New("invalid resampling kernel")

// KernelParams holds parameters for the resampling kernel design.
type KernelParams struct {
	// Up and Down are the reduced upsampling and downsampling factors.
	Up   int
	Down int

	// NyquistRatio places the cutoff as a fraction (0, 1] of the lower of
	// the two Nyquist frequencies.
	NyquistRatio float64

	// Length is the kernel length in samples at the interpolation rate.
	Length int
}

// Validate checks if kernel parameters are valid.
func (p *KernelParams) Validate() error {
	if p.Up < 1 || p.Down < 1 {
		return fmt.Errorf("%w: factors must be positive (up %d, down %d)", ErrInvalidKernel, p.Up, p.Down)
	}
	if !(p.NyquistRatio > 0 && p.NyquistRatio <= 1) {
		return fmt.Errorf("%w: nyquist ratio %g outside (0, 1]", ErrInvalidKernel, p.NyquistRatio)
	}
	if p.Length < p.Up {
		return fmt.Errorf("%w: length %d shorter than upsampling factor %d", ErrInvalidKernel, p.Length, p.Up)
	}
	return nil
}

// DesignResamplingKernel designs the Hann-windowed sinc lowpass used at the
// interpolation rate.
//
// The sinc sin(pi*q*n)/(pi*q*n) is centred on (Length-1)/2 with
// q = NyquistRatio / max(Up, Down), so the cutoff sits at NyquistRatio times
// the lower Nyquist frequency of the two rates. The windowed kernel is scaled
// to a DC gain of Up, which gives every polyphase branch a gain near one.
func DesignResamplingKernel(params KernelParams) ([]float64, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	q := params.NyquistRatio / float64(max(params.Up, params.Down))
	center := float64(params.Length-1) / halfDivisor

	kernel := make([]float64, params.Length)
	for k := range kernel {
		x := math.Pi * q * (float64(k) - center)
		if math.Abs(x) < sincZeroThreshold {
			kernel[k] = 1
		} else {
			kernel[k] = math.Sin(x) / x
		}
	}
	if params.Length > 1 {
		window.Hann(kernel)
	}

	sum := f64.Sum(kernel)
	if math.Abs(sum) < sincZeroThreshold {
		return nil, fmt.Errorf("%w: kernel of %d taps has no DC gain", ErrInvalidKernel, params.Length)
	}
	f64.Scale(kernel, kernel, float64(params.Up)/sum)

	return kernel, nil
}

// FilterResponse holds the frequency response of a filter.
type FilterResponse struct {
	// Frequencies at which response was calculated (normalized, 0 to 0.5)
	Frequencies []float64

	// Magnitude response at each frequency (linear scale)
	Magnitude []float64

	// Phase response at each frequency (radians)
	Phase []float64
}

// ComputeFrequencyResponse evaluates the DTFT of an FIR filter at numPoints
// frequencies between DC and Nyquist.
func ComputeFrequencyResponse(coeffs []float64, numPoints int) FilterResponse {
	if numPoints <= 0 {
		numPoints = defaultResponsePoints
	}

	response := FilterResponse{
		Frequencies: make([]float64, numPoints),
		Magnitude:   make([]float64, numPoints),
		Phase:       make([]float64, numPoints),
	}

	for k := range numPoints {
		freq := float64(k) / float64(halfDivisor*numPoints)
		response.Frequencies[k] = freq
		response.Magnitude[k], response.Phase[k] = ResponseAt(coeffs, freq)
	}

	return response
}

// ResponseAt returns magnitude and phase of coeffs at normalized frequency freq.
func ResponseAt(coeffs []float64, freq float64) (magnitude, phase float64) {
	var re, im float64
	omega := 2 * math.Pi * freq
	for n, h := range coeffs {
		angle := omega * float64(n)
		re += h * math.Cos(angle)
		im -= h * math.Sin(angle)
	}
	return math.Hypot(re, im), math.Atan2(im, re)
}

// MagnitudeDB converts linear magnitude to decibels.
func MagnitudeDB(magnitude float64) float64 {
	const (
		minMagnitude = 1e-10 // Avoid log(0)
		dbMultiplier = 20.0
	)

	if magnitude < minMagnitude {
		magnitude = minMagnitude
	}
	return dbMultiplier * math.Log10(magnitude)
}
