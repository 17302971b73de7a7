// Package spectral provides the real-signal spectral transform used by the
// block convolution engine.
//
// Scale convention: Forward divides by the transform length N, Inverse does
// not scale, so Inverse(Forward(x)) == x. Code that stores spectra which must
// behave as unnormalised transforms (filter partitions) multiplies the
// forward result by Scale().
package spectral

import (
	"errors"
	"fmt"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
)

var (
	// ErrInvalidLength indicates an unusable transform length.
	ErrInvalidLength = errors.New("invalid transform length")

	// ErrClosed indicates use of a transform after Close.
	ErrClosed = errors.New("transform is closed")

	// ErrSize indicates buffers whose lengths do not fit the transform.
	ErrSize = errors.New("transform buffer size mismatch")
)

// Transform is an exclusively owned real FFT of fixed even length.
// It keeps private scratch space, so a Transform must not be shared between
// goroutines.
type Transform struct {
	fft   *fourier.FFT
	n     int
	scale float64 // 1/n, applied on the forward path

	seq []float64 // staging for the scaled time signal
}

// New creates a transform of length n. n must be even and at least 2.
func New(n int) (*Transform, error) {
	if n < minLength || n%2 != 0 {
		return nil, fmt.Errorf("%w: %d (must be even and >= %d)", ErrInvalidLength, n, minLength)
	}
	return &Transform{
		fft:   fourier.NewFFT(n),
		n:     n,
		scale: 1.0 / float64(n),
		seq:   make([]float64, n),
	}, nil
}

// Len returns the time-domain length N.
func (t *Transform) Len() int { return t.n }

// Bins returns the number of spectral bins, N/2+1.
func (t *Transform) Bins() int { return t.n/2 + 1 }

// Scale returns the factor that cancels the forward normalisation.
func (t *Transform) Scale() float64 { return float64(t.n) }

// Close releases the transform plan. Later calls return ErrClosed.
func (t *Transform) Close() error {
	if t.fft == nil {
		return ErrClosed
	}
	t.fft = nil
	t.seq = nil
	return nil
}

// Forward computes the normalised spectrum of seq (length N) into dst
// (length N/2+1).
func (t *Transform) Forward(dst []complex128, seq []float64) error {
	if t.fft == nil {
		return ErrClosed
	}
	if len(seq) != t.n {
		return fmt.Errorf("%w: sequence has %d samples, want %d", ErrSize, len(seq), t.n)
	}
	if len(dst) != t.Bins() {
		return fmt.Errorf("%w: spectrum has %d bins, want %d", ErrSize, len(dst), t.Bins())
	}
	f64.Scale(t.seq, seq, t.scale)
	t.fft.Coefficients(dst, t.seq)
	return nil
}

// ForwardHalves transforms the concatenation older||newer, where both halves
// hold N/2 samples and older precedes newer in time.
func (t *Transform) ForwardHalves(dst []complex128, older, newer []float64) error {
	if t.fft == nil {
		return ErrClosed
	}
	half := t.n / 2
	if len(older) != half || len(newer) != half {
		return fmt.Errorf("%w: halves have %d and %d samples, want %d each",
			ErrSize, len(older), len(newer), half)
	}
	if len(dst) != t.Bins() {
		return fmt.Errorf("%w: spectrum has %d bins, want %d", ErrSize, len(dst), t.Bins())
	}
	f64.Scale(t.seq[:half], older, t.scale)
	f64.Scale(t.seq[half:], newer, t.scale)
	t.fft.Coefficients(dst, t.seq)
	return nil
}

// Inverse computes the unnormalised time signal of spectrum (length N/2+1)
// into dst (length N).
func (t *Transform) Inverse(dst []float64, spectrum []complex128) error {
	if t.fft == nil {
		return ErrClosed
	}
	if len(spectrum) != t.Bins() {
		return fmt.Errorf("%w: spectrum has %d bins, want %d", ErrSize, len(spectrum), t.Bins())
	}
	if len(dst) != t.n {
		return fmt.Errorf("%w: sequence has %d samples, want %d", ErrSize, len(dst), t.n)
	}
	t.fft.Sequence(dst, spectrum)
	return nil
}
