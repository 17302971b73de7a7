package filter

import (
	"fmt"
)

// PolyphaseBank is the decomposition of a kernel into Up branches.
//
// Branch c holds the taps kernel[c], kernel[c+Up], kernel[c+2*Up], ... in
// reverse order. Tap kernel[c+k*Up] multiplies the input sample k frames
// before the newest one, so a reversed branch lines up with a contiguous
// window of input ordered oldest to newest and the branch output is a single
// dot product.
type PolyphaseBank struct {
	// Phases holds one reversed tap slice per branch.
	Phases [][]float64

	// Up is the number of branches.
	Up int

	// TotalTaps is the original kernel length.
	TotalTaps int
}

// DecomposePolyphase splits kernel into up reversed branches.
func DecomposePolyphase(kernel []float64, up int) (*PolyphaseBank, error) {
	if up < 1 {
		return nil, fmt.Errorf("%w: upsampling factor %d", ErrInvalidKernel, up)
	}
	if len(kernel) < up {
		return nil, fmt.Errorf("%w: %d taps cannot fill %d branches", ErrInvalidKernel, len(kernel), up)
	}

	bank := &PolyphaseBank{
		Phases:    make([][]float64, up),
		Up:        up,
		TotalTaps: len(kernel),
	}
	for c := range up {
		taps := (len(kernel) - c + up - 1) / up
		phase := make([]float64, taps)
		for k := range taps {
			phase[taps-1-k] = kernel[c+k*up]
		}
		bank.Phases[c] = phase
	}
	return bank, nil
}

// Taps returns the number of taps in branch c.
func (b *PolyphaseBank) Taps(c int) int {
	return len(b.Phases[c])
}

// MaxTaps returns the length of the longest branch.
func (b *PolyphaseBank) MaxTaps() int {
	return len(b.Phases[0])
}

// HistoryFrames returns how many frames older than the current one the
// longest branch reaches back.
func (b *PolyphaseBank) HistoryFrames() int {
	return (b.TotalTaps - 1) / b.Up
}
