package engine

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-blockdsp/internal/wave"
)

// Errors returned by the processing engines.
var (
	// ErrInvalidConfig indicates invalid construction parameters.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrShapeMismatch indicates a block whose size or channel count differs
	// from what the engine was built for.
	ErrShapeMismatch = wave.ErrShapeMismatch

	// ErrPartitionRange indicates a partition index outside an impulse response.
	ErrPartitionRange = errors.New("partition index out of range")

	// ErrInsufficientInput indicates a read that needs input frames which
	// have not been written yet. The resampler state is unchanged.
	ErrInsufficientInput = errors.New("insufficient input written")

	// ErrUnderflow indicates a read that needed history older than the oldest
	// retained frame. The resampler is unusable afterwards.
	ErrUnderflow = errors.New("resampler history underflow")
)

// UnderflowError reports where the resampler ran out of history.
type UnderflowError struct {
	// Frame is the output frame, within the read block, that failed.
	Frame int

	// ConvolutionIndex is the kernel tap that needed the missing sample.
	ConvolutionIndex int

	// InputIndex is the missing input position relative to the oldest
	// retained frame (always negative).
	InputIndex int
}

func (e *UnderflowError) Error() string {
	return fmt.Sprintf("%v: output frame %d needs input %d for convolution index %d",
		ErrUnderflow, e.Frame, e.InputIndex, e.ConvolutionIndex)
}

// Is reports ErrUnderflow as the matching sentinel.
func (e *UnderflowError) Is(target error) bool {
	return target == ErrUnderflow
}
