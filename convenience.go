package blockdsp

import (
	"fmt"
	"math"

	"github.com/tphakala/go-blockdsp/internal/engine"
	"github.com/tphakala/go-blockdsp/internal/mathutil"
	"github.com/tphakala/go-blockdsp/internal/wave"
)

// ConvolveSignal convolves a mono signal with response through the block
// engine. The input is zero-padded to whole blocks of fragsize frames and
// the result holds the full len(signal)+len(response)-1 samples.
func ConvolveSignal(signal, response []float64, fragsize int) ([]float64, error) {
	if len(response) == 0 {
		return nil, fmt.Errorf("%w: empty impulse response", ErrInvalidConfig)
	}
	c, err := engine.NewConvolver(fragsize, 1, 1, engine.DiagonalTransfer(response))
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Close() }()

	if len(signal) == 0 {
		return []float64{}, nil
	}

	total := len(signal) + len(response) - 1
	output := make([]float64, 0, total+fragsize)
	in := wave.New(fragsize, 1)
	for start := 0; start < total; start += fragsize {
		in.Zero()
		if start < len(signal) {
			copy(in.Data, signal[start:min(start+fragsize, len(signal))])
		}
		out, err := c.Process(in)
		if err != nil {
			return nil, err
		}
		output = append(output, out.Data...)
	}
	return output[:total], nil
}

// ResampleSignal converts a mono signal from sourceRate to targetRate.
// The kernel's group delay is removed to the nearest output frame, so output
// frame j lines up with time j/targetRate of the input. The result holds
// ceil(len(signal)*targetRate/sourceRate) samples. A zero kernelDuration
// selects DefaultKernelDuration.
func ResampleSignal(signal []float64, sourceRate, targetRate, kernelDuration float64) ([]float64, error) {
	if kernelDuration == 0 {
		kernelDuration = DefaultKernelDuration
	}
	if kernelDuration < 0 {
		return nil, fmt.Errorf("%w: kernel duration %g", ErrInvalidConfig, kernelDuration)
	}
	up, down, err := mathutil.RationalFactors(sourceRate, targetRate)
	if err != nil {
		return nil, err
	}
	if len(signal) == 0 {
		return []float64{}, nil
	}

	kernelLen := int(math.Round(kernelDuration * sourceRate * float64(up)))
	history := (kernelLen - 1) / up
	skip := groupDelayFrames(kernelLen, down)
	outLen := (len(signal)*up + down - 1) / down

	// Output frame k needs input up to grid position (k+1)*down - 1 past the
	// first written frame.
	needed := (skip+outLen)*down - down + 1
	padded := max(len(signal), (needed+up-1)/up)

	r, err := engine.NewPolyphaseResampler(up, down, DefaultNyquistRatio, kernelLen,
		history+padded, 1, history)
	if err != nil {
		return nil, err
	}

	in := wave.New(padded, 1)
	copy(in.Data, signal)
	if err := r.Write(in); err != nil {
		return nil, err
	}

	out := wave.New(skip+outLen, 1)
	if err := r.Read(out); err != nil {
		return nil, err
	}
	return out.Data[skip:], nil
}

// InterleaveToStereo converts two mono channels to interleaved stereo.
// Output format: [L0, R0, L1, R1, L2, R2, ...]
func InterleaveToStereo(left, right []float64) []float64 {
	minLen := min(len(left), len(right))
	result := make([]float64, minLen*stereoChannels)
	for i := range minLen {
		result[i*stereoChannels] = left[i]
		result[i*stereoChannels+1] = right[i]
	}
	return result
}

// DeinterleaveFromStereo converts interleaved stereo to two mono channels.
// Input format: [L0, R0, L1, R1, L2, R2, ...]
func DeinterleaveFromStereo(interleaved []float64) (left, right []float64) {
	numSamples := len(interleaved) / stereoChannels
	left = make([]float64, numSamples)
	right = make([]float64, numSamples)
	for i := range numSamples {
		left[i] = interleaved[i*stereoChannels]
		right[i] = interleaved[i*stereoChannels+1]
	}
	return left, right
}
