package engine

import (
	"fmt"

	"github.com/tphakala/simd/f64"

	"github.com/tphakala/go-blockdsp/internal/filter"
	"github.com/tphakala/go-blockdsp/internal/ringbuffer"
	"github.com/tphakala/go-blockdsp/internal/wave"
)

// resamplerState tracks whether a resampler can still be used.
type resamplerState int

const (
	stateActive resamplerState = iota
	stateUnderflowed
)

// PolyphaseResampler converts between two rates related by the reduced
// ratio up/down without materialising the upsampled signal.
//
// Positions are counted on the interpolation grid, which has up points per
// input frame. Output frames are down grid points apart. For an output at
// grid position t only the kernel taps congruent to t modulo up meet a real
// input sample; those taps form one polyphase branch.
//
// The prefill given at construction is zero history. Output frame 0 is
// aligned with the first frame written afterwards, so the prefill must cover
// HistoryFrames() or the first read underflows.
type PolyphaseResampler struct {
	up   int
	down int

	// now is the grid position of the most recently produced output frame,
	// relative to the oldest frame retained in ring.
	now   int
	state resamplerState

	kernel []float64
	bank   *filter.PolyphaseBank
	ring   *ringbuffer.RingBuffer

	window []float64 // contiguous input gathered for one branch
}

// NewPolyphaseResampler designs the kernel and allocates the input history.
//
// kernelLen is measured in interpolation-grid samples and must be at least
// up. capacity bounds the number of retained input frames, prefill of them
// start out as silence.
func NewPolyphaseResampler(up, down int, nyquistRatio float64, kernelLen, capacity, channels, prefill int) (*PolyphaseResampler, error) {
	if up < 1 || down < 1 {
		return nil, fmt.Errorf("%w: factors must be positive (up %d, down %d)", ErrInvalidConfig, up, down)
	}

	kernel, err := filter.DesignResamplingKernel(filter.KernelParams{
		Up:           up,
		Down:         down,
		NyquistRatio: nyquistRatio,
		Length:       kernelLen,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	bank, err := filter.DecomposePolyphase(kernel, up)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	ring, err := ringbuffer.New(capacity, channels, prefill)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return &PolyphaseResampler{
		up:     up,
		down:   down,
		now:    prefill*up - down,
		kernel: kernel,
		bank:   bank,
		ring:   ring,
		window: make([]float64, bank.MaxTaps()),
	}, nil
}

// Write appends input frames.
func (r *PolyphaseResampler) Write(block *wave.Block) error {
	if err := r.usable(); err != nil {
		return err
	}
	return r.ring.Write(block)
}

// Read fills out with out.Frames output frames.
//
// The whole block is checked before any state changes. Missing history
// (older than the oldest retained frame) latches the resampler in its
// underflowed state and returns an *UnderflowError. Input that has not been
// written yet returns ErrInsufficientInput and leaves the resampler
// untouched, so the caller can write more and retry.
func (r *PolyphaseResampler) Read(out *wave.Block) error {
	if err := r.usable(); err != nil {
		return err
	}
	if out == nil || out.Channels != r.ring.Channels() {
		return fmt.Errorf("%w: output block must have %d channels", ErrShapeMismatch, r.ring.Channels())
	}

	if err := r.validate(out.Frames); err != nil {
		return err
	}

	t := r.now
	for frame := 0; frame < out.Frames; frame++ {
		t += r.down
		input := t / r.up
		taps := r.bank.Phases[t%r.up]
		start := input - len(taps) + 1
		window := r.window[:len(taps)]

		for ch := 0; ch < out.Channels; ch++ {
			if err := r.ring.CopyFrames(window, start, ch); err != nil {
				return err
			}
			out.Set(frame, ch, f64.DotProduct(taps, window))
		}
	}
	r.now = t

	return r.releaseHistory()
}

// validate walks the grid positions of the next frames output frames and
// reports the first one that cannot be computed.
func (r *PolyphaseResampler) validate(frames int) error {
	contained := r.ring.ContainedFrames()
	t := r.now
	for frame := 0; frame < frames; frame++ {
		t += r.down
		input := t / r.up
		phase := t % r.up
		oldest := input - r.bank.Taps(phase) + 1

		if oldest < 0 {
			r.state = stateUnderflowed
			return &UnderflowError{
				Frame:            frame,
				ConvolutionIndex: phase + (input+1)*r.up,
				InputIndex:       -1,
			}
		}
		if input >= contained {
			return fmt.Errorf("%w: output frame %d of %d needs input frame %d, %d available",
				ErrInsufficientInput, frame, frames, input, contained)
		}
	}
	return nil
}

// releaseHistory discards input frames that no future output can reach.
func (r *PolyphaseResampler) releaseHistory() error {
	next := r.now + r.down
	oldestNeeded := next/r.up - r.bank.Taps(next%r.up) + 1
	n := min(max(oldestNeeded, 0), r.ring.ContainedFrames())
	if n == 0 {
		return nil
	}
	if err := r.ring.Discard(n); err != nil {
		return err
	}
	r.now -= n * r.up
	return nil
}

// ReadableFrames returns how many output frames can be read before the
// newest needed input frame has not been written yet. It does not check
// that enough history precedes the first of them.
func (r *PolyphaseResampler) ReadableFrames() int {
	num := r.ring.ContainedFrames()*r.up - 1 - r.now
	if num < 0 {
		return 0
	}
	return num / r.down
}

// Underflowed reports whether an earlier read ran out of history.
func (r *PolyphaseResampler) Underflowed() bool {
	return r.state == stateUnderflowed
}

func (r *PolyphaseResampler) usable() error {
	if r.state == stateUnderflowed {
		return fmt.Errorf("%w: resampler is unusable after an earlier underflow", ErrUnderflow)
	}
	return nil
}

// Factors returns the upsampling and downsampling factors.
func (r *PolyphaseResampler) Factors() (up, down int) { return r.up, r.down }

// KernelLength returns the kernel length on the interpolation grid.
func (r *PolyphaseResampler) KernelLength() int { return len(r.kernel) }

// Kernel returns a copy of the resampling kernel.
func (r *PolyphaseResampler) Kernel() []float64 {
	return append([]float64(nil), r.kernel...)
}

// HistoryFrames returns the prefill needed for the first read not to underflow.
func (r *PolyphaseResampler) HistoryFrames() int { return r.bank.HistoryFrames() }

// ContainedFrames returns the number of retained input frames.
func (r *PolyphaseResampler) ContainedFrames() int { return r.ring.ContainedFrames() }

// Capacity returns the input history capacity in frames.
func (r *PolyphaseResampler) Capacity() int { return r.ring.Capacity() }

// Channels returns the number of channels.
func (r *PolyphaseResampler) Channels() int { return r.ring.Channels() }
