package engine

import (
	"fmt"
	"math"

	"github.com/tphakala/go-blockdsp/internal/mathutil"
	"github.com/tphakala/go-blockdsp/internal/wave"
)

// BlockConfig describes a rate conversion between two fixed block cadences.
type BlockConfig struct {
	// SourceRate and SourceFragsize describe the blocks passed to Write.
	SourceRate     float64
	SourceFragsize int

	// TargetRate and TargetFragsize describe the blocks filled by Read.
	TargetRate     float64
	TargetFragsize int

	// NyquistRatio places the lowpass cutoff relative to the lower Nyquist
	// frequency of the two rates, in (0, 1].
	NyquistRatio float64

	// KernelDuration is the resampling kernel length in seconds.
	KernelDuration float64

	// Channels is the number of audio channels.
	Channels int

	// AddDelay writes the alignment delay as silence at construction, so a
	// reader on a fixed cadence never waits for input. In a round trip only
	// one of the two converters should set it.
	AddDelay bool
}

// Validate checks if the configuration is valid.
func (c *BlockConfig) Validate() error {
	if c.SourceRate <= 0 || c.TargetRate <= 0 {
		return fmt.Errorf("%w: sample rates must be positive", ErrInvalidConfig)
	}
	if c.SourceFragsize < 1 || c.TargetFragsize < 1 {
		return fmt.Errorf("%w: fragment sizes must be positive (source %d, target %d)",
			ErrInvalidConfig, c.SourceFragsize, c.TargetFragsize)
	}
	if !(c.NyquistRatio > 0 && c.NyquistRatio <= 1) {
		return fmt.Errorf("%w: nyquist ratio %g outside (0, 1]", ErrInvalidConfig, c.NyquistRatio)
	}
	if c.KernelDuration <= 0 {
		return fmt.Errorf("%w: kernel duration must be positive", ErrInvalidConfig)
	}
	if c.Channels < 1 {
		return fmt.Errorf("%w: channels must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// BlockResampler adapts a PolyphaseResampler to fixed source and target
// block sizes. The kernel history is always prefilled; the alignment delay
// is added on request.
type BlockResampler struct {
	cfg       BlockConfig
	resampler *PolyphaseResampler
	delay     int
}

// NewBlockResampler derives the rational factors, sizes the history buffer
// and optionally primes it with the alignment delay.
func NewBlockResampler(cfg BlockConfig) (*BlockResampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	up, down, err := mathutil.RationalFactors(cfg.SourceRate, cfg.TargetRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	kernelLen := int(math.Round(cfg.KernelDuration * cfg.SourceRate * float64(up)))
	if kernelLen < up {
		return nil, fmt.Errorf("%w: kernel of %gs gives %d taps, need at least %d",
			ErrInvalidConfig, cfg.KernelDuration, kernelLen, up)
	}

	history := (kernelLen - 1) / up
	delay := AlignmentDelay(cfg.SourceFragsize, cfg.TargetFragsize, up, down)
	capacity := history + delay + cfg.SourceFragsize + ceilDiv(cfg.TargetFragsize*down, up) + 1

	resampler, err := NewPolyphaseResampler(up, down, cfg.NyquistRatio, kernelLen, capacity, cfg.Channels, history)
	if err != nil {
		return nil, err
	}

	b := &BlockResampler{cfg: cfg, resampler: resampler, delay: delay}
	if cfg.AddDelay && delay > 0 {
		if err := resampler.Write(wave.New(delay, cfg.Channels)); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// AlignmentDelay returns the number of source frames of silence that let a
// reader fetch targetFrag frames on its own cadence without ever waiting
// for the writer, given that each write delivers sourceFrag frames and
// output frame 0 is aligned with the first written frame.
//
// On the interpolation grid a write covers sourceFrag*up positions and a
// read covers targetFrag*down. When the last frame of read m falls at
// remainder r inside the current write period, d frames of delay suffice
// when r - down < d*up. The largest remainder the two cadences reach is
// sourceFrag*up - gcd(targetFrag*down, sourceFrag*up).
func AlignmentDelay(sourceFrag, targetFrag, up, down int) int {
	period := sourceFrag * up
	worst := period - mathutil.GCD(targetFrag*down, period) - down
	if worst < 0 {
		return 0
	}
	return worst/up + 1
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Write appends one source block.
func (b *BlockResampler) Write(block *wave.Block) error {
	if err := block.CheckShape(b.cfg.SourceFragsize, b.cfg.Channels); err != nil {
		return err
	}
	return b.resampler.Write(block)
}

// Read fills one target block.
func (b *BlockResampler) Read(block *wave.Block) error {
	if err := block.CheckShape(b.cfg.TargetFragsize, b.cfg.Channels); err != nil {
		return err
	}
	return b.resampler.Read(block)
}

// CanRead reports whether a full target block is available.
func (b *BlockResampler) CanRead() bool {
	return b.resampler.ReadableFrames() >= b.cfg.TargetFragsize
}

// ReadableFrames returns the number of target frames available.
func (b *BlockResampler) ReadableFrames() int { return b.resampler.ReadableFrames() }

// Delay returns the alignment delay in source frames, whether or not it was
// written.
func (b *BlockResampler) Delay() int { return b.delay }

// DelayApplied reports whether the alignment delay was written at construction.
func (b *BlockResampler) DelayApplied() bool { return b.cfg.AddDelay && b.delay > 0 }

// Factors returns the upsampling and downsampling factors.
func (b *BlockResampler) Factors() (up, down int) { return b.resampler.Factors() }

// KernelLength returns the kernel length on the interpolation grid.
func (b *BlockResampler) KernelLength() int { return b.resampler.KernelLength() }

// GroupDelay returns the kernel's group delay in seconds.
func (b *BlockResampler) GroupDelay() float64 {
	up, _ := b.Factors()
	return float64(b.KernelLength()-1) / 2 / (b.cfg.SourceRate * float64(up))
}

// Config returns the configuration the resampler was built with.
func (b *BlockResampler) Config() BlockConfig { return b.cfg }

// Resampler exposes the underlying polyphase resampler.
func (b *BlockResampler) Resampler() *PolyphaseResampler { return b.resampler }
