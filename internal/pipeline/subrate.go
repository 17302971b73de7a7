package pipeline

import (
	"fmt"
	"io"

	"github.com/tphakala/go-blockdsp/internal/engine"
	"github.com/tphakala/go-blockdsp/internal/wave"
)

// SubRateConfig describes the outer and inner cadences of a SubRate stage.
// Both cadences must cover the same time per block.
type SubRateConfig struct {
	OuterRate     float64
	OuterFragsize int
	InnerRate     float64
	InnerFragsize int

	// NyquistRatio and KernelDuration configure both converters.
	NyquistRatio   float64
	KernelDuration float64

	Channels int
}

// Validate checks if the configuration is valid.
func (c *SubRateConfig) Validate() error {
	if c.OuterRate <= 0 || c.InnerRate <= 0 {
		return fmt.Errorf("%w: sample rates must be positive", ErrInvalidConfig)
	}
	if c.OuterFragsize < 1 || c.InnerFragsize < 1 {
		return fmt.Errorf("%w: fragment sizes must be positive", ErrInvalidConfig)
	}
	if float64(c.OuterFragsize)*c.InnerRate != float64(c.InnerFragsize)*c.OuterRate {
		return fmt.Errorf("%w: %d frames at %g Hz and %d frames at %g Hz differ in duration",
			ErrInvalidConfig, c.OuterFragsize, c.OuterRate, c.InnerFragsize, c.InnerRate)
	}
	return nil
}

// SubRate runs an inner stage at another sample rate. Each call converts
// one outer block down to the inner rate, runs the inner stage on every
// inner block that became available and converts one block back.
type SubRate struct {
	cfg     SubRateConfig
	toInner *engine.BlockResampler
	toOuter *engine.BlockResampler
	inner   Stage

	innerIn *wave.Block
	out     *wave.Block
}

// NewSubRate creates the two converters around inner. Only the outer to
// inner converter adds the alignment delay. Zero NyquistRatio and
// KernelDuration select the package defaults.
func NewSubRate(cfg SubRateConfig, inner Stage) (*SubRate, error) {
	if cfg.NyquistRatio == 0 {
		cfg.NyquistRatio = DefaultNyquistRatio
	}
	if cfg.KernelDuration == 0 {
		cfg.KernelDuration = DefaultKernelDuration
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if inner == nil {
		return nil, fmt.Errorf("%w: inner stage is nil", ErrInvalidConfig)
	}

	toInner, err := engine.NewBlockResampler(engine.BlockConfig{
		SourceRate:     cfg.OuterRate,
		SourceFragsize: cfg.OuterFragsize,
		TargetRate:     cfg.InnerRate,
		TargetFragsize: cfg.InnerFragsize,
		NyquistRatio:   cfg.NyquistRatio,
		KernelDuration: cfg.KernelDuration,
		Channels:       cfg.Channels,
		AddDelay:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("outer to inner: %w", err)
	}
	toOuter, err := engine.NewBlockResampler(engine.BlockConfig{
		SourceRate:     cfg.InnerRate,
		SourceFragsize: cfg.InnerFragsize,
		TargetRate:     cfg.OuterRate,
		TargetFragsize: cfg.OuterFragsize,
		NyquistRatio:   cfg.NyquistRatio,
		KernelDuration: cfg.KernelDuration,
		Channels:       cfg.Channels,
	})
	if err != nil {
		return nil, fmt.Errorf("inner to outer: %w", err)
	}

	return &SubRate{
		cfg:     cfg,
		toInner: toInner,
		toOuter: toOuter,
		inner:   inner,
		innerIn: wave.New(cfg.InnerFragsize, cfg.Channels),
		out:     wave.New(cfg.OuterFragsize, cfg.Channels),
	}, nil
}

// Process converts in to the inner rate, runs the inner stage and returns
// one outer block.
func (s *SubRate) Process(in *wave.Block) (*wave.Block, error) {
	if err := s.toInner.Write(in); err != nil {
		return nil, err
	}

	for s.toInner.CanRead() {
		if err := s.toInner.Read(s.innerIn); err != nil {
			return nil, err
		}
		processed, err := s.inner.Process(s.innerIn)
		if err != nil {
			return nil, fmt.Errorf("inner stage: %w", err)
		}
		if err := s.toOuter.Write(processed); err != nil {
			return nil, err
		}
	}

	if !s.toOuter.CanRead() {
		return nil, fmt.Errorf("%w: %d outer frames readable, need %d",
			engine.ErrInsufficientInput, s.toOuter.ReadableFrames(), s.cfg.OuterFragsize)
	}
	if err := s.toOuter.Read(s.out); err != nil {
		return nil, err
	}
	return s.out, nil
}

// Latency returns the round-trip delay in seconds: both kernels' group
// delays plus the alignment delay.
func (s *SubRate) Latency() float64 {
	latency := s.toInner.GroupDelay() + s.toOuter.GroupDelay()
	if s.toInner.DelayApplied() {
		latency += float64(s.toInner.Delay()) / s.cfg.OuterRate
	}
	return latency
}

// Config returns the configuration with defaults applied.
func (s *SubRate) Config() SubRateConfig { return s.cfg }

// Close closes the inner stage if it holds resources.
func (s *SubRate) Close() error {
	if closer, ok := s.inner.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
