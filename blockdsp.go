package blockdsp

import (
	"github.com/tphakala/go-blockdsp/internal/engine"
	"github.com/tphakala/go-blockdsp/internal/mathutil"
	"github.com/tphakala/go-blockdsp/internal/pipeline"
	"github.com/tphakala/go-blockdsp/internal/ringbuffer"
	"github.com/tphakala/go-blockdsp/internal/spectral"
	"github.com/tphakala/go-blockdsp/internal/wave"
)

// Block is a multi-channel block of float64 samples stored channel-major.
type Block = wave.Block

// TransferEntry is one impulse response from a source channel to a target
// channel.
type TransferEntry = engine.TransferEntry

// TransferMatrix is the sparse list of impulse responses a Convolver applies.
type TransferMatrix = engine.TransferMatrix

// Convolver is the partitioned convolution engine.
type Convolver = engine.Convolver

// PolyphaseResampler is the rational resampler over a ring buffer.
type PolyphaseResampler = engine.PolyphaseResampler

// BlockResampler adapts a PolyphaseResampler to fixed block sizes.
type BlockResampler = engine.BlockResampler

// BlockConfig configures a BlockResampler.
type BlockConfig = engine.BlockConfig

// UnderflowError reports the frame at which a resampler ran out of history.
type UnderflowError = engine.UnderflowError

// Stage processes one block per call.
type Stage = pipeline.Stage

// StageFunc adapts a function to Stage.
type StageFunc = pipeline.StageFunc

// Chain runs stages in order.
type Chain = pipeline.Chain

// SubRate runs an inner stage at another sample rate.
type SubRate = pipeline.SubRate

// SubRateConfig configures a SubRate stage.
type SubRateConfig = pipeline.SubRateConfig

// Sentinel errors. Every error returned by this package wraps one of them.
var (
	ErrInvalidConfig     = engine.ErrInvalidConfig
	ErrShapeMismatch     = engine.ErrShapeMismatch
	ErrPartitionRange    = engine.ErrPartitionRange
	ErrInsufficientInput = engine.ErrInsufficientInput
	ErrUnderflow         = engine.ErrUnderflow
	ErrCapacity          = ringbuffer.ErrCapacity
	ErrRange             = ringbuffer.ErrRange
	ErrClosed            = spectral.ErrClosed
	ErrNotInteger        = mathutil.ErrNotInteger
)

// NewBlock allocates a zeroed block.
func NewBlock(frames, channels int) *Block {
	return wave.New(frames, channels)
}

// BlockFromChannels builds a block from equally long per-channel slices.
func BlockFromChannels(channels ...[]float64) (*Block, error) {
	return wave.FromChannels(channels...)
}

// NewConvolver creates a convolution engine for blocks of fragsize frames.
// The engine owns a transform and must be closed.
func NewConvolver(fragsize, inputs, outputs int, matrix TransferMatrix) (*Convolver, error) {
	return engine.NewConvolver(fragsize, inputs, outputs, matrix)
}

// DiagonalTransfer maps channel i to channel i through responses[i].
func DiagonalTransfer(responses ...[]float64) TransferMatrix {
	return engine.DiagonalTransfer(responses...)
}

// NewPolyphaseResampler creates a resampler with factors up/down, a kernel
// of kernelLen taps and a ring buffer of capacity frames holding prefill
// frames of silence.
func NewPolyphaseResampler(up, down int, nyquistRatio float64, kernelLen, capacity, channels, prefill int) (*PolyphaseResampler, error) {
	return engine.NewPolyphaseResampler(up, down, nyquistRatio, kernelLen, capacity, channels, prefill)
}

// NewBlockResampler creates a block-size adapting resampler.
func NewBlockResampler(cfg BlockConfig) (*BlockResampler, error) {
	return engine.NewBlockResampler(cfg)
}

// NewChain creates a processing chain.
func NewChain(stages ...Stage) *Chain {
	return pipeline.NewChain(stages...)
}

// NewSubRate wraps inner with converters to and from cfg.InnerRate.
func NewSubRate(cfg SubRateConfig, inner Stage) (*SubRate, error) {
	return pipeline.NewSubRate(cfg, inner)
}

// RationalFactors returns the reduced up/down factors converting
// sourceRate to targetRate.
func RationalFactors(sourceRate, targetRate float64) (up, down int, err error) {
	return mathutil.RationalFactors(sourceRate, targetRate)
}

// RationalFactorsWithHelper scales both rates by helper before deriving the
// factors, which admits rates with a known fractional part.
func RationalFactorsWithHelper(sourceRate, targetRate, helper float64) (up, down int, err error) {
	return mathutil.RationalFactorsWithHelper(sourceRate, targetRate, helper)
}
