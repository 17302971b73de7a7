package blockdsp

import (
	"math"

	"github.com/tphakala/simd/cpu"
)

// Info describes a processing engine.
type Info struct {
	// Algorithm names the engine type.
	Algorithm string

	// UpFactor and DownFactor are the reduced resampling factors (1 and 1
	// for engines that do not resample).
	UpFactor   int
	DownFactor int

	// KernelLength is the resampling kernel length on the interpolation grid.
	KernelLength int

	// Partitions is the number of non-empty spectral partitions held by a
	// convolver, and OutputPartitions the length of its output pipeline.
	Partitions       int
	OutputPartitions int

	// Latency is the group delay in output frames.
	Latency int

	// SIMDType describes the SIMD instruction set used by the vector kernels.
	SIMDType string
}

// Algorithm names reported by GetInfo.
const (
	AlgorithmConvolver = "partitioned-convolution"
	AlgorithmPolyphase = "polyphase"
	AlgorithmBlock     = "block-polyphase"
	AlgorithmSubRate   = "sub-rate"
	AlgorithmUnknown   = "unknown"
)

// GetInfo returns information about an engine created by this package.
// Unknown values report AlgorithmUnknown.
func GetInfo(v any) Info {
	info := Info{
		Algorithm:  AlgorithmUnknown,
		UpFactor:   unitFactor,
		DownFactor: unitFactor,
		SIMDType:   cpu.Info(),
	}

	switch e := v.(type) {
	case *Convolver:
		info.Algorithm = AlgorithmConvolver
		info.Partitions = e.PartitionCount()
		info.OutputPartitions = e.OutputPartitions()
	case *PolyphaseResampler:
		info.Algorithm = AlgorithmPolyphase
		info.UpFactor, info.DownFactor = e.Factors()
		info.KernelLength = e.KernelLength()
		info.Latency = groupDelayFrames(info.KernelLength, info.DownFactor)
	case *BlockResampler:
		info.Algorithm = AlgorithmBlock
		info.UpFactor, info.DownFactor = e.Factors()
		info.KernelLength = e.KernelLength()
		info.Latency = int(math.Round(e.GroupDelay() * e.Config().TargetRate))
	case *SubRate:
		info.Algorithm = AlgorithmSubRate
		info.Latency = int(math.Round(e.Latency() * e.Config().OuterRate))
	}
	return info
}

// groupDelayFrames converts half a kernel on the interpolation grid into
// output frames.
func groupDelayFrames(kernelLen, down int) int {
	return int(math.Round(float64(kernelLen-1) / groupDelayHalf / float64(down)))
}
