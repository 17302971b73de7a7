package blockdsp

import "github.com/tphakala/go-blockdsp/internal/pipeline"

// Common sample rates.
const (
	// RateCD is the CD quality sample rate (Red Book standard).
	RateCD = 44100

	// RateDAT is the DAT/DVD sample rate.
	RateDAT = 48000

	// RateVoIP is the VoIP wideband sample rate.
	RateVoIP = 16000

	// RateTelephony is the telephony (PSTN narrowband) sample rate.
	RateTelephony = 8000
)

// Kernel defaults used by the convenience helpers.
const (
	// DefaultNyquistRatio places the kernel cutoff at this fraction of the
	// lower Nyquist frequency.
	DefaultNyquistRatio = pipeline.DefaultNyquistRatio

	// DefaultKernelDuration is the kernel length in seconds of source audio.
	DefaultKernelDuration = pipeline.DefaultKernelDuration
)

const (
	stereoChannels = 2 // Stereo channel count (used by interleave functions)
	groupDelayHalf = 2 // Linear-phase kernels delay by half their length
	unitFactor     = 1 // Up and down factor of engines that keep the rate
)
