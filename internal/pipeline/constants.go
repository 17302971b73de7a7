package pipeline

// Defaults for SubRate stages built by callers that do not tune the kernel.
const (
	// DefaultNyquistRatio keeps the passband clear of the transition band.
	DefaultNyquistRatio = 0.85

	// DefaultKernelDuration is the resampling kernel length in seconds.
	DefaultKernelDuration = 0.005
)
