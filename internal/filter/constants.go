package filter

const (
	// halfDivisor locates the centre of a symmetric kernel.
	halfDivisor = 2.0

	// sincZeroThreshold treats sinc arguments below it as the centre tap.
	sincZeroThreshold = 1e-12

	// defaultResponsePoints is used when no point count is given.
	defaultResponsePoints = 512
)
