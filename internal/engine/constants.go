package engine

// Partitioned convolution constants
const (
	// fftSizeMultiplier gives the transform length per block: the previous
	// and the current block side by side.
	fftSizeMultiplier = 2
)
