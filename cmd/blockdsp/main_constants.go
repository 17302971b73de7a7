package main

// Default command-line flag values
const (
	defaultSourceRate     = 48000.0 // DAT/DVD sample rate
	defaultTargetRate     = 16000.0 // Wideband speech rate
	defaultFragsize       = 480     // 10 ms at 48 kHz
	defaultNyquistRatio   = 0.85
	defaultKernelDuration = 0.005
)

// Test signal parameters
const (
	testSignalFrequency = 1000.0 // 1 kHz test tone
	testSignalAmplitude = 0.5
	demoBlocks          = 200 // Outer blocks pushed through the round trip
)

// Demo rate pairs
const (
	sampleRateCD     = 44100.0 // CD quality
	sampleRateDAT    = 48000.0 // DAT/DVD
	sampleRateSpeech = 17400.0 // Narrow inner rate used by voice chains
	sampleRateVoIP   = 16000.0 // Wideband VoIP
)
