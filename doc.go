// Package blockdsp provides block-based audio filtering and sample rate
// conversion in pure Go.
//
// Audio is processed in fixed-size blocks the way an audio callback delivers
// it. The package offers two engines and the plumbing between them:
//
//   - [Convolver]: a uniformly partitioned frequency-domain convolution engine
//     with a sparse transfer matrix between any number of input and output
//     channels. Long impulse responses cost one transform per block plus one
//     complex product per non-empty partition.
//   - [PolyphaseResampler]: a rational up/down resampler with a windowed-sinc
//     kernel decomposed into polyphase branches.
//   - [BlockResampler]: adapts between source and target block sizes so a
//     writer and a reader running on their own fixed cadences never starve.
//   - [Chain] and [SubRate]: run processing stages in order, optionally at a
//     lower internal sample rate.
//
// # Quick Start
//
// One-shot convolution and resampling of mono signals:
//
//	wet, err := blockdsp.ConvolveSignal(dry, impulseResponse, 256)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := blockdsp.ResampleSignal(in, 44100, 48000, blockdsp.DefaultKernelDuration)
//
// Streaming conversion between block cadences:
//
//	r, err := blockdsp.NewBlockResampler(blockdsp.BlockConfig{
//	    SourceRate: 44100, SourceFragsize: 512,
//	    TargetRate: 17400, TargetFragsize: 64,
//	    NyquistRatio: 0.85, KernelDuration: 0.01,
//	    Channels: 2, AddDelay: true,
//	})
//	...
//	if err := r.Write(block); err != nil { ... }
//	for r.CanRead() {
//	    if err := r.Read(out); err != nil { ... }
//	}
//
// # Sample Rates
//
// Resampling ratios are derived exactly from integer sample rates: the rates
// are divided by their greatest common divisor, so 44100 Hz to 17400 Hz
// becomes up 58, down 147. Rates that are not exact integers are rejected
// with [ErrNotInteger].
//
// # Errors
//
// All errors wrap one of the exported sentinels and can be matched with
// [errors.Is]. A resampler that detects a history underflow returns an
// [UnderflowError] and refuses every later call.
//
// # Thread Safety
//
// Engines are not safe for concurrent use. Each instance is meant to be owned
// by one processing goroutine; independent instances share no state.
package blockdsp
