// Command blockdsp prints the converter parameters derived for a pair of
// sample rates and block sizes, and can run a round-trip demonstration.
package main

import (
	"flag"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	blockdsp "github.com/tphakala/go-blockdsp"
)

func main() {
	if err := run(); err != nil {
		logrus.Fatal(err)
	}
}

func run() error {
	var (
		source   = flag.Float64("source", defaultSourceRate, "Source (outer) sample rate in Hz")
		target   = flag.Float64("target", defaultTargetRate, "Target (inner) sample rate in Hz")
		fragsize = flag.Int("fragsize", defaultFragsize, "Source block size in frames")
		kernel   = flag.Float64("kernel", defaultKernelDuration, "Kernel duration in seconds")
		nyquist  = flag.Float64("nyquist", defaultNyquistRatio, "Cutoff as a fraction of the lower Nyquist frequency")
		demo     = flag.Bool("demo", false, "Run a round-trip demonstration")
	)
	flag.Parse()

	if *demo {
		return runDemo(*kernel, *nyquist)
	}

	innerFrag := int(math.Round(float64(*fragsize) * *target / *source))
	r, err := blockdsp.NewBlockResampler(blockdsp.BlockConfig{
		SourceRate:     *source,
		SourceFragsize: *fragsize,
		TargetRate:     *target,
		TargetFragsize: max(1, innerFrag),
		NyquistRatio:   *nyquist,
		KernelDuration: *kernel,
		Channels:       1,
		AddDelay:       true,
	})
	if err != nil {
		return err
	}

	info := blockdsp.GetInfo(r)
	cfg := r.Config()
	fmt.Printf("Block resampler created:\n")
	fmt.Printf("  Algorithm: %s\n", info.Algorithm)
	fmt.Printf("  %g Hz / %d frames -> %g Hz / %d frames\n",
		cfg.SourceRate, cfg.SourceFragsize, cfg.TargetRate, cfg.TargetFragsize)
	fmt.Printf("  Factors: up %d, down %d\n", info.UpFactor, info.DownFactor)
	fmt.Printf("  Kernel length: %d taps, history %d frames\n", info.KernelLength, r.Resampler().HistoryFrames())
	fmt.Printf("  Alignment delay: %d frames (applied: %v)\n", r.Delay(), r.DelayApplied())
	fmt.Printf("  Buffer capacity: %d frames\n", r.Resampler().Capacity())
	fmt.Printf("  Group delay: %.3f ms (%d target frames)\n", r.GroupDelay()*1000, info.Latency)
	fmt.Printf("  SIMD: %s\n", info.SIMDType)
	return nil
}

// runDemo sends a tone through a sub-rate stage for a few rate pairs and
// reports the deviation from the delayed input.
func runDemo(kernel, nyquist float64) error {
	fmt.Println("=== Block DSP Round-Trip Demo ===")

	pairs := []struct {
		outer, inner         float64
		outerFrag, innerFrag int
		name                 string
	}{
		{sampleRateDAT, sampleRateVoIP, 480, 160, "DAT <-> VoIP"},
		{sampleRateCD, sampleRateSpeech, 882, 348, "CD <-> 17.4k"},
		{sampleRateCD, sampleRateDAT, 441, 480, "CD <-> DAT"},
	}

	for _, p := range pairs {
		conv, err := blockdsp.NewConvolver(p.innerFrag, 1, 1, blockdsp.DiagonalTransfer([]float64{1}))
		if err != nil {
			return err
		}
		sub, err := blockdsp.NewSubRate(blockdsp.SubRateConfig{
			OuterRate:      p.outer,
			OuterFragsize:  p.outerFrag,
			InnerRate:      p.inner,
			InnerFragsize:  p.innerFrag,
			NyquistRatio:   nyquist,
			KernelDuration: kernel,
			Channels:       1,
		}, blockdsp.NewChain().Add("identity", conv))
		if err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}

		maxErr, err := roundTripError(sub, p.outer, p.outerFrag)
		_ = sub.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}

		info := blockdsp.GetInfo(sub)
		fmt.Printf("\n%s (%.0f Hz / %d <-> %.0f Hz / %d):\n", p.name, p.outer, p.outerFrag, p.inner, p.innerFrag)
		fmt.Printf("  Latency: %.3f ms (%d frames)\n", sub.Latency()*1000, info.Latency)
		fmt.Printf("  Max error vs delayed input: %.2e (%.1f dB)\n", maxErr, 20*math.Log10(maxErr/testSignalAmplitude))
	}
	return nil
}

func roundTripError(sub *blockdsp.SubRate, rate float64, fragsize int) (float64, error) {
	tone := generateTestSignal(demoBlocks*fragsize, rate)
	delay := sub.Latency()
	settle := int(2*delay*rate) + fragsize

	block := blockdsp.NewBlock(fragsize, 1)
	maxErr := 0.0
	for b := range demoBlocks {
		copy(block.Data, tone[b*fragsize:(b+1)*fragsize])
		out, err := sub.Process(block)
		if err != nil {
			return 0, err
		}
		for i, v := range out.Channel(0) {
			n := b*fragsize + i
			if n < settle {
				continue
			}
			want := testSignalAmplitude * math.Sin(2*math.Pi*testSignalFrequency*(float64(n)/rate-delay))
			maxErr = max(maxErr, math.Abs(v-want))
		}
	}
	return maxErr, nil
}

func generateTestSignal(samples int, sampleRate float64) []float64 {
	signal := make([]float64, samples)
	omega := 2 * math.Pi * testSignalFrequency / sampleRate
	for i := range signal {
		signal[i] = testSignalAmplitude * math.Sin(omega*float64(i))
	}
	return signal
}
