// Command analyze-kernel prints the resampling kernel designed for a pair of
// sample rates: its length, the DC gain of every polyphase branch and the
// magnitude response at a few frequencies.
package main

import (
	"flag"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tphakala/go-blockdsp/internal/filter"
	"github.com/tphakala/go-blockdsp/internal/mathutil"
)

const (
	defaultSourceRate     = 44100.0
	defaultTargetRate     = 17400.0
	defaultNyquistRatio   = 0.85
	defaultKernelDuration = 0.005

	maxPhasesToShow = 8 // Branches printed individually
)

func main() {
	if err := run(); err != nil {
		logrus.Fatal(err)
	}
}

func run() error {
	source := flag.Float64("source", defaultSourceRate, "Source sample rate in Hz")
	target := flag.Float64("target", defaultTargetRate, "Target sample rate in Hz")
	ratio := flag.Float64("nyquist", defaultNyquistRatio, "Cutoff as a fraction of the lower Nyquist frequency")
	duration := flag.Float64("kernel", defaultKernelDuration, "Kernel duration in seconds of source audio")
	flag.Parse()

	up, down, err := mathutil.RationalFactors(*source, *target)
	if err != nil {
		return err
	}
	length := int(math.Round(*duration * *source * float64(up)))

	kernel, err := filter.DesignResamplingKernel(filter.KernelParams{
		Up:           up,
		Down:         down,
		NyquistRatio: *ratio,
		Length:       length,
	})
	if err != nil {
		return err
	}
	bank, err := filter.DecomposePolyphase(kernel, up)
	if err != nil {
		return err
	}

	gridRate := *source * float64(up)
	fmt.Println("=== Resampling Kernel ===")
	fmt.Printf("  %g Hz -> %g Hz: up %d, down %d\n", *source, *target, up, down)
	fmt.Printf("  Length: %d taps (%d per branch max), history %d frames\n",
		len(kernel), bank.MaxTaps(), bank.HistoryFrames())
	fmt.Printf("  Group delay: %.6f s\n", float64(len(kernel)-1)/2/gridRate)
	fmt.Printf("  Total DC gain: %.10f (expected %d)\n", floats.Sum(kernel), up)

	gains := make([]float64, up)
	for c, phase := range bank.Phases {
		gains[c] = floats.Sum(phase)
	}
	fmt.Println("\nDC gain per branch:")
	for c := range min(up, maxPhasesToShow) {
		fmt.Printf("  Branch %3d: %.10f\n", c, gains[c])
	}
	if up > maxPhasesToShow {
		fmt.Printf("  ... (%d more branches)\n", up-maxPhasesToShow)
	}
	mean, std := stat.MeanStdDev(gains, nil)
	fmt.Printf("  Mean %.10f, std %.3e, range [%.10f, %.10f]\n",
		mean, std, floats.Min(gains), floats.Max(gains))

	cutoff := *ratio * min(*source, *target) / 2
	fmt.Printf("\nMagnitude response (cutoff %.1f Hz):\n", cutoff)
	for _, f := range []float64{0, cutoff / 4, cutoff / 2, cutoff * 0.9, cutoff, cutoff * 1.1, min(*source, *target) / 2, cutoff * 2} {
		mag, _ := filter.ResponseAt(kernel, f/gridRate)
		fmt.Printf("  %9.1f Hz: %8.2f dB\n", f, filter.MagnitudeDB(mag/float64(up)))
	}
	return nil
}
