package main

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/tphakala/go-blockdsp/internal/engine"
	"github.com/tphakala/go-blockdsp/internal/filter"
	"github.com/tphakala/go-blockdsp/internal/pipeline"
	"github.com/tphakala/go-blockdsp/internal/wave"
)

const progressBlocks = 1000 // Debug progress every N source blocks

// options are the validated command line settings.
type options struct {
	inputPath  string
	outputPath string
	irPath     string

	targetRate     int // 0 keeps the input rate
	fragsize       int
	kernelDuration float64
	nyquistRatio   float64
	bitDepth       int // 0 keeps the input depth
}

func (o *options) validate() error {
	if o.targetRate < 0 {
		return fmt.Errorf("%w: target rate %d", engine.ErrInvalidConfig, o.targetRate)
	}
	if o.fragsize < 1 {
		return fmt.Errorf("%w: fragsize %d", engine.ErrInvalidConfig, o.fragsize)
	}
	switch o.bitDepth {
	case 0, 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: unsupported bit depth %d", engine.ErrInvalidConfig, o.bitDepth)
	}
	return nil
}

type processStats struct {
	inputRate    int
	outputRate   int
	channels     int
	bitDepth     int
	inputFrames  int64
	outputFrames int64
	latency      int
	peak         float64
}

func (s *processStats) peakDB() float64 {
	return filter.MagnitudeDB(s.peak)
}

// blockProcessor runs the source-rate chain and the optional rate converter.
type blockProcessor struct {
	chain     *pipeline.Chain
	resampler *engine.BlockResampler // nil when the rate is unchanged
	out       *wave.Block

	// latency is the delay in target frames added by the converter.
	latency int
}

func newBlockProcessor(opts options, sourceRate, targetRate, channels int, matrix engine.TransferMatrix) (*blockProcessor, error) {
	p := &blockProcessor{chain: pipeline.NewChain()}

	if len(matrix) > 0 {
		conv, err := engine.NewConvolver(opts.fragsize, channels, channels, matrix)
		if err != nil {
			return nil, err
		}
		p.chain.Add("convolve", conv)
	}

	if targetRate == sourceRate {
		return p, nil
	}

	targetFrag := max(1, int(math.Round(float64(opts.fragsize)*float64(targetRate)/float64(sourceRate))))
	r, err := engine.NewBlockResampler(engine.BlockConfig{
		SourceRate:     float64(sourceRate),
		SourceFragsize: opts.fragsize,
		TargetRate:     float64(targetRate),
		TargetFragsize: targetFrag,
		NyquistRatio:   opts.nyquistRatio,
		KernelDuration: opts.kernelDuration,
		Channels:       channels,
		AddDelay:       true,
	})
	if err != nil {
		_ = p.chain.Close()
		return nil, err
	}
	p.resampler = r
	p.out = wave.New(targetFrag, channels)

	delay := r.GroupDelay() + float64(r.Delay())/float64(sourceRate)
	p.latency = int(math.Round(delay * float64(targetRate)))
	return p, nil
}

// process runs one source block and hands every finished target block to emit.
func (p *blockProcessor) process(in *wave.Block, emit func(*wave.Block) error) error {
	block, err := p.chain.Process(in)
	if err != nil {
		return err
	}
	if p.resampler == nil {
		return emit(block)
	}

	if err := p.resampler.Write(block); err != nil {
		return err
	}
	for p.resampler.CanRead() {
		if err := p.resampler.Read(p.out); err != nil {
			return err
		}
		if err := emit(p.out); err != nil {
			return err
		}
	}
	return nil
}

func (p *blockProcessor) Close() error {
	return p.chain.Close()
}

// frameSink drops the leading latency frames and stops after limit frames.
type frameSink struct {
	skip    int
	limit   int64 // negative while the total is unknown
	written int64
	peak    float64
	write   func(*wave.Block) error
}

func (s *frameSink) emit(block *wave.Block) error {
	start := min(s.skip, block.Frames)
	s.skip -= start
	frames := block.Frames - start
	if s.limit >= 0 {
		frames = int(min(int64(frames), s.limit-s.written))
	}
	if frames <= 0 {
		return nil
	}

	part := block
	if start > 0 || frames < block.Frames {
		part = wave.New(frames, block.Channels)
		for ch := range block.Channels {
			copy(part.Channel(ch), block.Channel(ch)[start:start+frames])
		}
	}
	s.peak = max(s.peak, part.Peak())
	s.written += int64(frames)
	return s.write(part)
}

// expectedFrames is the output length for inputFrames source frames followed
// by an impulse response tail of irFrames-1 frames.
func expectedFrames(inputFrames int64, irFrames, sourceRate, targetRate int) int64 {
	tail := inputFrames + int64(irFrames) - 1
	return (tail*int64(targetRate) + int64(sourceRate) - 1) / int64(sourceRate)
}

func (s *frameSink) done() bool {
	return s.limit >= 0 && s.written >= s.limit
}

// processWAV streams the input through the processor. The output keeps the
// input's start aligned and holds the input plus the impulse response tail.
func processWAV(opts options, log *logrus.Entry) (stats *processStats, err error) {
	input, err := openWAVInput(opts.inputPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	targetRate := opts.targetRate
	if targetRate == 0 {
		targetRate = input.rate
	}
	bitDepth := opts.bitDepth
	if bitDepth == 0 {
		bitDepth = input.bitDepth
	}
	log = log.WithFields(logrus.Fields{
		"source_rate": input.rate,
		"target_rate": targetRate,
		"channels":    input.channels,
		"bit_depth":   bitDepth,
	})

	var matrix engine.TransferMatrix
	irFrames := 1
	if opts.irPath != "" {
		matrix, irFrames, err = loadImpulseResponse(opts.irPath, input.channels, input.rate)
		if err != nil {
			return nil, err
		}
		log.WithField("ir_frames", irFrames).Debug("loaded impulse response")
	}

	proc, err := newBlockProcessor(opts, input.rate, targetRate, input.channels, matrix)
	if err != nil {
		return nil, err
	}
	defer func() { _ = proc.Close() }()
	if proc.resampler != nil {
		up, down := proc.resampler.Factors()
		log.WithFields(logrus.Fields{
			"up":            up,
			"down":          down,
			"kernel":        proc.resampler.KernelLength(),
			"latency":       proc.latency,
			"alignment_pad": proc.resampler.Delay(),
		}).Debug("created block resampler")
	}

	output, err := createWAVOutput(opts.outputPath, targetRate, bitDepth, input.channels)
	if err != nil {
		return nil, err
	}
	// Close output, capturing close errors on success path (the header is written on close)
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	stats = &processStats{
		inputRate:  input.rate,
		outputRate: targetRate,
		channels:   input.channels,
		bitDepth:   bitDepth,
		latency:    proc.latency,
	}
	sink := &frameSink{skip: proc.latency, limit: -1, write: output.writeBlock}

	block := wave.New(opts.fragsize, input.channels)
	for blocks := 1; ; blocks++ {
		n, err := input.readBlock(block)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		stats.inputFrames += int64(n)
		if n < opts.fragsize {
			sink.limit = expectedFrames(stats.inputFrames, irFrames, input.rate, targetRate)
		}
		if err := proc.process(block, sink.emit); err != nil {
			return nil, err
		}
		if blocks%progressBlocks == 0 {
			log.WithField("frames", stats.inputFrames).Debug("progress")
		}
	}

	// Feed silence until the tail and the delayed frames are out.
	sink.limit = expectedFrames(stats.inputFrames, irFrames, input.rate, targetRate)
	maxFlush := (int64(irFrames)+int64(proc.latency)*int64(input.rate)/int64(targetRate))/int64(opts.fragsize) + 4
	block.Zero()
	for i := int64(0); !sink.done() && i < maxFlush; i++ {
		if err := proc.process(block, sink.emit); err != nil {
			return nil, err
		}
	}

	stats.outputFrames = sink.written
	stats.peak = sink.peak
	log.WithFields(logrus.Fields{
		"input_frames":  stats.inputFrames,
		"output_frames": stats.outputFrames,
	}).Debug("done")
	return stats, nil
}
