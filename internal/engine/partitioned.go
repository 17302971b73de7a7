package engine

import (
	"fmt"

	"github.com/tphakala/simd/c128"

	"github.com/tphakala/go-blockdsp/internal/spectral"
	"github.com/tphakala/go-blockdsp/internal/wave"
)

// partitionEntry routes one non-empty impulse response partition.
// Its index in Convolver.partitions equals the index of its spectrum.
type partitionEntry struct {
	source int
	target int
	delay  int // in blocks
}

// Convolver applies a sparse MIMO transfer matrix of long impulse responses
// with uniformly partitioned overlap-save convolution.
//
// Each call consumes one fragsize-frame block and produces one. The
// transform length is 2*fragsize; partition p of a response contributes to
// the output p blocks later through a rotating ring of accumulator spectra.
// Output latency is zero beyond the block itself.
type Convolver struct {
	fragsize int
	inputs   int
	outputs  int

	transform *spectral.Transform

	partitions []partitionEntry
	responses  [][]complex128 // one per partition, scaled to undo forward normalisation

	// history holds the two most recent input blocks; parity selects the
	// slot that receives the next block.
	history [2]*wave.Block
	parity  int

	inputSpectra [][]complex128   // per input channel, this call
	accumulators [][][]complex128 // [slot][output channel][bin]
	current      int

	product []complex128
	seq     []float64
	output  *wave.Block
}

// NewConvolver builds the convolver and transforms every non-empty partition
// of every response once.
func NewConvolver(fragsize, inputs, outputs int, matrix TransferMatrix) (*Convolver, error) {
	if fragsize < 1 {
		return nil, fmt.Errorf("%w: fragsize must be at least 1, got %d", ErrInvalidConfig, fragsize)
	}
	if inputs < 1 || outputs < 1 {
		return nil, fmt.Errorf("%w: channel counts must be positive (inputs %d, outputs %d)",
			ErrInvalidConfig, inputs, outputs)
	}
	if err := matrix.Validate(inputs, outputs); err != nil {
		return nil, err
	}

	transform, err := spectral.New(fftSizeMultiplier * fragsize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	c := &Convolver{
		fragsize:  fragsize,
		inputs:    inputs,
		outputs:   outputs,
		transform: transform,
		product:   make([]complex128, transform.Bins()),
		seq:       make([]float64, transform.Len()),
		output:    wave.New(fragsize, outputs),
	}
	if err := c.preparePartitions(matrix); err != nil {
		_ = transform.Close()
		return nil, err
	}

	c.history[0] = wave.New(fragsize, inputs)
	c.history[1] = wave.New(fragsize, inputs)
	c.inputSpectra = make([][]complex128, inputs)
	for ch := range c.inputSpectra {
		c.inputSpectra[ch] = make([]complex128, transform.Bins())
	}

	slots := max(1, matrix.MaxPartitions(fragsize))
	c.accumulators = make([][][]complex128, slots)
	for s := range c.accumulators {
		c.accumulators[s] = make([][]complex128, outputs)
		for ch := range c.accumulators[s] {
			c.accumulators[s][ch] = make([]complex128, transform.Bins())
		}
	}

	return c, nil
}

// preparePartitions records and transforms every non-empty partition.
func (c *Convolver) preparePartitions(matrix TransferMatrix) error {
	staging := make([]float64, c.transform.Len())
	for i := range matrix {
		entry := &matrix[i]
		for p := range entry.Partitions(c.fragsize) {
			empty, err := entry.IsEmptyPartition(c.fragsize, p)
			if err != nil {
				return err
			}
			if empty {
				continue
			}

			// The partition occupies the first half; the second half stays
			// zero so the circular product equals the linear one on the
			// samples kept from each call.
			clear(staging)
			copy(staging, entry.partition(c.fragsize, p))

			spectrum := make([]complex128, c.transform.Bins())
			if err := c.transform.Forward(spectrum, staging); err != nil {
				return err
			}
			scale := complex(c.transform.Scale(), 0)
			for k := range spectrum {
				spectrum[k] *= scale
			}

			c.partitions = append(c.partitions, partitionEntry{source: entry.Source, target: entry.Target, delay: p})
			c.responses = append(c.responses, spectrum)
		}
	}
	return nil
}

// Process filters one input block and returns the matching output block.
// The returned block is owned by the convolver and overwritten by the next
// call.
func (c *Convolver) Process(in *wave.Block) (*wave.Block, error) {
	if c.transform == nil {
		return nil, spectral.ErrClosed
	}
	if err := in.CheckShape(c.fragsize, c.inputs); err != nil {
		return nil, err
	}

	newer := c.history[c.parity]
	older := c.history[1-c.parity]
	if err := newer.CopyFrom(in); err != nil {
		return nil, err
	}

	for ch := 0; ch < c.inputs; ch++ {
		if err := c.transform.ForwardHalves(c.inputSpectra[ch], older.Channel(ch), newer.Channel(ch)); err != nil {
			return nil, err
		}
	}

	slots := len(c.accumulators)
	for i, part := range c.partitions {
		acc := c.accumulators[(c.current+part.delay)%slots][part.target]
		c128.Mul(c.product, c.inputSpectra[part.source], c.responses[i])
		for k, v := range c.product {
			acc[k] += v
		}
	}

	due := c.accumulators[c.current]
	for ch := 0; ch < c.outputs; ch++ {
		if err := c.transform.Inverse(c.seq, due[ch]); err != nil {
			return nil, err
		}
		copy(c.output.Channel(ch), c.seq[c.fragsize:])
		clear(due[ch])
	}

	c.current = (c.current + 1) % slots
	c.parity = 1 - c.parity
	return c.output, nil
}

// Close releases the spectral transform. Process fails afterwards.
func (c *Convolver) Close() error {
	if c.transform == nil {
		return spectral.ErrClosed
	}
	err := c.transform.Close()
	c.transform = nil
	return err
}

// Fragsize returns the block size in frames.
func (c *Convolver) Fragsize() int { return c.fragsize }

// InputChannels returns the number of input channels.
func (c *Convolver) InputChannels() int { return c.inputs }

// OutputChannels returns the number of output channels.
func (c *Convolver) OutputChannels() int { return c.outputs }

// PartitionCount returns the number of non-empty partitions being applied.
func (c *Convolver) PartitionCount() int { return len(c.partitions) }

// OutputPartitions returns the number of accumulator slots.
func (c *Convolver) OutputPartitions() int { return len(c.accumulators) }
