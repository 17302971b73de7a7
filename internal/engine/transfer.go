package engine

import (
	"fmt"
)

// TransferEntry is one impulse response from an input channel to an output
// channel.
type TransferEntry struct {
	Source   int
	Target   int
	Response []float64
}

// Partitions returns the number of fragsize-long partitions of the response.
func (e *TransferEntry) Partitions(fragsize int) int {
	return (len(e.Response) + fragsize - 1) / fragsize
}

// IsEmptyPartition reports whether partition idx holds only zeros.
func (e *TransferEntry) IsEmptyPartition(fragsize, idx int) (bool, error) {
	if idx < 0 || idx >= e.Partitions(fragsize) {
		return false, fmt.Errorf("%w: partition %d of %d (response %d samples, fragsize %d)",
			ErrPartitionRange, idx, e.Partitions(fragsize), len(e.Response), fragsize)
	}
	for _, v := range e.partition(fragsize, idx) {
		if v != 0 {
			return false, nil
		}
	}
	return true, nil
}

// partition returns the samples of partition idx; the last one may be short.
func (e *TransferEntry) partition(fragsize, idx int) []float64 {
	start := idx * fragsize
	end := min(start+fragsize, len(e.Response))
	return e.Response[start:end]
}

// TransferMatrix is a sparse multi-input multi-output set of impulse
// responses. Several entries may share a source or a target.
type TransferMatrix []TransferEntry

// Validate checks that every entry routes between existing channels.
func (m TransferMatrix) Validate(inputs, outputs int) error {
	for i, e := range m {
		if e.Source < 0 || e.Source >= inputs {
			return fmt.Errorf("%w: entry %d source channel %d, %d inputs", ErrInvalidConfig, i, e.Source, inputs)
		}
		if e.Target < 0 || e.Target >= outputs {
			return fmt.Errorf("%w: entry %d target channel %d, %d outputs", ErrInvalidConfig, i, e.Target, outputs)
		}
	}
	return nil
}

// MaxPartitions returns the partition count of the longest response.
func (m TransferMatrix) MaxPartitions(fragsize int) int {
	longest := 0
	for i := range m {
		longest = max(longest, m[i].Partitions(fragsize))
	}
	return longest
}

// NonEmptyPartitions counts partitions that contain a non-zero sample.
func (m TransferMatrix) NonEmptyPartitions(fragsize int) int {
	count := 0
	for i := range m {
		for p := range m[i].Partitions(fragsize) {
			if empty, _ := m[i].IsEmptyPartition(fragsize, p); !empty {
				count++
			}
		}
	}
	return count
}

// DiagonalTransfer maps response i from input channel i to output channel i.
func DiagonalTransfer(responses ...[]float64) TransferMatrix {
	m := make(TransferMatrix, len(responses))
	for i, r := range responses {
		m[i] = TransferEntry{Source: i, Target: i, Response: r}
	}
	return m
}

// IdentityTransfer passes every channel through unchanged.
func IdentityTransfer(channels int) TransferMatrix {
	responses := make([][]float64, channels)
	for i := range responses {
		responses[i] = []float64{1}
	}
	return DiagonalTransfer(responses...)
}
