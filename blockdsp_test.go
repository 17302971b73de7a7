package blockdsp

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-blockdsp/internal/testutil"
)

func TestRationalFactors(t *testing.T) {
	up, down, err := RationalFactors(RateCD, 17400)
	require.NoError(t, err)
	assert.Equal(t, 58, up)
	assert.Equal(t, 147, down)

	up, down, err = RationalFactorsWithHelper(11025.5, 22051, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, up)
	assert.Equal(t, 1, down)

	_, _, err = RationalFactors(0, RateDAT)
	assert.ErrorIs(t, err, ErrNotInteger)
}

func TestSentinelsMatchWrappedErrors(t *testing.T) {
	r, err := NewPolyphaseResampler(2, 3, DefaultNyquistRatio, 64, 128, 1, 0)
	require.NoError(t, err)
	require.NoError(t, r.Write(NewBlock(40, 1)))

	err = r.Read(NewBlock(1, 1))
	require.ErrorIs(t, err, ErrUnderflow)
	var uerr *UnderflowError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &uerr))

	_, err = NewBlockResampler(BlockConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewSubRate(SubRateConfig{OuterRate: 48000, OuterFragsize: 480, InnerRate: 16000, InnerFragsize: 100, Channels: 1}, NewChain())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestGetInfo(t *testing.T) {
	conv, err := NewConvolver(64, 1, 1, DiagonalTransfer(testutil.Noise(100, 3)))
	require.NoError(t, err)
	defer func() { _ = conv.Close() }()

	poly, err := NewPolyphaseResampler(2, 3, DefaultNyquistRatio, 61, 128, 1, 30)
	require.NoError(t, err)

	block, err := NewBlockResampler(BlockConfig{
		SourceRate: RateCD, SourceFragsize: 512,
		TargetRate: 17400, TargetFragsize: 64,
		NyquistRatio: 0.85, KernelDuration: 0.01,
		Channels: 1,
	})
	require.NoError(t, err)

	sub, err := NewSubRate(SubRateConfig{
		OuterRate: RateDAT, OuterFragsize: 480,
		InnerRate: RateVoIP, InnerFragsize: 160,
		Channels: 1,
	}, NewChain())
	require.NoError(t, err)

	tests := []struct {
		name      string
		engine    any
		algorithm string
		up        int
		down      int
		kernel    int
		latency   int
	}{
		{"convolver", conv, AlgorithmConvolver, 1, 1, 0, 0},
		{"polyphase", poly, AlgorithmPolyphase, 2, 3, 61, 10},
		{"block", block, AlgorithmBlock, 58, 147, 25578, 87},
		{"sub-rate", sub, AlgorithmSubRate, 1, 1, 0, 239},
		{"unknown", "not an engine", AlgorithmUnknown, 1, 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := GetInfo(tt.engine)
			assert.Equal(t, tt.algorithm, info.Algorithm)
			assert.Equal(t, tt.up, info.UpFactor)
			assert.Equal(t, tt.down, info.DownFactor)
			assert.Equal(t, tt.kernel, info.KernelLength)
			assert.Equal(t, tt.latency, info.Latency)
		})
	}

	info := GetInfo(conv)
	assert.Equal(t, 2, info.Partitions)
	assert.Equal(t, 2, info.OutputPartitions)
}
