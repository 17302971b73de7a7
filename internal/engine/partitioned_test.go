package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/tphakala/go-blockdsp/internal/spectral"
	"github.com/tphakala/go-blockdsp/internal/testutil"
	"github.com/tphakala/go-blockdsp/internal/wave"
)

// directConvolve is the linear reference: y[n] = sum_k h[k] x[n-k], same length as x.
func directConvolve(x, h []float64) []float64 {
	y := make([]float64, len(x))
	for n := range y {
		for k, hk := range h {
			if n-k < 0 {
				break
			}
			y[n] += hk * x[n-k]
		}
	}
	return y
}

// runConvolver feeds per-channel signals block by block and concatenates the outputs.
func runConvolver(t *testing.T, c *Convolver, inputs [][]float64) [][]float64 {
	t.Helper()
	frames := len(inputs[0])
	require.Zero(t, frames%c.Fragsize())

	outputs := make([][]float64, c.OutputChannels())
	in := wave.New(c.Fragsize(), c.InputChannels())
	for start := 0; start < frames; start += c.Fragsize() {
		for ch := range inputs {
			copy(in.Channel(ch), inputs[ch][start:start+c.Fragsize()])
		}
		out, err := c.Process(in)
		require.NoError(t, err)
		for ch := range outputs {
			outputs[ch] = append(outputs[ch], out.Channel(ch)...)
		}
	}
	return outputs
}

func TestConvolver_Identity(t *testing.T) {
	c, err := NewConvolver(64, 2, 2, IdentityTransfer(2))
	require.NoError(t, err)
	defer c.Close()

	x0, x1 := testutil.Noise(640, 1), testutil.Noise(640, 2)
	out := runConvolver(t, c, [][]float64{x0, x1})

	assert.True(t, floats.EqualApprox(x0, out[0], 1e-12))
	assert.True(t, floats.EqualApprox(x1, out[1], 1e-12))
}

func TestConvolver_ImpulseReproducesResponse(t *testing.T) {
	const fragsize = 32
	tests := []struct {
		name   string
		length int
	}{
		{"shorter than a block", 20},
		{"exactly one block", fragsize},
		{"several partitions", 3*fragsize + 7},
		{"one sample", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testutil.Noise(tt.length, uint64(tt.length))
			c, err := NewConvolver(fragsize, 1, 1, DiagonalTransfer(h))
			require.NoError(t, err)
			defer c.Close()

			x := make([]float64, 6*fragsize)
			x[0] = 1
			out := runConvolver(t, c, [][]float64{x})

			want := make([]float64, len(x))
			copy(want, h)
			testutil.AssertNoNaNOrInf(t, out[0])
			assert.True(t, floats.EqualApprox(want, out[0], 1e-12))
		})
	}
}

func TestConvolver_MatchesDirectConvolution(t *testing.T) {
	const fragsize = 16
	h := testutil.Noise(100, 5)
	x := testutil.Noise(20*fragsize, 6)

	c, err := NewConvolver(fragsize, 1, 1, DiagonalTransfer(h))
	require.NoError(t, err)
	defer c.Close()

	out := runConvolver(t, c, [][]float64{x})
	assert.True(t, floats.EqualApprox(directConvolve(x, h), out[0], 1e-10))
}

func TestConvolver_SparseMIMO(t *testing.T) {
	const fragsize = 8
	h00 := testutil.Noise(30, 10)
	h10 := testutil.Noise(12, 11)
	h02 := testutil.Noise(5, 12)
	matrix := TransferMatrix{
		{Source: 0, Target: 0, Response: h00},
		{Source: 1, Target: 0, Response: h10},
		{Source: 0, Target: 2, Response: h02},
	}

	c, err := NewConvolver(fragsize, 2, 3, matrix)
	require.NoError(t, err)
	defer c.Close()

	x0, x1 := testutil.Noise(25*fragsize, 13), testutil.Noise(25*fragsize, 14)
	out := runConvolver(t, c, [][]float64{x0, x1})

	want0 := directConvolve(x0, h00)
	floats.Add(want0, directConvolve(x1, h10))
	assert.True(t, floats.EqualApprox(want0, out[0], 1e-10), "two sources summed into one target")
	assert.True(t, floats.EqualApprox(make([]float64, len(x0)), out[1], 1e-12), "unrouted output stays silent")
	assert.True(t, floats.EqualApprox(directConvolve(x0, h02), out[2], 1e-10), "one source feeding two targets")
}

func TestConvolver_Superposition(t *testing.T) {
	const fragsize = 32
	h := testutil.Noise(90, 20)
	a, b := testutil.Noise(10*fragsize, 21), testutil.Noise(10*fragsize, 22)
	sum := make([]float64, len(a))
	floats.AddTo(sum, a, b)

	convolve := func(x []float64) []float64 {
		c, err := NewConvolver(fragsize, 1, 1, DiagonalTransfer(h))
		require.NoError(t, err)
		defer c.Close()
		return runConvolver(t, c, [][]float64{x})[0]
	}

	want := convolve(a)
	floats.Add(want, convolve(b))
	assert.True(t, floats.EqualApprox(want, convolve(sum), 1e-10))
}

func TestConvolver_SkipsEmptyPartitions(t *testing.T) {
	const fragsize = 4
	h := make([]float64, 4*fragsize)
	h[1] = 0.5
	h[3*fragsize+2] = -0.25

	c, err := NewConvolver(fragsize, 1, 1, DiagonalTransfer(h))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 2, c.PartitionCount())
	assert.Equal(t, 4, c.OutputPartitions())

	x := testutil.Noise(12*fragsize, 30)
	out := runConvolver(t, c, [][]float64{x})
	assert.True(t, floats.EqualApprox(directConvolve(x, h), out[0], 1e-12))
}

func TestConvolver_EmptyMatrixIsSilent(t *testing.T) {
	c, err := NewConvolver(8, 1, 2, nil)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 1, c.OutputPartitions())
	out := runConvolver(t, c, [][]float64{testutil.Noise(32, 40)})
	assert.InDelta(t, 0, floats.Norm(out[0], 2)+floats.Norm(out[1], 2), 0)
}

func TestNewConvolver_Errors(t *testing.T) {
	tests := []struct {
		name     string
		fragsize int
		inputs   int
		outputs  int
		matrix   TransferMatrix
	}{
		{"zero fragsize", 0, 1, 1, IdentityTransfer(1)},
		{"zero inputs", 8, 0, 1, nil},
		{"zero outputs", 8, 1, 0, nil},
		{"source out of range", 8, 1, 1, TransferMatrix{{Source: 1, Target: 0, Response: []float64{1}}}},
		{"target out of range", 8, 1, 1, TransferMatrix{{Source: 0, Target: -1, Response: []float64{1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConvolver(tt.fragsize, tt.inputs, tt.outputs, tt.matrix)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConvolver_ShapeMismatchAndClose(t *testing.T) {
	c, err := NewConvolver(8, 2, 1, nil)
	require.NoError(t, err)

	_, err = c.Process(wave.New(7, 2))
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = c.Process(wave.New(8, 1))
	require.ErrorIs(t, err, ErrShapeMismatch)

	require.NoError(t, c.Close())
	_, err = c.Process(wave.New(8, 2))
	require.ErrorIs(t, err, spectral.ErrClosed)
	require.ErrorIs(t, c.Close(), spectral.ErrClosed)
}

func BenchmarkConvolver_Process(b *testing.B) {
	const fragsize = 256
	c, err := NewConvolver(fragsize, 2, 2, DiagonalTransfer(testutil.Noise(48000, 1), testutil.Noise(48000, 2)))
	require.NoError(b, err)
	defer c.Close()

	in := wave.New(fragsize, 2)
	copy(in.Data, testutil.Noise(2*fragsize, 3))

	b.ResetTimer()
	for b.Loop() {
		_, _ = c.Process(in)
	}
}
