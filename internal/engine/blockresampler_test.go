package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-blockdsp/internal/testutil"
	"github.com/tphakala/go-blockdsp/internal/wave"
)

func downConfig() BlockConfig {
	return BlockConfig{
		SourceRate:     44100,
		SourceFragsize: 512,
		TargetRate:     17400,
		TargetFragsize: 64,
		NyquistRatio:   0.85,
		KernelDuration: 0.01,
		Channels:       1,
	}
}

func upConfig() BlockConfig {
	return BlockConfig{
		SourceRate:     17400,
		SourceFragsize: 64,
		TargetRate:     44100,
		TargetFragsize: 512,
		NyquistRatio:   0.85,
		KernelDuration: 0.01,
		Channels:       1,
	}
}

func TestBlockConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*BlockConfig)
		wantErr bool
	}{
		{"valid", func(*BlockConfig) {}, false},
		{"zero source rate", func(c *BlockConfig) { c.SourceRate = 0 }, true},
		{"negative target rate", func(c *BlockConfig) { c.TargetRate = -1 }, true},
		{"zero source fragsize", func(c *BlockConfig) { c.SourceFragsize = 0 }, true},
		{"zero target fragsize", func(c *BlockConfig) { c.TargetFragsize = 0 }, true},
		{"nyquist ratio zero", func(c *BlockConfig) { c.NyquistRatio = 0 }, true},
		{"nyquist ratio above one", func(c *BlockConfig) { c.NyquistRatio = 1.01 }, true},
		{"zero kernel", func(c *BlockConfig) { c.KernelDuration = 0 }, true},
		{"zero channels", func(c *BlockConfig) { c.Channels = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := downConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewBlockResampler_Errors(t *testing.T) {
	cfg := downConfig()
	cfg.TargetRate = 17400.5
	_, err := NewBlockResampler(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)

	cfg = downConfig()
	cfg.KernelDuration = 1e-9
	_, err = NewBlockResampler(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewBlockResampler_Derivation(t *testing.T) {
	r, err := NewBlockResampler(downConfig())
	require.NoError(t, err)

	up, down := r.Factors()
	assert.Equal(t, 58, up)
	assert.Equal(t, 147, down)
	assert.Equal(t, 25578, r.KernelLength())
	assert.Equal(t, 509, r.Delay())
	assert.False(t, r.DelayApplied())
	assert.InDelta(t, 0.005, r.GroupDelay(), 1e-6)
}

func TestAlignmentDelay(t *testing.T) {
	tests := []struct {
		name       string
		sourceFrag int
		targetFrag int
		up         int
		down       int
		want       int
	}{
		{"same rate same block", 64, 64, 1, 1, 0},
		{"equal durations down by two", 128, 64, 1, 2, 0},
		{"equal durations 3/2", 64, 96, 3, 2, 0},
		{"44.1k/512 to 17.4k/64", 512, 64, 58, 147, 509},
		{"17.4k/64 to 44.1k/512", 64, 512, 147, 58, 64},
		{"same rate, larger reads", 64, 100, 1, 1, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AlignmentDelay(tt.sourceFrag, tt.targetFrag, tt.up, tt.down))
		})
	}
}

// TestBlockResampler_FixedCadenceNeverStarves runs writer and reader on their
// own clocks. On the interpolation grid a source block completes every
// SourceFragsize*up positions and a target block is due every
// TargetFragsize*down positions; writes win ties.
func TestBlockResampler_FixedCadenceNeverStarves(t *testing.T) {
	tests := []struct {
		name string
		cfg  BlockConfig
	}{
		{"down", downConfig()},
		{"up", upConfig()},
		{"same rate", BlockConfig{
			SourceRate: 16000, SourceFragsize: 64, TargetRate: 16000, TargetFragsize: 100,
			NyquistRatio: 0.9, KernelDuration: 0.002, Channels: 2,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.KernelDuration = 0.002
			cfg.AddDelay = true
			r, err := NewBlockResampler(cfg)
			require.NoError(t, err)
			assert.True(t, r.DelayApplied() || r.Delay() == 0)

			up, down := r.Factors()
			writePeriod := cfg.SourceFragsize * up
			readPeriod := cfg.TargetFragsize * down
			in := wave.New(cfg.SourceFragsize, cfg.Channels)
			out := wave.New(cfg.TargetFragsize, cfg.Channels)

			nextWrite, nextRead := writePeriod, readPeriod
			for reads := 0; reads < 400; {
				if nextWrite <= nextRead {
					require.NoError(t, r.Write(in))
					nextWrite += writePeriod
					continue
				}
				require.True(t, r.CanRead(), "read %d starved", reads)
				require.NoError(t, r.Read(out))
				nextRead += readPeriod
				reads++
			}
		})
	}
}

func TestBlockResampler_WithoutDelayStarves(t *testing.T) {
	cfg := downConfig()
	cfg.KernelDuration = 0.002
	r, err := NewBlockResampler(cfg)
	require.NoError(t, err)

	// The first target block is due long before the first source block completes.
	assert.False(t, r.CanRead())
}

func TestBlockResampler_ShapeChecks(t *testing.T) {
	cfg := downConfig()
	cfg.KernelDuration = 0.002
	r, err := NewBlockResampler(cfg)
	require.NoError(t, err)

	require.ErrorIs(t, r.Write(wave.New(511, 1)), ErrShapeMismatch)
	require.ErrorIs(t, r.Write(wave.New(512, 2)), ErrShapeMismatch)
	require.ErrorIs(t, r.Read(wave.New(63, 1)), ErrShapeMismatch)
}

// TestBlockResampler_RoundTrip converts 44.1 kHz to 17.4 kHz and back with
// 512 and 64 frame blocks and compares a 1 kHz tone with the input delayed by
// both kernels' group delay.
func TestBlockResampler_RoundTrip(t *testing.T) {
	const (
		rate      = 44100.0
		freq      = 1000.0
		amplitude = 0.5
		blocks    = 90
	)

	down, err := NewBlockResampler(downConfig())
	require.NoError(t, err)
	up, err := NewBlockResampler(upConfig())
	require.NoError(t, err)

	input := make([]float64, blocks*512)
	for n := range input {
		input[n] = amplitude * math.Sin(2*math.Pi*freq*float64(n)/rate)
	}

	inner := wave.New(64, 1)
	outer := wave.New(512, 1)
	var output []float64
	for start := 0; start < len(input); start += 512 {
		block, err := wave.FromChannels(input[start : start+512])
		require.NoError(t, err)
		require.NoError(t, down.Write(block))

		for down.CanRead() {
			require.NoError(t, down.Read(inner))
			require.NoError(t, up.Write(inner))
			for up.CanRead() {
				require.NoError(t, up.Read(outer))
				output = append(output, outer.Channel(0)...)
			}
		}
	}

	delay := down.GroupDelay() + up.GroupDelay()
	settle := int(2*delay*rate) + 100
	require.Greater(t, len(output), settle+10000)
	steady := output[settle:]
	testutil.AssertNoNaNOrInf(t, steady)

	maxErr := 0.0
	for i, v := range steady {
		n := float64(settle + i)
		want := amplitude * math.Sin(2*math.Pi*freq*(n/rate-delay))
		maxErr = max(maxErr, math.Abs(v-want))
	}
	assert.Less(t, maxErr, 1e-3, "sample-wise deviation from the delayed input")

	peak := 0.0
	for _, v := range steady {
		peak = max(peak, math.Abs(v))
	}
	assert.InDelta(t, amplitude, peak, 1e-3)

	// Rising zero crossings land on the delayed input's crossings.
	crossings := 0
	for i := 1; i < len(steady); i++ {
		if steady[i-1] < 0 && steady[i] >= 0 {
			frac := steady[i-1] / (steady[i-1] - steady[i])
			at := (float64(settle+i-1) + frac) / rate
			cycles := (at - delay) * freq
			assert.InDelta(t, math.Round(cycles), cycles, 1e-3, "crossing at %.6fs", at)
			crossings++
		}
	}
	assert.Greater(t, crossings, 100)
}

// TestBlockResampler_RejectsAliases feeds a tone above the target Nyquist
// frequency; its alias at 17400-12000 Hz must stay in the stopband.
func TestBlockResampler_RejectsAliases(t *testing.T) {
	r, err := NewBlockResampler(downConfig())
	require.NoError(t, err)

	input := testutil.Sine(60*512, 12000, 44100, 0.5)
	out := wave.New(64, 1)
	var output []float64
	for start := 0; start < len(input); start += 512 {
		block, err := wave.FromChannels(input[start : start+512])
		require.NoError(t, err)
		require.NoError(t, r.Write(block))
		for r.CanRead() {
			require.NoError(t, r.Read(out))
			output = append(output, out.Channel(0)...)
		}
	}

	settle := int(2*r.GroupDelay()*17400) + 64
	require.Greater(t, len(output), settle+1000)
	assert.Less(t, testutil.Peak(output[settle:]), 5e-3)
}
