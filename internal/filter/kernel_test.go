package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/tphakala/go-blockdsp/internal/testutil"
)

func TestKernelParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  KernelParams
		wantErr bool
	}{
		{"valid", KernelParams{Up: 2, Down: 3, NyquistRatio: 0.9, Length: 64}, false},
		{"ratio one", KernelParams{Up: 1, Down: 1, NyquistRatio: 1, Length: 1}, false},
		{"zero up", KernelParams{Up: 0, Down: 3, NyquistRatio: 0.9, Length: 64}, true},
		{"zero down", KernelParams{Up: 2, Down: 0, NyquistRatio: 0.9, Length: 64}, true},
		{"ratio zero", KernelParams{Up: 2, Down: 3, NyquistRatio: 0, Length: 64}, true},
		{"ratio above one", KernelParams{Up: 2, Down: 3, NyquistRatio: 1.1, Length: 64}, true},
		{"shorter than up", KernelParams{Up: 8, Down: 3, NyquistRatio: 0.9, Length: 7}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKernel)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDesignResamplingKernel_Shape(t *testing.T) {
	for _, length := range []int{101, 256} {
		kernel, err := DesignResamplingKernel(KernelParams{Up: 4, Down: 3, NyquistRatio: 0.85, Length: length})
		require.NoError(t, err)
		require.Len(t, kernel, length)

		testutil.AssertNoNaNOrInf(t, kernel)
		testutil.AssertSymmetric(t, kernel, 1e-12)
		testutil.AssertDCGain(t, kernel, 4.0, 1e-9)
		assert.InDelta(t, 0, kernel[0], 1e-15, "Hann window ends at zero")
		peak := floats.MaxIdx(kernel)
		assert.Contains(t, []int{(length - 1) / 2, length / 2}, peak, "peak sits at the centre")
	}
}

func TestDesignResamplingKernel_OddLengthPeaksAtCentre(t *testing.T) {
	kernel, err := DesignResamplingKernel(KernelParams{Up: 4, Down: 3, NyquistRatio: 0.85, Length: 241})
	require.NoError(t, err)

	testutil.AssertLengthEquals(t, kernel, 241)
	testutil.AssertOddLength(t, kernel)
	testutil.AssertCenterIsMax(t, kernel)
	// Peak is up*q = NyquistRatio*Up/max(Up, Down).
	assert.InDelta(t, 0.85, kernel[120], 1e-2)
	testutil.AssertAllInRange(t, kernel, -0.5, 1)
}

func TestDesignResamplingKernel_PhaseGainsNearUnity(t *testing.T) {
	const up = 4
	kernel, err := DesignResamplingKernel(KernelParams{Up: up, Down: 3, NyquistRatio: 0.9, Length: 2000})
	require.NoError(t, err)

	bank, err := DecomposePolyphase(kernel, up)
	require.NoError(t, err)
	for c, phase := range bank.Phases {
		assert.InDelta(t, 1.0, floats.Sum(phase), 1e-3, "phase %d", c)
	}
}

func TestDesignResamplingKernel_Cutoff(t *testing.T) {
	const (
		up   = 2
		down = 3
	)
	kernel, err := DesignResamplingKernel(KernelParams{Up: up, Down: down, NyquistRatio: 0.8, Length: 1201})
	require.NoError(t, err)

	// Interpolation-rate frequencies: the lower Nyquist is 1/(2*max(up,down)).
	lowerNyquist := 0.5 / down
	passMag, _ := ResponseAt(kernel, 0.3*lowerNyquist)
	stopMag, _ := ResponseAt(kernel, 1.3*lowerNyquist)

	testutil.AssertRelativeError(t, up, passMag, 1e-3)
	testutil.AssertInRange(t, passMag, up*0.999, up*1.001)
	assert.Less(t, MagnitudeDB(stopMag/up), -40.0)
}

func TestComputeFrequencyResponse(t *testing.T) {
	resp := ComputeFrequencyResponse([]float64{0.5, 0.5}, 0)
	require.Len(t, resp.Frequencies, defaultResponsePoints)
	assert.InDelta(t, 1.0, resp.Magnitude[0], 1e-12)
	testutil.AssertMonotonic(t, resp.Frequencies)
}

func TestMagnitudeDB(t *testing.T) {
	assert.InDelta(t, 0.0, MagnitudeDB(1), 1e-12)
	assert.InDelta(t, -20.0, MagnitudeDB(0.1), 1e-12)
	assert.InDelta(t, -200.0, MagnitudeDB(0), 1e-12)
}
