package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecomposePolyphase(t *testing.T) {
	kernel := []float64{0, 1, 2, 3, 4, 5, 6}

	bank, err := DecomposePolyphase(kernel, 3)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{
		{6, 3, 0},
		{4, 1},
		{5, 2},
	}, bank.Phases)
	assert.Equal(t, 3, bank.MaxTaps())
	assert.Equal(t, 2, bank.Taps(1))
	assert.Equal(t, 2, bank.HistoryFrames())
}

func TestDecomposePolyphase_Errors(t *testing.T) {
	_, err := DecomposePolyphase([]float64{1, 2}, 3)
	require.ErrorIs(t, err, ErrInvalidKernel)

	_, err = DecomposePolyphase([]float64{1, 2}, 0)
	require.ErrorIs(t, err, ErrInvalidKernel)
}

func TestDecomposePolyphase_UnitFactor(t *testing.T) {
	kernel := []float64{1, 2, 3}

	bank, err := DecomposePolyphase(kernel, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3, 2, 1}}, bank.Phases)
	assert.Equal(t, 2, bank.HistoryFrames())
}
