package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryWordSize(t *testing.T) {
	require.Equal(t, uint64(0), memoryWordSize(0))
	require.Equal(t, uint64(1), memoryWordSize(1))
	require.Equal(t, uint64(1), memoryWordSize(32))
	require.Equal(t, uint64(2), memoryWordSize(33))
}

func TestGasMemExpansionMonotonic(t *testing.T) {
	mem := NewMemory()
	mem.Resize(0)

	cost1, err := gasMemExpansion(mem, 32)
	require.NoError(t, err)
	require.Greater(t, cost1, uint64(0))
	mem.Resize(32)

	// Expanding to the same size costs nothing further.
	cost2, err := gasMemExpansion(mem, 32)
	require.NoError(t, err)
	require.Equal(t, uint64(0), cost2)

	// A bigger region costs strictly more total, and the quadratic term
	// kicks in for larger sizes.
	cost3, err := gasMemExpansion(mem, 64)
	require.NoError(t, err)
	require.Greater(t, cost3, uint64(0))
}

func TestGasMemExpansionHugeSizeErrors(t *testing.T) {
	mem := NewMemory()
	_, err := gasMemExpansion(mem, 0x1FFFFFFFE1)
	require.ErrorIs(t, err, ErrOutOfGas)
}

func TestCallGasAllButOneSixtyFourth(t *testing.T) {
	rules := ForkRules{IsTangerine: true}
	available := uint64(64000)
	requested := wordFromUint64(64000)

	got, err := callGas(rules, available, 0, requested)
	require.NoError(t, err)
	require.Equal(t, available-available/CallGasFraction, got)
}

func TestCallGasRequestBelowCap(t *testing.T) {
	rules := ForkRules{IsTangerine: true}
	available := uint64(64000)
	requested := wordFromUint64(1000)

	got, err := callGas(rules, available, 0, requested)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), got)
}

func TestCallGasPreTangerineForwardsAllAvailable(t *testing.T) {
	rules := ForkRules{}
	available := uint64(64000)
	requested := wordFromUint64(1_000_000) // more than available

	got, err := callGas(rules, available, 0, requested)
	require.NoError(t, err)
	require.Equal(t, available, got)
}

func TestCallGasInsufficientBase(t *testing.T) {
	rules := ForkRules{}
	_, err := callGas(rules, 10, 100, wordFromUint64(0))
	require.ErrorIs(t, err, ErrOutOfGas)
}

func TestSafeAddOverflow(t *testing.T) {
	_, overflow := safeAdd(^uint64(0), 1)
	require.True(t, overflow)

	sum, overflow := safeAdd(2, 3)
	require.False(t, overflow)
	require.Equal(t, uint64(5), sum)
}

func TestSafeMulOverflow(t *testing.T) {
	_, overflow := safeMul(^uint64(0), 2)
	require.True(t, overflow)

	product, overflow := safeMul(3, 4)
	require.False(t, overflow)
	require.Equal(t, uint64(12), product)
}
