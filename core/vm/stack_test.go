package vm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestStackPushPop(t *testing.T) {
	st := NewStack()
	require.Equal(t, 0, st.Len())

	st.Push(uint256.NewInt(1))
	st.Push(uint256.NewInt(2))
	require.Equal(t, 2, st.Len())

	require.Equal(t, uint64(2), st.Pop().Uint64())
	require.Equal(t, uint64(1), st.Pop().Uint64())
	require.Equal(t, 0, st.Len())
}

func TestStackPeekAndBack(t *testing.T) {
	st := NewStack()
	st.Push(uint256.NewInt(10))
	st.Push(uint256.NewInt(20))
	st.Push(uint256.NewInt(30))

	require.Equal(t, uint64(30), st.Peek().Uint64())
	require.Equal(t, uint64(30), st.Back(0).Uint64())
	require.Equal(t, uint64(20), st.Back(1).Uint64())
	require.Equal(t, uint64(10), st.Back(2).Uint64())
}

func TestStackSwap(t *testing.T) {
	st := NewStack()
	st.Push(uint256.NewInt(1))
	st.Push(uint256.NewInt(2))
	st.Push(uint256.NewInt(3))

	st.Swap(2) // SWAP2: swap top with 2nd-from-top
	require.Equal(t, uint64(1), st.Peek().Uint64())
	require.Equal(t, uint64(2), st.Back(1).Uint64())
	require.Equal(t, uint64(3), st.Back(2).Uint64())
}

func TestStackDup(t *testing.T) {
	st := NewStack()
	st.Push(uint256.NewInt(7))
	st.Push(uint256.NewInt(8))

	st.Dup(2) // DUP2: duplicate the 2nd-from-top (value 7)
	require.Equal(t, 3, st.Len())
	require.Equal(t, uint64(7), st.Peek().Uint64())

	// Mutating the duplicate must not alias the original.
	st.Peek().SetUint64(99)
	require.Equal(t, uint64(7), st.Back(2).Uint64())
}

func TestStackBoundInvariant(t *testing.T) {
	st := NewStack()
	for i := 0; i < stackLimit; i++ {
		st.Push(uint256.NewInt(uint64(i)))
	}
	require.Equal(t, stackLimit, st.Len())
}
