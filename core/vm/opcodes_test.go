package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpCodeString(t *testing.T) {
	require.Equal(t, "ADD", ADD.String())
	require.Equal(t, "PUSH1", PUSH1.String())
	require.Equal(t, "JUMPDEST", JUMPDEST.String())
}

func TestOpCodeStringUnknown(t *testing.T) {
	unknown := OpCode(0x0c) // unassigned in the Yellow Paper
	require.NotEmpty(t, unknown.String())
}

func TestIsPush(t *testing.T) {
	require.True(t, PUSH1.IsPush())
	require.True(t, PUSH32.IsPush())
	require.False(t, PUSH0.IsPush())
	require.False(t, ADD.IsPush())
}
