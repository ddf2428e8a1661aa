package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethcore/evm/crypto"
)

func TestJumpdestBitmapBasic(t *testing.T) {
	code := []byte{byte(JUMPDEST), byte(STOP), byte(JUMPDEST)}
	bm := newJumpdestBitmap(code)
	require.True(t, bm.isValid(0))
	require.False(t, bm.isValid(1))
	require.True(t, bm.isValid(2))
}

func TestJumpdestBitmapSkipsPushImmediates(t *testing.T) {
	// PUSH1 0x5b STOP: the 0x5b byte is JUMPDEST's opcode value but it is a
	// PUSH1 operand, not a real jump target.
	code := []byte{byte(PUSH1), byte(JUMPDEST), byte(STOP)}
	bm := newJumpdestBitmap(code)
	require.False(t, bm.isValid(1))
}

func TestJumpdestBitmapSkipsMultiBytePushImmediates(t *testing.T) {
	// PUSH32 with a JUMPDEST byte buried in the middle of its 32-byte
	// immediate must not be treated as a valid jump target.
	code := make([]byte, 0, 34)
	code = append(code, byte(PUSH32))
	imm := make([]byte, 32)
	imm[15] = byte(JUMPDEST)
	code = append(code, imm...)
	code = append(code, byte(STOP))

	bm := newJumpdestBitmap(code)
	for i := 1; i <= 32; i++ {
		require.False(t, bm.isValid(uint64(i)), "offset %d inside PUSH32 immediate must not validate", i)
	}
	require.False(t, bm.isValid(33)) // STOP, not a jumpdest
}

func TestJumpdestBitmapPush0(t *testing.T) {
	code := []byte{byte(PUSH0), byte(JUMPDEST)}
	bm := newJumpdestBitmap(code)
	require.True(t, bm.isValid(1))
}

func TestAnalyzeJumpdestsCaches(t *testing.T) {
	code := []byte{byte(JUMPDEST), byte(STOP)}
	a := analyzeJumpdests(code)
	require.True(t, jumpdestCache.Contains(crypto.Keccak256Hash(code)))
	b := analyzeJumpdests(append([]byte{}, code...))
	require.Equal(t, a, b)
}

func TestAnalyzeJumpdestsEmptyCode(t *testing.T) {
	require.Nil(t, analyzeJumpdests(nil))
}

func TestJumpdestOutOfRangeIsInvalid(t *testing.T) {
	bm := newJumpdestBitmap([]byte{byte(JUMPDEST)})
	require.False(t, bm.isValid(1000))
}
