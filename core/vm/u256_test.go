package vm

import (
	"encoding/hex"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestWordFromUint64(t *testing.T) {
	w := wordFromUint64(42)
	require.Equal(t, uint64(42), w.Uint64())
}

func TestWordFromBytes(t *testing.T) {
	w := wordFromBytes([]byte{0x01, 0x02})
	require.Equal(t, uint64(0x0102), w.Uint64())
}

func TestSignExtend(t *testing.T) {
	cases := []struct {
		name    string
		byteNum *uint256.Int
		val     *uint256.Int
		wantNeg bool
	}{
		{"byte0 negative", uint256.NewInt(0), uint256.NewInt(0xff), true},
		{"byte0 positive", uint256.NewInt(0), uint256.NewInt(0x7f), false},
		{"byteNum too large is a no-op", uint256.NewInt(32), uint256.NewInt(0xff), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := signExtend(tc.byteNum, tc.val)
			if tc.wantNeg {
				require.True(t, got.Sign() < 0, "expected sign-extended negative result, got %s", got.Hex())
			} else {
				require.False(t, got.Sign() < 0, "expected non-negative result, got %s", got.Hex())
			}
		})
	}
}

func TestByteAt(t *testing.T) {
	raw, err := hex.DecodeString("0000000000000000000000000000000000000000000000000000000000000102")
	require.NoError(t, err)
	val := new(uint256.Int).SetBytes(raw)

	require.Equal(t, uint64(0x02), byteAt(uint256.NewInt(31), val).Uint64())
	require.Equal(t, uint64(0x01), byteAt(uint256.NewInt(30), val).Uint64())
}

func TestByteAtOutOfRange(t *testing.T) {
	require.True(t, byteAt(uint256.NewInt(32), uint256.NewInt(0xff)).IsZero())
}

func TestFitsStack64(t *testing.T) {
	small := uint256.NewInt(1024)
	v, ok := fitsStack64(small)
	require.True(t, ok)
	require.Equal(t, uint64(1024), v)

	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	_, ok = fitsStack64(huge)
	require.False(t, ok)
}
