package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeccak256EmptyInput(t *testing.T) {
	got := Keccak256()
	want, err := hex.DecodeString("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestKeccak256MultipleChunks(t *testing.T) {
	a := Keccak256([]byte("hello"), []byte(" "), []byte("world"))
	b := Keccak256([]byte("hello world"))
	require.Equal(t, b, a, "Keccak256 must hash the concatenation of its arguments")
}

func TestKeccak256HashLength(t *testing.T) {
	h := Keccak256Hash([]byte("anything"))
	require.Len(t, h.Bytes(), 32)
}

func TestKeccak256Deterministic(t *testing.T) {
	a := Keccak256([]byte("deterministic"))
	b := Keccak256([]byte("deterministic"))
	require.Equal(t, a, b)
}
