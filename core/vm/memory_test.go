package vm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestMemoryResizeAndSet(t *testing.T) {
	m := NewMemory()
	require.Equal(t, 0, m.Len())

	m.Resize(64)
	require.Equal(t, 64, m.Len())

	m.Set(0, 3, []byte{0xaa, 0xbb, 0xcc})
	require.Equal(t, []byte{0xaa, 0xbb, 0xcc}, m.Get(0, 3))
}

func TestMemoryZeroLengthNeverExpands(t *testing.T) {
	m := NewMemory()
	m.Set(0, 0, nil)
	require.Equal(t, 0, m.Len())
	require.Nil(t, m.Get(5, 0))
}

func TestMemorySet32(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	val := uint256.NewInt(0x0102)
	m.Set32(0, val)

	got := m.Get(0, 32)
	require.Equal(t, byte(0x01), got[30])
	require.Equal(t, byte(0x02), got[31])
}

func TestMemoryResizeIsMonotonic(t *testing.T) {
	m := NewMemory()
	m.Resize(64)
	m.Set(0, 1, []byte{0x42})
	m.Resize(32) // smaller request must not shrink or clobber existing data
	require.Equal(t, 64, m.Len())
	require.Equal(t, byte(0x42), m.Get(0, 1)[0])
}

func TestMemorySetByte(t *testing.T) {
	m := NewMemory()
	m.Resize(1)
	m.SetByte(0, 0xff)
	require.Equal(t, byte(0xff), m.Data()[0])
}
