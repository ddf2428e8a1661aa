package vm

import "github.com/holiman/uint256"

// Memory implements the EVM's byte-addressable, word-extending linear
// memory: logically infinite, physically sized to the highest touched
// offset rounded up to a 32-byte word.
type Memory struct {
	store []byte
}

// NewMemory returns a new empty Memory instance.
func NewMemory() *Memory { return &Memory{} }

// Set copies value into memory at the given offset. A zero-length write
// never expands memory and is a no-op.
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	if offset+size > uint64(len(m.store)) {
		panic("memory: out of bounds write")
	}
	copy(m.store[offset:offset+size], value)
}

// Set32 writes a 32-byte Word value at the given offset, big-endian,
// zero-padded.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	if offset+32 > uint64(len(m.store)) {
		panic("memory: out of bounds write")
	}
	b := val.Bytes32()
	copy(m.store[offset:offset+32], b[:])
}

// Resize grows memory to the given size in bytes (already word-rounded by
// the caller); it never shrinks memory within a call frame.
func (m *Memory) Resize(size uint64) {
	if uint64(len(m.store)) < size {
		m.store = append(m.store, make([]byte, size-uint64(len(m.store)))...)
	}
}

// Get returns a copy of the memory contents at [offset, offset+size). A
// zero-length read never expands memory and returns nil.
func (m *Memory) Get(offset, size int64) []byte {
	if size == 0 {
		return nil
	}
	out := make([]byte, size)
	copy(out, m.store[offset:offset+size])
	return out
}

// GetPtr returns a direct slice reference into memory at [offset, offset+size).
func (m *Memory) GetPtr(offset, size int64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

// SetByte writes a single byte at offset (MSTORE8).
func (m *Memory) SetByte(offset uint64, b byte) {
	if offset >= uint64(len(m.store)) {
		panic("memory: out of bounds write")
	}
	m.store[offset] = b
}

// Len returns the current length of memory in bytes.
func (m *Memory) Len() int { return len(m.store) }

// Data returns the full backing slice.
func (m *Memory) Data() []byte { return m.store }
