package vm

import "github.com/holiman/uint256"

// Word is the 256-bit unsigned integer used as the native stack and memory
// unit, represented with holiman/uint256's fixed-width four-limb type.
type Word = uint256.Int

// newWord returns a zero-valued Word.
func newWord() *Word { return new(uint256.Int) }

// wordFromUint64 returns a Word set to v.
func wordFromUint64(v uint64) *Word { return new(uint256.Int).SetUint64(v) }

// wordFromBytes returns a Word set from big-endian bytes, left-padded/
// truncated to 32 bytes exactly as types.Hash/Address conversions do.
func wordFromBytes(b []byte) *Word { return new(uint256.Int).SetBytes(b) }

// signExtend implements SIGNEXTEND(back, num): sign-extends num from bit
// 8*back+7 when back < 32, else returns num unchanged.
func signExtend(back, num *Word) *Word {
	if back.LtUint64(32) {
		return new(uint256.Int).ExtendSign(num, back)
	}
	return new(uint256.Int).Set(num)
}

// byteAt implements BYTE(i, x): big-endian byte index i (0 = most
// significant byte), or 0 when i >= 32.
func byteAt(i, x *Word) *Word {
	if i.LtUint64(32) {
		return new(uint256.Int).SetUint64(uint64(x.Byte(i)))
	}
	return newWord()
}

// fitsStack64 reports whether v fits in a uint64, used by opcode handlers
// that treat an operand as a memory offset/length (values that don't fit
// are always out of any realizable memory bound and are clamped to MaxUint64
// by callers rather than silently wrapping).
func fitsStack64(v *Word) (uint64, bool) {
	if !v.IsUint64() {
		return 0, false
	}
	return v.Uint64(), true
}
