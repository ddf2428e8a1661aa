package vm

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ethcore/evm/core/types"
	"github.com/ethcore/evm/crypto"
)

// JumpdestBitmap is a bitset marking every byte offset in a contract's code
// that is both a valid JUMPDEST and not hidden inside a PUSH immediate.
type JumpdestBitmap []byte

func newJumpdestBitmap(code []byte) JumpdestBitmap {
	bits := make(JumpdestBitmap, len(code)/8+1)
	for pc := 0; pc < len(code); {
		op := OpCode(code[pc])
		if op == JUMPDEST {
			bits[pc/8] |= 1 << (pc % 8)
			pc++
			continue
		}
		if op.IsPush() {
			pc += int(op-PUSH1) + 2
			continue
		}
		if op == PUSH0 {
			pc++
			continue
		}
		pc++
	}
	return bits
}

// isValid reports whether pc is a JUMPDEST in the original code (not merely
// a 0x5b byte inside a PUSH immediate).
func (b JumpdestBitmap) isValid(pc uint64) bool {
	idx := pc / 8
	if idx >= uint64(len(b)) {
		return false
	}
	return b[idx]&(1<<(pc%8)) != 0
}

// jumpdestCacheSize bounds the number of distinct contract codes whose
// analysis is cached at once; sized generously since each entry is a few
// hundred bytes at most for realistic contract sizes.
const jumpdestCacheSize = 4096

// jumpdestCache is a package-level, content-addressed cache of jumpdest
// analyses keyed by keccak256(code), so the same deployed bytecode shared
// across many calls (and many Contract instances) is analyzed once.
var jumpdestCache = mustNewJumpdestCache()

func mustNewJumpdestCache() *lru.Cache[types.Hash, JumpdestBitmap] {
	c, err := lru.New[types.Hash, JumpdestBitmap](jumpdestCacheSize)
	if err != nil {
		panic(err)
	}
	return c
}

// analyzeJumpdests returns the (possibly cached) jumpdest bitmap for code,
// keyed by its keccak256 hash.
func analyzeJumpdests(code []byte) JumpdestBitmap {
	if len(code) == 0 {
		return nil
	}
	hash := crypto.Keccak256Hash(code)
	if bm, ok := jumpdestCache.Get(hash); ok {
		return bm
	}
	bm := newJumpdestBitmap(code)
	jumpdestCache.Add(hash, bm)
	return bm
}
