// Package crypto provides the hash primitives the interpreter needs:
// Keccak256 for KECCAK256, CREATE/CREATE2 address derivation, and JUMPDEST
// cache keys. No signature verification lives here (out of scope).
package crypto

import (
	"golang.org/x/crypto/sha3"

	"github.com/ethcore/evm/core/types"
)

// Keccak256 returns the Keccak256 digest of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// Keccak256Hash returns the Keccak256 digest of data as a types.Hash.
func Keccak256Hash(data ...[]byte) types.Hash {
	return types.BytesToHash(Keccak256(data...))
}
