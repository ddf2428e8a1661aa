package vm

import (
	"github.com/holiman/uint256"

	"github.com/ethcore/evm/core/types"
)

// Contract represents one call frame's executing code and its gas and
// value accounting.
type Contract struct {
	CallerAddress types.Address
	Address       types.Address

	Code     []byte
	CodeHash types.Hash
	Input    []byte

	Gas   uint64
	value *uint256.Int

	jumpdests JumpdestBitmap

	IsDeployment bool // true while running CREATE/CREATE2 init code
}

// NewContract returns a new Contract executing code on behalf of caller at
// address addr, carrying value and an initial gas allowance.
func NewContract(caller, addr types.Address, value *uint256.Int, gas uint64) *Contract {
	if value == nil {
		value = new(uint256.Int)
	}
	return &Contract{
		CallerAddress: caller,
		Address:       addr,
		value:         value,
		Gas:           gas,
	}
}

// SetCallCode sets the code this contract runs along with its hash, and
// primes the shared jumpdest analysis cache.
func (c *Contract) SetCallCode(hash types.Hash, code []byte) {
	c.Code = code
	c.CodeHash = hash
	c.jumpdests = analyzeJumpdests(code)
}

// SetInitCode sets the init code a CREATE/CREATE2 frame executes. Unlike
// SetCallCode there is no deployed code hash yet (the address's code hash
// only exists once the constructor returns), but JUMP/JUMPI inside the
// constructor still need a jumpdest analysis primed the same way.
func (c *Contract) SetInitCode(code []byte) {
	c.Code = code
	c.jumpdests = analyzeJumpdests(code)
}

// Value returns the wei value sent along with this call.
func (c *Contract) Value() *uint256.Int { return c.value }

// GetOp returns the opcode at n; execution past the last byte behaves as
// an implicit STOP.
func (c *Contract) GetOp(n uint64) OpCode {
	if n < uint64(len(c.Code)) {
		return OpCode(c.Code[n])
	}
	return STOP
}

// validJumpdest reports whether dest is a valid jump target in this
// contract's code.
func (c *Contract) validJumpdest(dest *uint256.Int) bool {
	udest, ok := fitsStack64(dest)
	if !ok {
		return false
	}
	if udest >= uint64(len(c.Code)) {
		return false
	}
	return c.jumpdests.isValid(udest)
}

// UseGas deducts amount from the contract's remaining gas, reporting
// ErrOutOfGas if insufficient.
func (c *Contract) UseGas(amount uint64) error {
	if c.Gas < amount {
		return ErrOutOfGas
	}
	c.Gas -= amount
	return nil
}
