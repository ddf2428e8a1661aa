package vm

import (
	"github.com/holiman/uint256"

	"github.com/ethcore/evm/core/types"
)

// gasFunc computes the dynamic (as opposed to constant) gas cost of an
// operation, given the already-resized memory.
type gasFunc func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error)

// memorySizeFunc computes the number of bytes memory must be resized to
// accommodate an operation's access, given the stack contents before any
// popping. Returns overflow=true when the required size overflows uint64, which
// the caller must treat as an out-of-gas condition.
type memorySizeFunc func(stack *Stack) (size uint64, overflow bool)

func memoryWordSize(size uint64) uint64 {
	return (size + 31) / 32
}

// calcMemSize64 returns off+size as a uint64, reporting overflow.
func calcMemSize64(off, length *uint256.Int) (uint64, bool) {
	if length.IsZero() {
		return 0, false
	}
	if !off.IsUint64() || !length.IsUint64() {
		return 0, true
	}
	var sum uint256.Int
	overflow := sum.AddOverflow(off, length)
	if overflow || !sum.IsUint64() {
		return 0, true
	}
	return sum.Uint64(), false
}

func memoryMload(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), uint256.NewInt(32))
}

func memoryMstore(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), uint256.NewInt(32))
}

func memoryMstore8(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), uint256.NewInt(1))
}

func memoryKeccak256(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), stack.Back(1))
}

func memoryCallDataCopy(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), stack.Back(2))
}

func memoryReturnDataCopy(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), stack.Back(2))
}

func memoryCodeCopy(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), stack.Back(2))
}

func memoryExtCodeCopy(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(1), stack.Back(3))
}

func memoryMcopy(stack *Stack) (uint64, bool) {
	dst, src, size := stack.Back(0), stack.Back(1), stack.Back(2)
	dstSize, overflow := calcMemSize64(dst, size)
	if overflow {
		return 0, true
	}
	srcSize, overflow := calcMemSize64(src, size)
	if overflow {
		return 0, true
	}
	if dstSize > srcSize {
		return dstSize, false
	}
	return srcSize, false
}

func memoryReturn(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), stack.Back(1))
}

func memoryRevert(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), stack.Back(1))
}

func memoryLog(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), stack.Back(1))
}

func memoryCreate(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(1), stack.Back(2))
}

func memoryCreate2(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(1), stack.Back(2))
}

func memoryCall(stack *Stack) (uint64, bool) {
	x, overflow := calcMemSize64(stack.Back(5), stack.Back(6))
	if overflow {
		return 0, true
	}
	y, overflow := calcMemSize64(stack.Back(3), stack.Back(4))
	if overflow {
		return 0, true
	}
	if x > y {
		return x, false
	}
	return y, false
}

func memoryDelegateStaticCall(stack *Stack) (uint64, bool) {
	x, overflow := calcMemSize64(stack.Back(4), stack.Back(5))
	if overflow {
		return 0, true
	}
	y, overflow := calcMemSize64(stack.Back(2), stack.Back(3))
	if overflow {
		return 0, true
	}
	if x > y {
		return x, false
	}
	return y, false
}

// gasMemExpansion computes the quadratic memory-expansion gas cost
// (words*Gmemory + words^2/512) for growing memory from its current length
// to newSize bytes.
func gasMemExpansion(mem *Memory, newSize uint64) (uint64, error) {
	if newSize == 0 {
		return 0, nil
	}
	if newSize > 0x1FFFFFFFE0 { // largest size whose word count squares without overflow
		return 0, ErrOutOfGas
	}
	newWords := memoryWordSize(newSize)
	newCost := newWords*GasMemory + newWords*newWords/512

	curWords := memoryWordSize(uint64(mem.Len()))
	curCost := curWords*GasMemory + curWords*curWords/512

	if newCost <= curCost {
		return 0, nil
	}
	return newCost - curCost, nil
}

// gasEIP2929AccountCheck returns the EIP-2929 account-access surcharge: the
// first access to addr in a transaction pays the full ColdAccountAccessCost
// and adds addr to the access list; later accesses pay warmCost.
func gasEIP2929AccountCheck(evm *EVM, addr types.Address, warmCost uint64) uint64 {
	if evm.Host.AddressInAccessList(addr) {
		return warmCost
	}
	evm.Host.AddAddressToAccessList(addr)
	return ColdAccountAccessCost
}

// gasEIP2929SlotCheck is the SLOAD/storage-slot analogue of
// gasEIP2929AccountCheck.
func gasEIP2929SlotCheck(evm *EVM, addr types.Address, slot types.Hash) uint64 {
	_, slotWarm := evm.Host.SlotInAccessList(addr, slot)
	if slotWarm {
		return WarmStorageReadCost
	}
	evm.Host.AddSlotToAccessList(addr, slot)
	return ColdSloadCost
}

// The access-priced opcodes (SLOAD, BALANCE, EXTCODE*, the CALL family)
// carry a zero constant-gas slot in every fork table; their dynamic-gas
// functions below own the full Frontier -> Tangerine -> Istanbul -> Berlin
// pricing ladder, so a repricing fork never has to touch the tables.

func gasSLoad(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	rules := evm.rules
	if !rules.IsBerlin {
		switch {
		case rules.IsIstanbul:
			return GasSloadIstanbul, nil
		case rules.IsTangerine:
			return GasSloadTangerine, nil
		default:
			return GasSloadFrontier, nil
		}
	}
	var key types.Hash
	topic := stack.Peek()
	b32 := topic.Bytes32()
	key.SetBytes(b32[:])
	return gasEIP2929SlotCheck(evm, contract.Address, key), nil
}

// gasSStore implements SSTORE pricing across the whole fork range: flat
// set/reset metering before Istanbul, EIP-2200 net metering from Istanbul,
// with the EIP-2929 cold-slot surcharge (Berlin+) and EIP-3529's reduced
// clear refund (London+) layered on top.
func gasSStore(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	var key, newHash types.Hash
	kb := stack.Back(0).Bytes32()
	key.SetBytes(kb[:])
	nb := stack.Back(1).Bytes32()
	newHash.SetBytes(nb[:])

	rules := evm.rules
	if !rules.IsIstanbul {
		current := evm.Host.GetState(contract.Address, key)
		switch {
		case current.IsZero() && !newHash.IsZero():
			return GasSstoreSetFrontier, nil
		case !current.IsZero() && newHash.IsZero():
			evm.Host.AddRefund(GasSstoreClearRefund)
			return GasSstoreResetFrontier, nil
		default:
			return GasSstoreResetFrontier, nil
		}
	}

	// EIP-2200 forbids SSTORE when the frame cannot cover the call stipend.
	if contract.Gas <= GasCallStipend {
		return 0, ErrOutOfGas
	}

	sloadCost := GasSloadIstanbul // EIP-2200 SLOAD_GAS
	resetCost := GasSstoreResetFrontier
	var coldSurcharge uint64
	if rules.IsBerlin {
		sloadCost = WarmStorageReadCost
		resetCost = GasSstoreResetFrontier - ColdSloadCost
		if _, slotWarm := evm.Host.SlotInAccessList(contract.Address, key); !slotWarm {
			evm.Host.AddSlotToAccessList(contract.Address, key)
			coldSurcharge = ColdSloadCost
		}
	}
	clearRefund := GasSstoreClearRefund
	if rules.IsLondon {
		clearRefund = GasSstoreClearRefundEIP3529
	}

	current := evm.Host.GetState(contract.Address, key)
	if current == newHash {
		return sloadCost + coldSurcharge, nil
	}

	original := evm.Host.GetCommittedState(contract.Address, key)
	if original == current {
		if original.IsZero() {
			return GasSstoreSetFrontier + coldSurcharge, nil
		}
		if newHash.IsZero() {
			evm.Host.AddRefund(clearRefund)
		}
		return resetCost + coldSurcharge, nil
	}

	if !original.IsZero() {
		if current.IsZero() {
			evm.Host.SubRefund(clearRefund)
		}
		if newHash.IsZero() {
			evm.Host.AddRefund(clearRefund)
		}
	}
	if original == newHash {
		if original.IsZero() {
			evm.Host.AddRefund(GasSstoreSetFrontier - sloadCost)
		} else {
			evm.Host.AddRefund(resetCost - sloadCost)
		}
	}
	return sloadCost + coldSurcharge, nil
}

func gasExtCodeSize(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	addr := types.BytesToAddress(stack.Peek().Bytes())
	if !evm.rules.IsBerlin {
		if evm.rules.IsTangerine {
			return GasExtcodeTangerine, nil
		}
		return GasExtcodeFrontier, nil
	}
	return gasEIP2929AccountCheck(evm, addr, WarmStorageReadCost), nil
}

func gasExtCodeHash(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	addr := types.BytesToAddress(stack.Peek().Bytes())
	if !evm.rules.IsBerlin {
		if evm.rules.IsIstanbul {
			return GasExtCodeHashIstanbul, nil
		}
		return GasExtCodeHashConstantinople, nil
	}
	return gasEIP2929AccountCheck(evm, addr, WarmStorageReadCost), nil
}

func gasBalance(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	addr := types.BytesToAddress(stack.Peek().Bytes())
	if !evm.rules.IsBerlin {
		switch {
		case evm.rules.IsIstanbul:
			return GasBalanceIstanbul, nil
		case evm.rules.IsTangerine:
			return GasBalanceTangerine, nil
		default:
			return GasBalanceFrontier, nil
		}
	}
	return gasEIP2929AccountCheck(evm, addr, WarmStorageReadCost), nil
}

func gasExtCodeCopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := gasMemExpansion(mem, memorySize)
	if err != nil {
		return 0, err
	}
	words := memoryWordSize(stack.Back(3).Uint64())
	wordGas, overflow := safeMul(words, GasCopy)
	if overflow {
		return 0, ErrOutOfGas
	}
	gas, overflow = safeAdd(gas, wordGas)
	if overflow {
		return 0, ErrOutOfGas
	}
	addr := types.BytesToAddress(stack.Back(0).Bytes())
	var accessCost uint64
	switch {
	case evm.rules.IsBerlin:
		accessCost = gasEIP2929AccountCheck(evm, addr, WarmStorageReadCost)
	case evm.rules.IsTangerine:
		accessCost = GasExtcodeTangerine
	default:
		accessCost = GasExtcodeFrontier
	}
	gas, overflow = safeAdd(gas, accessCost)
	if overflow {
		return 0, ErrOutOfGas
	}
	return gas, nil
}

func gasSha3(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := gasMemExpansion(mem, memorySize)
	if err != nil {
		return 0, err
	}
	words := memoryWordSize(stack.Back(1).Uint64())
	wordGas, overflow := safeMul(words, GasKeccak256Word)
	if overflow {
		return 0, ErrOutOfGas
	}
	gas, overflow = safeAdd(gas, wordGas)
	if overflow {
		return 0, ErrOutOfGas
	}
	return gas, nil
}

func gasCallDataCopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return copyGas(mem, memorySize, stack.Back(2))
}

func gasCodeCopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return copyGas(mem, memorySize, stack.Back(2))
}

func gasReturnDataCopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return copyGas(mem, memorySize, stack.Back(2))
}

func gasMcopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return copyGas(mem, memorySize, stack.Back(2))
}

func copyGas(mem *Memory, memorySize uint64, lengthWord *uint256.Int) (uint64, error) {
	gas, err := gasMemExpansion(mem, memorySize)
	if err != nil {
		return 0, err
	}
	if !lengthWord.IsUint64() {
		return 0, ErrOutOfGas
	}
	words := memoryWordSize(lengthWord.Uint64())
	wordGas, overflow := safeMul(words, GasCopy)
	if overflow {
		return 0, ErrOutOfGas
	}
	gas, overflow = safeAdd(gas, wordGas)
	if overflow {
		return 0, ErrOutOfGas
	}
	return gas, nil
}

func gasLog(n int) gasFunc {
	return func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		gas, err := gasMemExpansion(mem, memorySize)
		if err != nil {
			return 0, err
		}
		gas, overflow := safeAdd(gas, GasLog)
		if overflow {
			return 0, ErrOutOfGas
		}
		topicCost, overflow := safeMul(uint64(n), GasLogTopic)
		if overflow {
			return 0, ErrOutOfGas
		}
		gas, overflow = safeAdd(gas, topicCost)
		if overflow {
			return 0, ErrOutOfGas
		}
		if !stack.Back(1).IsUint64() {
			return 0, ErrOutOfGas
		}
		dataCost, overflow := safeMul(stack.Back(1).Uint64(), GasLogData)
		if overflow {
			return 0, ErrOutOfGas
		}
		gas, overflow = safeAdd(gas, dataCost)
		if overflow {
			return 0, ErrOutOfGas
		}
		return gas, nil
	}
}

// gasExp charges GasExpByte (or the Frontier rate) per significant byte of
// the exponent.
func gasExp(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	expByte := GasExpByte
	if !evm.rules.IsSpuriousDragon {
		expByte = GasExpByteFrontier
	}
	exponent := stack.Back(1)
	byteLen := uint64((exponent.BitLen() + 7) / 8)
	gas, overflow := safeMul(byteLen, expByte)
	if overflow {
		return 0, ErrOutOfGas
	}
	return gas, nil
}

// gasCreate charges dynamic memory-expansion gas plus, post-Shanghai
// (EIP-3860), a per-word init-code surcharge.
func gasCreate(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := gasMemExpansion(mem, memorySize)
	if err != nil {
		return 0, err
	}
	if evm.rules.Flags().EIP3860 {
		size := stack.Back(2)
		if !size.IsUint64() {
			return 0, ErrOutOfGas
		}
		words := memoryWordSize(size.Uint64())
		initGas, overflow := safeMul(words, InitCodeWordGas)
		if overflow {
			return 0, ErrOutOfGas
		}
		gas, overflow = safeAdd(gas, initGas)
		if overflow {
			return 0, ErrOutOfGas
		}
	}
	return gas, nil
}

// gasCreate2 is gasCreate plus the per-word hashing cost of the salted
// init-code digest.
func gasCreate2(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := gasCreate(evm, contract, stack, mem, memorySize)
	if err != nil {
		return 0, err
	}
	size := stack.Back(2)
	if !size.IsUint64() {
		return 0, ErrOutOfGas
	}
	words := memoryWordSize(size.Uint64())
	hashGas, overflow := safeMul(words, GasKeccak256Word)
	if overflow {
		return 0, ErrOutOfGas
	}
	gas, overflow = safeAdd(gas, hashGas)
	if overflow {
		return 0, ErrOutOfGas
	}
	return gas, nil
}

// callGas implements the EIP-150 "all but one 64th" forwarding rule:
// available is what's left after the call's own static/dynamic gas has been
// deducted, requested is what the caller put on the stack, taken literally.
func callGas(rules ForkRules, availableGas, base uint64, requested *uint256.Int) (uint64, error) {
	if availableGas < base {
		return 0, ErrOutOfGas
	}
	available := availableGas - base
	if !rules.IsTangerine {
		if !requested.IsUint64() || requested.Uint64() > available {
			return available, nil
		}
		return requested.Uint64(), nil
	}
	capped := available - available/CallGasFraction
	if !requested.IsUint64() || requested.Uint64() > capped {
		return capped, nil
	}
	return requested.Uint64(), nil
}

// gasCall computes CALL's dynamic gas: memory expansion, EIP-2929 account
// access, the value-transfer surcharge, and the new-account surcharge
// (from EIP-158 on: an empty recipient receiving nonzero value; before it:
// any non-existent recipient, whatever the value).
func gasCall(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := gasMemExpansion(mem, memorySize)
	if err != nil {
		return 0, err
	}
	addr := types.BytesToAddress(stack.Back(1).Bytes())
	value := stack.Back(2)

	gas, overflow := safeAdd(gas, callAccessCost(evm, addr))
	if overflow {
		return 0, ErrOutOfGas
	}

	transfersValue := !value.IsZero()
	if transfersValue {
		gas, overflow = safeAdd(gas, GasCallValueTransfer)
		if overflow {
			return 0, ErrOutOfGas
		}
	}

	newAccount := !evm.Host.Exist(addr)
	if evm.rules.Flags().EIP158EmptyAccounts {
		if transfersValue && evm.Host.Empty(addr) {
			gas, overflow = safeAdd(gas, GasCallNewAccount)
			if overflow {
				return 0, ErrOutOfGas
			}
		}
	} else if newAccount {
		gas, overflow = safeAdd(gas, GasCallNewAccount)
		if overflow {
			return 0, ErrOutOfGas
		}
	}
	return gas, nil
}

func gasCallCode(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := gasMemExpansion(mem, memorySize)
	if err != nil {
		return 0, err
	}
	addr := types.BytesToAddress(stack.Back(1).Bytes())
	value := stack.Back(2)

	gas, overflow := safeAdd(gas, callAccessCost(evm, addr))
	if overflow {
		return 0, ErrOutOfGas
	}
	if !value.IsZero() {
		gas, overflow = safeAdd(gas, GasCallValueTransfer)
		if overflow {
			return 0, ErrOutOfGas
		}
	}
	return gas, nil
}

func gasDelegateOrStaticCall(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := gasMemExpansion(mem, memorySize)
	if err != nil {
		return 0, err
	}
	addr := types.BytesToAddress(stack.Back(1).Bytes())
	gas, overflow := safeAdd(gas, callAccessCost(evm, addr))
	if overflow {
		return 0, ErrOutOfGas
	}
	return gas, nil
}

// callAccessCost is the per-fork base cost of addressing another account
// from the CALL family.
func callAccessCost(evm *EVM, addr types.Address) uint64 {
	switch {
	case evm.rules.IsBerlin:
		return gasEIP2929AccountCheck(evm, addr, WarmStorageReadCost)
	case evm.rules.IsTangerine:
		return GasCallTangerine
	default:
		return GasCallFrontier
	}
}

// gasSelfdestruct charges the EIP-2929 cold-account surcharge (Berlin+) and
// the new-account surcharge: from EIP-158 on, when the recipient is empty and
// the contract's balance is nonzero; from Tangerine Whistle until then, when
// the recipient does not exist. The pre-EIP-3529 refund is granted by the
// opcode handler, not here.
func gasSelfdestruct(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	var gas uint64
	rules := evm.rules
	addr := types.BytesToAddress(stack.Peek().Bytes())
	if rules.Flags().EIP158EmptyAccounts {
		if evm.Host.Empty(addr) && !evm.Host.GetBalance(contract.Address).IsZero() {
			gas += GasSelfdestructNewAccount
		}
	} else if rules.IsTangerine && !evm.Host.Exist(addr) {
		gas += GasSelfdestructNewAccount
	}
	if rules.IsBerlin && !evm.Host.AddressInAccessList(addr) {
		evm.Host.AddAddressToAccessList(addr)
		gas += ColdAccountAccessCost
	}
	return gas, nil
}

func safeAdd(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum < a
}

func safeMul(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	c := a * b
	return c, c/a != b
}
