package vm

import (
	"github.com/holiman/uint256"

	"github.com/ethcore/evm/core/types"
)

// PrecompileID identifies a host-provided precompiled contract by its
// registered address. The interpreter never executes precompile
// cryptography itself; it only asks the Host whether an address is a
// precompile and, if so, defers execution to it.
type PrecompileID = types.Address

// Host is the external collaborator that owns world-state, block context,
// and precompiles: the interpreter's only channel for externally-observable
// effects. Implementations must support single-frame serial access; the
// interpreter assumes nothing stronger about their thread-safety.
type Host interface {
	// Accounts
	CreateAccount(addr types.Address)
	GetBalance(addr types.Address) *uint256.Int
	AddBalance(addr types.Address, amount *uint256.Int)
	SubBalance(addr types.Address, amount *uint256.Int)
	GetNonce(addr types.Address) uint64
	SetNonce(addr types.Address, nonce uint64)
	GetCode(addr types.Address) []byte
	SetCode(addr types.Address, code []byte)
	GetCodeHash(addr types.Address) types.Hash
	GetCodeSize(addr types.Address) int

	// Storage
	GetState(addr types.Address, key types.Hash) types.Hash
	SetState(addr types.Address, key types.Hash, value types.Hash)
	GetCommittedState(addr types.Address, key types.Hash) types.Hash

	// Transient storage (EIP-1153)
	GetTransientState(addr types.Address, key types.Hash) types.Hash
	SetTransientState(addr types.Address, key types.Hash, value types.Hash)
	ClearTransientStorage()

	// Self-destruct. SelfDestruct returns whether the account was created
	// earlier in the same transaction, for refund accounting.
	SelfDestruct(addr types.Address) bool
	HasSelfDestructed(addr types.Address) bool

	// Existence
	Exist(addr types.Address) bool
	Empty(addr types.Address) bool

	// Snapshot / revert
	Snapshot() int
	RevertToSnapshot(id int)

	// Logs
	AddLog(log *types.Log)

	// Refund counter, owned by the Host across the whole transaction.
	// The end-of-transaction cap (EIP-3529's gas_used/5, or /2 before
	// London) is applied by the driver, not here.
	AddRefund(gas uint64)
	SubRefund(gas uint64)
	GetRefund() uint64

	// EIP-2929 access lists.
	AddAddressToAccessList(addr types.Address)
	AddSlotToAccessList(addr types.Address, slot types.Hash)
	AddressInAccessList(addr types.Address) bool
	SlotInAccessList(addr types.Address, slot types.Hash) (addressOk, slotOk bool)

	// Precompile dispatch. The Host owns the actual cryptographic
	// implementations; the interpreter only asks whether addr is one and,
	// if so, hands it input and gas.
	IsPrecompile(addr types.Address) (PrecompileID, bool)
	ExecutePrecompile(id PrecompileID, input []byte, gas uint64) (output []byte, gasLeft uint64, err error)

	// BlockHash returns the hash of block number n, valid only for the last
	// 256 complete blocks; zero otherwise.
	BlockHash(n uint64) types.Hash
}

// StateDB is a backward-compatible alias for Host, for callers that know
// this interface under its world-state name.
type StateDB = Host

// AccessWarmStorage reports whether (addr, slot) is already warm, without
// mutating the access list.
func AccessWarmStorage(h Host, addr types.Address, slot types.Hash) bool {
	_, slotWarm := h.SlotInAccessList(addr, slot)
	return slotWarm
}

// MarkWarm adds (addr, slot) to the access list.
func MarkWarm(h Host, addr types.Address, slot types.Hash) {
	h.AddAddressToAccessList(addr)
	h.AddSlotToAccessList(addr, slot)
}
