package main

import (
	"crypto/sha256"
	"errors"

	"github.com/holiman/uint256"

	"github.com/ethcore/evm/core/types"
	"github.com/ethcore/evm/core/vm"
	"github.com/ethcore/evm/crypto"
)

// errPrecompileUnimplemented is returned by ExecutePrecompile for any
// precompile whose cryptography this demo Host does not implement.
var errPrecompileUnimplemented = errors.New("evmrun: precompile not implemented by the demo host")

// memHost is a minimal in-memory Host, enough to drive one evmrun
// invocation: plain maps for balances/nonces/code/storage, a stack of
// full copies of the balance, nonce and storage maps for
// Snapshot/RevertToSnapshot, and the stdlib's
// sha256/identity as the only precompiles actually executed.
type memHost struct {
	balances   map[types.Address]*uint256.Int
	nonces     map[types.Address]uint64
	code       map[types.Address][]byte
	codeHash   map[types.Address]types.Hash
	storage    map[types.Address]map[types.Hash]types.Hash
	transient  map[types.Address]map[types.Hash]types.Hash
	destructed map[types.Address]bool
	exists     map[types.Address]bool

	refund uint64

	accessAddrs map[types.Address]bool
	accessSlots map[types.Address]map[types.Hash]bool

	logs []*types.Log

	registry *vm.PrecompileRegistry

	snapshots []memHostSnapshot
}

type memHostSnapshot struct {
	balances map[types.Address]*uint256.Int
	nonces   map[types.Address]uint64
	storage  map[types.Address]map[types.Hash]types.Hash
}

func newMemHost() *memHost {
	return &memHost{
		balances:    make(map[types.Address]*uint256.Int),
		nonces:      make(map[types.Address]uint64),
		code:        make(map[types.Address][]byte),
		codeHash:    make(map[types.Address]types.Hash),
		storage:     make(map[types.Address]map[types.Hash]types.Hash),
		transient:   make(map[types.Address]map[types.Hash]types.Hash),
		destructed:  make(map[types.Address]bool),
		exists:      make(map[types.Address]bool),
		accessAddrs: make(map[types.Address]bool),
		accessSlots: make(map[types.Address]map[types.Hash]bool),
		registry:    vm.NewPrecompileRegistry(),
	}
}

func (h *memHost) CreateAccount(addr types.Address) {
	h.exists[addr] = true
	if _, ok := h.balances[addr]; !ok {
		h.balances[addr] = new(uint256.Int)
	}
}

func (h *memHost) GetBalance(addr types.Address) *uint256.Int {
	if b, ok := h.balances[addr]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

func (h *memHost) AddBalance(addr types.Address, amount *uint256.Int) {
	h.exists[addr] = true
	b := h.GetBalance(addr)
	b.Add(b, amount)
	h.balances[addr] = b
}

func (h *memHost) SubBalance(addr types.Address, amount *uint256.Int) {
	b := h.GetBalance(addr)
	b.Sub(b, amount)
	h.balances[addr] = b
}

func (h *memHost) GetNonce(addr types.Address) uint64 { return h.nonces[addr] }
func (h *memHost) SetNonce(addr types.Address, nonce uint64) {
	h.exists[addr] = true
	h.nonces[addr] = nonce
}

func (h *memHost) GetCode(addr types.Address) []byte { return h.code[addr] }
func (h *memHost) GetCodeSize(addr types.Address) int { return len(h.code[addr]) }
// GetCodeHash reports keccak256("") for an existing account that carries no
// code; EXTCODEHASH depends on that distinction from the all-zero hash it
// pushes for non-existent accounts.
func (h *memHost) GetCodeHash(addr types.Address) types.Hash {
	if hsh, ok := h.codeHash[addr]; ok {
		return hsh
	}
	return types.EmptyCodeHash
}

func (h *memHost) SetCode(addr types.Address, code []byte) {
	h.exists[addr] = true
	h.code[addr] = code
	h.codeHash[addr] = crypto.Keccak256Hash(code)
}

func (h *memHost) GetState(addr types.Address, key types.Hash) types.Hash {
	return h.storage[addr][key]
}

func (h *memHost) SetState(addr types.Address, key types.Hash, value types.Hash) {
	if h.storage[addr] == nil {
		h.storage[addr] = make(map[types.Hash]types.Hash)
	}
	h.storage[addr][key] = value
}

func (h *memHost) GetCommittedState(addr types.Address, key types.Hash) types.Hash {
	return h.storage[addr][key]
}

func (h *memHost) GetTransientState(addr types.Address, key types.Hash) types.Hash {
	return h.transient[addr][key]
}

func (h *memHost) SetTransientState(addr types.Address, key types.Hash, value types.Hash) {
	if h.transient[addr] == nil {
		h.transient[addr] = make(map[types.Hash]types.Hash)
	}
	h.transient[addr][key] = value
}

func (h *memHost) ClearTransientStorage() {
	h.transient = make(map[types.Address]map[types.Hash]types.Hash)
}

// SelfDestruct marks addr destroyed and returns true only on the first
// self-destruct of addr. memHost does not record which accounts were created
// in the current transaction, so the result does not report that.
func (h *memHost) SelfDestruct(addr types.Address) bool {
	wasDestructed := h.destructed[addr]
	h.destructed[addr] = true
	return !wasDestructed
}

func (h *memHost) HasSelfDestructed(addr types.Address) bool { return h.destructed[addr] }

func (h *memHost) Exist(addr types.Address) bool { return h.exists[addr] }
func (h *memHost) Empty(addr types.Address) bool {
	return h.GetNonce(addr) == 0 && h.GetBalance(addr).IsZero() && h.GetCodeSize(addr) == 0
}

func (h *memHost) Snapshot() int {
	snap := memHostSnapshot{
		balances: cloneBalances(h.balances),
		nonces:   cloneNonces(h.nonces),
		storage:  cloneStorage(h.storage),
	}
	h.snapshots = append(h.snapshots, snap)
	return len(h.snapshots) - 1
}

func (h *memHost) RevertToSnapshot(id int) {
	snap := h.snapshots[id]
	h.balances = snap.balances
	h.nonces = snap.nonces
	h.storage = snap.storage
	h.snapshots = h.snapshots[:id]
}

func (h *memHost) AddLog(log *types.Log) { h.logs = append(h.logs, log) }

func (h *memHost) AddRefund(gas uint64) { h.refund += gas }
func (h *memHost) SubRefund(gas uint64) {
	if gas > h.refund {
		h.refund = 0
		return
	}
	h.refund -= gas
}
func (h *memHost) GetRefund() uint64 { return h.refund }

func (h *memHost) AddAddressToAccessList(addr types.Address) { h.accessAddrs[addr] = true }
func (h *memHost) AddSlotToAccessList(addr types.Address, slot types.Hash) {
	h.accessAddrs[addr] = true
	if h.accessSlots[addr] == nil {
		h.accessSlots[addr] = make(map[types.Hash]bool)
	}
	h.accessSlots[addr][slot] = true
}
func (h *memHost) AddressInAccessList(addr types.Address) bool { return h.accessAddrs[addr] }
func (h *memHost) SlotInAccessList(addr types.Address, slot types.Hash) (bool, bool) {
	addrOk := h.accessAddrs[addr]
	slotOk := h.accessSlots[addr][slot]
	return addrOk, slotOk
}

func (h *memHost) IsPrecompile(addr types.Address) (vm.PrecompileID, bool) {
	if h.registry.IsPrecompile(addr) {
		return addr, true
	}
	return vm.PrecompileID{}, false
}

func (h *memHost) ExecutePrecompile(id vm.PrecompileID, input []byte, gas uint64) ([]byte, uint64, error) {
	info, ok := h.registry.Lookup(id)
	if !ok {
		return nil, gas, vm.ErrInvalidOpCode
	}
	cost := info.GasCost(input)
	if cost > gas {
		return nil, 0, vm.ErrOutOfGas
	}
	switch info.Name {
	case "identity":
		return append([]byte{}, input...), gas - cost, nil
	case "sha256":
		return sha256sum(input), gas - cost, nil
	default:
		// ecrecover/ripemd160/modexp/bn256/blake2f/pointEval need real
		// cryptographic implementations; evmrun reports them
		// unimplemented rather than faking a result.
		return nil, gas - cost, errPrecompileUnimplemented
	}
}

func (h *memHost) BlockHash(n uint64) types.Hash { return types.Hash{} }

func sha256sum(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

func cloneBalances(m map[types.Address]*uint256.Int) map[types.Address]*uint256.Int {
	out := make(map[types.Address]*uint256.Int, len(m))
	for k, v := range m {
		out[k] = new(uint256.Int).Set(v)
	}
	return out
}

func cloneNonces(m map[types.Address]uint64) map[types.Address]uint64 {
	out := make(map[types.Address]uint64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStorage(m map[types.Address]map[types.Hash]types.Hash) map[types.Address]map[types.Hash]types.Hash {
	out := make(map[types.Address]map[types.Hash]types.Hash, len(m))
	for addr, slots := range m {
		cp := make(map[types.Hash]types.Hash, len(slots))
		for k, v := range slots {
			cp[k] = v
		}
		out[addr] = cp
	}
	return out
}
