package vm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethcore/evm/core/types"
)

// fakeHost is a minimal in-memory Host for exercising the interpreter in
// isolation, grounded in the same account/storage/access-list bookkeeping
// cmd/evmrun's memHost implements, trimmed down to what these tests need.
type fakeHost struct {
	balances map[types.Address]*uint256.Int
	nonces   map[types.Address]uint64
	code     map[types.Address][]byte
	codeHash map[types.Address]types.Hash
	storage  map[types.Address]map[types.Hash]types.Hash
	exists   map[types.Address]bool
	refund   uint64
	snaps    []map[types.Address]map[types.Hash]types.Hash
	accAddr  map[types.Address]bool
	accSlot  map[types.Address]map[types.Hash]bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		balances: make(map[types.Address]*uint256.Int),
		nonces:   make(map[types.Address]uint64),
		code:     make(map[types.Address][]byte),
		codeHash: make(map[types.Address]types.Hash),
		storage:  make(map[types.Address]map[types.Hash]types.Hash),
		exists:   make(map[types.Address]bool),
		accAddr:  make(map[types.Address]bool),
		accSlot:  make(map[types.Address]map[types.Hash]bool),
	}
}

func (h *fakeHost) CreateAccount(addr types.Address) { h.exists[addr] = true }
func (h *fakeHost) GetBalance(addr types.Address) *uint256.Int {
	if b, ok := h.balances[addr]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}
func (h *fakeHost) AddBalance(addr types.Address, amount *uint256.Int) {
	b := h.GetBalance(addr)
	b.Add(b, amount)
	h.balances[addr] = b
	h.exists[addr] = true
}
func (h *fakeHost) SubBalance(addr types.Address, amount *uint256.Int) {
	b := h.GetBalance(addr)
	b.Sub(b, amount)
	h.balances[addr] = b
}
func (h *fakeHost) GetNonce(addr types.Address) uint64 { return h.nonces[addr] }
func (h *fakeHost) SetNonce(addr types.Address, nonce uint64) {
	h.nonces[addr] = nonce
	h.exists[addr] = true
}
func (h *fakeHost) GetCode(addr types.Address) []byte { return h.code[addr] }
func (h *fakeHost) SetCode(addr types.Address, code []byte) {
	h.code[addr] = code
	h.exists[addr] = true
}
func (h *fakeHost) GetCodeHash(addr types.Address) types.Hash {
	if hsh, ok := h.codeHash[addr]; ok {
		return hsh
	}
	return types.EmptyCodeHash
}
func (h *fakeHost) GetCodeSize(addr types.Address) int { return len(h.code[addr]) }

func (h *fakeHost) GetState(addr types.Address, key types.Hash) types.Hash {
	return h.storage[addr][key]
}
func (h *fakeHost) SetState(addr types.Address, key types.Hash, value types.Hash) {
	if h.storage[addr] == nil {
		h.storage[addr] = make(map[types.Hash]types.Hash)
	}
	h.storage[addr][key] = value
}
func (h *fakeHost) GetCommittedState(addr types.Address, key types.Hash) types.Hash {
	return h.storage[addr][key]
}

func (h *fakeHost) GetTransientState(types.Address, types.Hash) types.Hash { return types.Hash{} }
func (h *fakeHost) SetTransientState(types.Address, types.Hash, types.Hash) {}
func (h *fakeHost) ClearTransientStorage() {}

func (h *fakeHost) SelfDestruct(types.Address) bool { return true }
func (h *fakeHost) HasSelfDestructed(types.Address) bool { return false }
func (h *fakeHost) Exist(addr types.Address) bool { return h.exists[addr] }
func (h *fakeHost) Empty(addr types.Address) bool {
	return h.GetNonce(addr) == 0 && h.GetBalance(addr).IsZero() && h.GetCodeSize(addr) == 0
}

func (h *fakeHost) Snapshot() int {
	cp := make(map[types.Address]map[types.Hash]types.Hash, len(h.storage))
	for addr, slots := range h.storage {
		s := make(map[types.Hash]types.Hash, len(slots))
		for k, v := range slots {
			s[k] = v
		}
		cp[addr] = s
	}
	h.snaps = append(h.snaps, cp)
	return len(h.snaps) - 1
}
func (h *fakeHost) RevertToSnapshot(id int) {
	h.storage = h.snaps[id]
	h.snaps = h.snaps[:id]
}

func (h *fakeHost) AddLog(*types.Log) {}

func (h *fakeHost) AddRefund(gas uint64) { h.refund += gas }
func (h *fakeHost) SubRefund(gas uint64) {
	if gas > h.refund {
		h.refund = 0
		return
	}
	h.refund -= gas
}
func (h *fakeHost) GetRefund() uint64 { return h.refund }

func (h *fakeHost) AddAddressToAccessList(addr types.Address) { h.accAddr[addr] = true }
func (h *fakeHost) AddSlotToAccessList(addr types.Address, slot types.Hash) {
	h.accAddr[addr] = true
	if h.accSlot[addr] == nil {
		h.accSlot[addr] = make(map[types.Hash]bool)
	}
	h.accSlot[addr][slot] = true
}
func (h *fakeHost) AddressInAccessList(addr types.Address) bool { return h.accAddr[addr] }
func (h *fakeHost) SlotInAccessList(addr types.Address, slot types.Hash) (bool, bool) {
	return h.accAddr[addr], h.accSlot[addr][slot]
}

func (h *fakeHost) IsPrecompile(types.Address) (PrecompileID, bool) { return PrecompileID{}, false }
func (h *fakeHost) ExecutePrecompile(PrecompileID, []byte, uint64) ([]byte, uint64, error) {
	return nil, 0, ErrInvalidOpCode
}

func (h *fakeHost) BlockHash(uint64) types.Hash { return types.Hash{} }

func newTestEVM(host Host) *EVM {
	rules := ForkRules{
		IsHomestead: true, IsTangerine: true, IsSpuriousDragon: true,
		IsByzantium: true, IsConstantinople: true, IsIstanbul: true,
		IsBerlin: true, IsLondon: true, IsMerge: true, IsShanghai: true,
		IsCancun: true,
	}
	return NewEVM(BlockContext{GetHash: func(uint64) types.Hash { return types.Hash{} }},
		TxContext{}, host, rules, uint256.NewInt(1))
}

// TestAddAndReturn: PUSH1 1 PUSH1 1 ADD PUSH1 0 MSTORE PUSH1 32 PUSH1 0 RETURN
// returns 32 bytes with the last byte 2.
func TestAddAndReturn(t *testing.T) {
	host := newFakeHost()
	evm := newTestEVM(host)
	target := types.BytesToAddress([]byte{0xc0, 0xde})
	host.CreateAccount(target)
	host.SetCode(target, []byte{
		byte(PUSH1), 1,
		byte(PUSH1), 1,
		byte(ADD),
		byte(PUSH1), 0,
		byte(MSTORE),
		byte(PUSH1), 32,
		byte(PUSH1), 0,
		byte(RETURN),
	})

	res := evm.Call(types.Address{}, target, nil, 100000, nil, false)
	require.NoError(t, res.Err)
	require.Len(t, res.ReturnData, 32)
	require.Equal(t, byte(2), res.ReturnData[31])
	// 5 PUSH1 + ADD + MSTORE at 3 gas each, plus 3 gas expanding memory to
	// one word; RETURN itself is free.
	require.Equal(t, uint64(100000-24), res.GasLeft)
}

// TestStackUnderflow: ADD with an empty stack fails with a StackError.
func TestStackUnderflow(t *testing.T) {
	host := newFakeHost()
	evm := newTestEVM(host)
	target := types.BytesToAddress([]byte{0xc0, 0xde})
	host.CreateAccount(target)
	host.SetCode(target, []byte{byte(ADD)})

	res := evm.Call(types.Address{}, target, nil, 100000, nil, false)
	require.Error(t, res.Err)
	var stackErr *StackError
	require.ErrorAs(t, res.Err, &stackErr)
}

// TestInvalidJumpIntoPushImmediate: JUMP to an offset that is a PUSH2's
// immediate byte, not a real JUMPDEST, fails ErrInvalidJump.
func TestInvalidJumpIntoPushImmediate(t *testing.T) {
	host := newFakeHost()
	evm := newTestEVM(host)
	target := types.BytesToAddress([]byte{0xc0, 0xde})
	host.CreateAccount(target)
	// offsets: 0 PUSH1, 1 imm(4), 2 JUMP, 3 PUSH2, 4-5 imm (0x5b 0x5b), 6
	// JUMPDEST, 7 STOP. Offset 4 is inside the PUSH2 immediate, not a real
	// jump target, even though its byte value equals JUMPDEST's opcode.
	host.SetCode(target, []byte{
		byte(PUSH1), 4,
		byte(JUMP),
		byte(PUSH2), byte(JUMPDEST), byte(JUMPDEST),
		byte(JUMPDEST),
		byte(STOP),
	})

	res := evm.Call(types.Address{}, target, nil, 100000, nil, false)
	require.ErrorIs(t, res.Err, ErrInvalidJump)
}

// TestCallDepthLimit: a contract that CALLs itself hits MaxCallDepth and the
// innermost call fails without corrupting outer frames.
func TestCallDepthLimit(t *testing.T) {
	host := newFakeHost()
	evm := newTestEVM(host)
	self := types.BytesToAddress([]byte{0xc0, 0xde})
	host.CreateAccount(self)
	// push outSize, outOffset, inSize, inOffset, value (all 0), then addr,
	// then GAS (forward whatever remains); CALL pops in the opposite order.
	code := []byte{
		byte(PUSH1), 0, byte(PUSH1), 0, byte(PUSH1), 0, byte(PUSH1), 0,
		byte(PUSH1), 0, byte(PUSH20),
	}
	code = append(code, self.Bytes()...)
	code = append(code, byte(GAS), byte(CALL), byte(POP), byte(STOP))
	host.SetCode(self, code)

	res := evm.Call(types.Address{}, self, nil, 2_000_000_000, nil, false)
	require.NoError(t, res.Err, "the outer call must survive even though nested recursion bottoms out at MaxCallDepth")
}

// TestCallRejectedBeyondMaxDepth: a frame already at the depth limit cannot
// spawn a child; the caller keeps the gas it offered.
func TestCallRejectedBeyondMaxDepth(t *testing.T) {
	host := newFakeHost()
	evm := newTestEVM(host)
	target := types.BytesToAddress([]byte{0xc0, 0xde})
	host.CreateAccount(target)
	host.SetCode(target, []byte{byte(STOP)})

	evm.depth = MaxCallDepth + 1
	res := evm.Call(types.Address{}, target, nil, 50000, nil, false)
	require.ErrorIs(t, res.Err, ErrMaxCallDepthExceeded)
	require.Equal(t, uint64(50000), res.GasLeft)
}

// TestStaticContextRejectsSstore: SSTORE inside a STATICCALL fails
// ErrWriteProtection.
func TestStaticContextRejectsSstore(t *testing.T) {
	host := newFakeHost()
	evm := newTestEVM(host)
	target := types.BytesToAddress([]byte{0xc0, 0xde})
	host.CreateAccount(target)
	host.SetCode(target, []byte{
		byte(PUSH1), 1,
		byte(PUSH1), 0,
		byte(SSTORE),
	})

	res := evm.StaticCall(types.Address{}, target, nil, 100000)
	require.ErrorIs(t, res.Err, ErrWriteProtection)
}

// TestExtCodeHashNonExistentVsEmpty: EXTCODEHASH pushes zero for an account
// that does not exist, and keccak256("") for one that exists but carries no
// code.
func TestExtCodeHashNonExistentVsEmpty(t *testing.T) {
	host := newFakeHost()
	evm := newTestEVM(host)
	querier := types.BytesToAddress([]byte{0xc0, 0xde})
	host.CreateAccount(querier)

	nonExistent := types.BytesToAddress([]byte{0x11})
	emptyExisting := types.BytesToAddress([]byte{0x22})
	host.CreateAccount(emptyExisting)

	hashOf := func(target types.Address) types.Hash {
		code := []byte{byte(PUSH20)}
		code = append(code, target.Bytes()...)
		code = append(code,
			byte(EXTCODEHASH),
			byte(PUSH1), 0,
			byte(MSTORE),
			byte(PUSH1), 32,
			byte(PUSH1), 0,
			byte(RETURN),
		)
		host.SetCode(querier, code)
		res := evm.Call(types.Address{}, querier, nil, 100000, nil, false)
		require.NoError(t, res.Err)
		require.Len(t, res.ReturnData, 32)
		return types.BytesToHash(res.ReturnData)
	}

	require.Equal(t, types.Hash{}, hashOf(nonExistent))
	require.Equal(t, types.EmptyCodeHash, hashOf(emptyExisting))
}

// TestStaticContextInheritedByDelegateCall: a DELEGATECALL made from inside
// a STATICCALL frame must keep the whole subtree read-only, so an SSTORE in
// the delegated-to code fails and leaves storage untouched.
func TestStaticContextInheritedByDelegateCall(t *testing.T) {
	host := newFakeHost()
	evm := newTestEVM(host)
	outer := types.BytesToAddress([]byte{0xaa})
	inner := types.BytesToAddress([]byte{0xbb})
	host.CreateAccount(outer)
	host.CreateAccount(inner)

	host.SetCode(inner, []byte{
		byte(PUSH1), 1,
		byte(PUSH1), 0,
		byte(SSTORE),
	})
	// DELEGATECALL(gas, inner, 0, 0, 0, 0); the write-protection failure is
	// contained in the child frame, so the outer static call still succeeds.
	code := []byte{
		byte(PUSH1), 0, byte(PUSH1), 0, byte(PUSH1), 0, byte(PUSH1), 0,
		byte(PUSH20),
	}
	code = append(code, inner.Bytes()...)
	code = append(code, byte(GAS), byte(DELEGATECALL), byte(POP), byte(STOP))
	host.SetCode(outer, code)

	res := evm.StaticCall(types.Address{}, outer, nil, 1_000_000)
	require.NoError(t, res.Err)
	require.Empty(t, host.storage[outer])
	require.Empty(t, host.storage[inner])
}

// TestCreate2AddressDerivation checks that create2Address (the EIP-1014
// formula keccak256(0xff ++ sender ++ salt ++ keccak256(initCode))[12:]) is
// deterministic and that a different salt derives a different address.
func TestCreate2AddressDerivation(t *testing.T) {
	sender := types.BytesToAddress([]byte{0x11, 0x22, 0x33})
	salt := uint256.NewInt(42)
	initCode := []byte{byte(STOP)}

	a := create2Address(sender, salt, initCode)
	b := create2Address(sender, salt, initCode)
	require.Equal(t, a, b, "address derivation must be deterministic")

	otherSalt := uint256.NewInt(43)
	c := create2Address(sender, otherSalt, initCode)
	require.NotEqual(t, a, c, "different salts must derive different addresses")
}

func TestCreateDeploysReturnedCode(t *testing.T) {
	host := newFakeHost()
	evm := newTestEVM(host)
	sender := types.BytesToAddress([]byte{0xa1})
	host.CreateAccount(sender)
	host.AddBalance(sender, uint256.NewInt(1_000_000))

	// Init code writes a single STOP byte to memory and returns it as the
	// deployed contract's code: MSTORE8(0, STOP); RETURN(0, 1).
	deployed := []byte{byte(STOP)}
	initCode := []byte{
		byte(PUSH1), byte(STOP),
		byte(PUSH1), 0,
		byte(MSTORE8),
		byte(PUSH1), 1,
		byte(PUSH1), 0,
		byte(RETURN),
	}

	res, addr := evm.Create(sender, initCode, 200000, new(uint256.Int))
	require.NoError(t, res.Err)
	require.Equal(t, deployed, host.GetCode(addr))
}

func TestApplyDispatchesCall(t *testing.T) {
	host := newFakeHost()
	evm := newTestEVM(host)
	target := types.BytesToAddress([]byte{0xc0, 0xde})
	host.CreateAccount(target)
	host.SetCode(target, []byte{byte(STOP)})

	result := Apply(evm, ExecutionParams{CallType: CallTypeCall}, types.Address{}, target, nil, 100000, new(uint256.Int))
	require.Equal(t, StatusSuccess, result.Status)
	require.NoError(t, result.Err)
}
