package vm

import (
	"github.com/holiman/uint256"

	"github.com/ethcore/evm/core/types"
	"github.com/ethcore/evm/crypto"
)

// MaxCallDepth is the maximum nesting depth of CALL/CALLCODE/DELEGATECALL/
// STATICCALL/CREATE/CREATE2.
const MaxCallDepth = 1024

// BlockContext carries the block-level values opcodes like COINBASE,
// TIMESTAMP, NUMBER, PREVRANDAO/DIFFICULTY, GASLIMIT, BASEFEE, and
// BLOCKHASH read.
type BlockContext struct {
	GetHash func(blockNumber uint64) types.Hash

	Coinbase    types.Address
	GasLimit    uint64
	BlockNumber uint64
	Time        uint64
	Difficulty  *uint256.Int // pre-Merge PoW difficulty
	Random      *types.Hash  // post-Merge PREVRANDAO source; nil pre-Merge
	BaseFee     *uint256.Int // nil pre-London
	BlobBaseFee *uint256.Int // nil pre-Cancun
}

// TxContext carries the transaction-level values ORIGIN, GASPRICE, and the
// Cancun BLOBHASH opcode read.
type TxContext struct {
	Origin     types.Address
	GasPrice   *uint256.Int
	BlobHashes []types.Hash
	BlobFeeCap *uint256.Int
}

// EVM is the top-level object coordinating one transaction's (possibly
// deeply nested) execution against a Host.
type EVM struct {
	Context   BlockContext
	TxContext TxContext
	Host      Host

	// ChainID backs the CHAINID opcode (EIP-1344, Istanbul+); a per-chain
	// constant rather than a per-block or per-transaction one, so it lives
	// directly on the EVM rather than BlockContext/TxContext.
	ChainID *uint256.Int

	rules ForkRules
	table JumpTable

	depth int

	// readOnly is the inherited static-context flag: once a STATICCALL
	// frame sets it, every nested frame below it stays read-only no matter
	// which call variant created it.
	readOnly bool

	// abort halts the whole call tree rather than just the current frame;
	// a host-signalled abort is treated as out-of-gas at the next step.
	abort bool

	Tracer EVMLogger
}

// NewEVM constructs an EVM ready to execute calls under the given contexts,
// Host, and fork rules.
func NewEVM(blockCtx BlockContext, txCtx TxContext, host Host, rules ForkRules, chainID *uint256.Int) *EVM {
	if chainID == nil {
		chainID = new(uint256.Int)
	}
	return &EVM{
		Context:   blockCtx,
		TxContext: txCtx,
		Host:      host,
		ChainID:   chainID,
		rules:     rules,
		table:     SelectJumpTable(rules),
	}
}

// Rules exposes the fork rules the EVM was constructed with.
func (evm *EVM) Rules() ForkRules { return evm.rules }

// Depth returns the current call depth.
func (evm *EVM) Depth() int { return evm.depth }

// Cancel aborts the whole call tree; every live frame fails with
// ErrOutOfGas at its next step.
func (evm *EVM) Cancel() { evm.abort = true }

// CallResult is the outcome of any of Call/CallCode/DelegateCall/
// StaticCall/Create/Create2.
type CallResult struct {
	ReturnData []byte
	GasLeft    uint64
	Reverted   bool
	Err        error
}

// Call executes the code at addr as a standard message call, transferring
// value from caller to addr when value is nonzero.
func (evm *EVM) Call(caller types.Address, addr types.Address, input []byte, gas uint64, value *uint256.Int, static bool) CallResult {
	if evm.depth > MaxCallDepth {
		return CallResult{GasLeft: gas, Err: ErrMaxCallDepthExceeded}
	}
	if value == nil {
		value = new(uint256.Int)
	}
	if static && !value.IsZero() {
		return CallResult{GasLeft: gas, Err: ErrWriteProtection}
	}
	if !value.IsZero() && evm.Host.GetBalance(caller).Lt(value) {
		return CallResult{GasLeft: gas, Err: ErrInsufficientBalance}
	}

	snapshot := evm.Host.Snapshot()

	pid, isPrecompile := evm.Host.IsPrecompile(addr)
	if !evm.Host.Exist(addr) {
		if !isPrecompile && value.IsZero() && evm.rules.Flags().EIP158EmptyAccounts {
			// Calling a nonexistent account with zero value leaves no trace.
			return CallResult{GasLeft: gas}
		}
		evm.Host.CreateAccount(addr)
	}
	if !value.IsZero() {
		evm.Host.SubBalance(caller, value)
		evm.Host.AddBalance(addr, value)
	}

	var ret []byte
	var err error
	gasLeft := gas
	if isPrecompile {
		res := evm.runPrecompile(pid, input, gas)
		ret, gasLeft, err = res.ReturnData, res.GasLeft, res.Err
	} else {
		code := evm.Host.GetCode(addr)
		if len(code) == 0 {
			return CallResult{GasLeft: gas}
		}

		contract := NewContract(caller, addr, value, gas)
		contract.SetCallCode(evm.Host.GetCodeHash(addr), code)

		if evm.Tracer != nil {
			evm.Tracer.CaptureStart(caller, addr, false, input, gas, value)
		}

		evm.depth++
		ret, err = evm.run(contract, input, static)
		evm.depth--

		if evm.Tracer != nil {
			evm.Tracer.CaptureEnd(ret, gas-contract.Gas, err)
		}
		gasLeft = contract.Gas
	}

	if err != nil {
		evm.Host.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			gasLeft = 0
		}
	}
	return CallResult{ReturnData: ret, GasLeft: gasLeft, Reverted: err == ErrExecutionReverted, Err: err}
}

// runPrecompile defers execution to the Host. A failed precompile is an
// ordinary call failure that consumes all forwarded gas.
func (evm *EVM) runPrecompile(id PrecompileID, input []byte, gas uint64) CallResult {
	out, gasLeft, err := evm.Host.ExecutePrecompile(id, input, gas)
	if err != nil {
		return CallResult{Err: err}
	}
	return CallResult{ReturnData: out, GasLeft: gasLeft}
}

// CallCode executes addr's code in the context of caller's storage and
// address, with the value check run against caller's own balance.
func (evm *EVM) CallCode(caller types.Address, addr types.Address, input []byte, gas uint64, value *uint256.Int) CallResult {
	if evm.depth > MaxCallDepth {
		return CallResult{GasLeft: gas, Err: ErrMaxCallDepthExceeded}
	}
	if value == nil {
		value = new(uint256.Int)
	}
	if !value.IsZero() && evm.Host.GetBalance(caller).Lt(value) {
		return CallResult{GasLeft: gas, Err: ErrInsufficientBalance}
	}

	snapshot := evm.Host.Snapshot()

	if pid, ok := evm.Host.IsPrecompile(addr); ok {
		return evm.runPrecompile(pid, input, gas)
	}

	code := evm.Host.GetCode(addr)
	if len(code) == 0 {
		return CallResult{GasLeft: gas}
	}

	contract := NewContract(caller, caller, value, gas)
	contract.SetCallCode(evm.Host.GetCodeHash(addr), code)

	evm.depth++
	ret, err := evm.run(contract, input, false)
	evm.depth--

	if err != nil {
		evm.Host.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.Gas = 0
		}
	}
	return CallResult{ReturnData: ret, GasLeft: contract.Gas, Reverted: err == ErrExecutionReverted, Err: err}
}

// DelegateCall executes addr's code preserving caller's own caller,
// address, and value.
func (evm *EVM) DelegateCall(originCaller, self, addr types.Address, input []byte, gas uint64, value *uint256.Int) CallResult {
	if evm.depth > MaxCallDepth {
		return CallResult{GasLeft: gas, Err: ErrMaxCallDepthExceeded}
	}

	snapshot := evm.Host.Snapshot()

	if pid, ok := evm.Host.IsPrecompile(addr); ok {
		return evm.runPrecompile(pid, input, gas)
	}

	code := evm.Host.GetCode(addr)
	if len(code) == 0 {
		return CallResult{GasLeft: gas}
	}

	contract := NewContract(originCaller, self, value, gas)
	contract.SetCallCode(evm.Host.GetCodeHash(addr), code)

	evm.depth++
	ret, err := evm.run(contract, input, false)
	evm.depth--

	if err != nil {
		evm.Host.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.Gas = 0
		}
	}
	return CallResult{ReturnData: ret, GasLeft: contract.Gas, Reverted: err == ErrExecutionReverted, Err: err}
}

// StaticCall executes addr's code with writes forbidden for the whole
// (recursive) subtree.
func (evm *EVM) StaticCall(caller types.Address, addr types.Address, input []byte, gas uint64) CallResult {
	return evm.Call(caller, addr, input, gas, new(uint256.Int), true)
}

// Create deploys new contract code computed by running initCode, at the
// address derived from (sender, nonce).
func (evm *EVM) Create(caller types.Address, initCode []byte, gas uint64, value *uint256.Int) (CallResult, types.Address) {
	nonce := evm.Host.GetNonce(caller)
	addr := createAddress(caller, nonce)
	evm.Host.SetNonce(caller, nonce+1)
	res := evm.create(caller, addr, initCode, gas, value)
	return res, addr
}

// Create2 deploys new contract code at the salted, content-addressed
// address keccak256(0xff ++ sender ++ salt ++ keccak256(initCode))[12:]
// (EIP-1014).
func (evm *EVM) Create2(caller types.Address, initCode []byte, gas uint64, value *uint256.Int, salt *uint256.Int) (CallResult, types.Address) {
	addr := create2Address(caller, salt, initCode)
	nonce := evm.Host.GetNonce(caller)
	evm.Host.SetNonce(caller, nonce+1)
	res := evm.create(caller, addr, initCode, gas, value)
	return res, addr
}

func (evm *EVM) create(caller, addr types.Address, initCode []byte, gas uint64, value *uint256.Int) CallResult {
	if evm.depth > MaxCallDepth {
		return CallResult{GasLeft: gas, Err: ErrMaxCallDepthExceeded}
	}
	if value == nil {
		value = new(uint256.Int)
	}
	if !value.IsZero() && evm.Host.GetBalance(caller).Lt(value) {
		return CallResult{GasLeft: gas, Err: ErrInsufficientBalance}
	}
	if evm.rules.Flags().EIP3860 {
		if uint64(len(initCode)) > uint64(MaxInitCodeSizeForFork(evm.rules)) {
			return CallResult{GasLeft: gas, Err: ErrMaxInitCodeSizeExceeded}
		}
	}
	if evm.Host.Exist(addr) && (evm.Host.GetNonce(addr) != 0 || evm.Host.GetCodeSize(addr) != 0) {
		return CallResult{GasLeft: gas, Err: ErrContractAddressCollision}
	}

	snapshot := evm.Host.Snapshot()
	evm.Host.CreateAccount(addr)
	evm.Host.SetNonce(addr, 1)
	evm.Host.SubBalance(caller, value)
	evm.Host.AddBalance(addr, value)

	contract := NewContract(caller, addr, value, gas)
	contract.IsDeployment = true
	contract.SetInitCode(initCode)

	if evm.Tracer != nil {
		evm.Tracer.CaptureStart(caller, addr, true, initCode, gas, value)
	}

	evm.depth++
	ret, err := evm.run(contract, nil, false)
	evm.depth--

	if evm.Tracer != nil {
		evm.Tracer.CaptureEnd(ret, gas-contract.Gas, err)
	}

	if err == nil {
		if evm.rules.Flags().EIP3541 && len(ret) > 0 && ret[0] == 0xEF {
			err = ErrInvalidCodePrefix
		} else if len(ret) > MaxCodeSizeForFork(evm.rules) {
			err = ErrMaxCodeSizeExceeded
		} else {
			createDataGas := uint64(len(ret)) * GasCreateDataByte
			if gasErr := contract.UseGas(createDataGas); gasErr != nil {
				err = gasErr
			} else {
				evm.Host.SetCode(addr, ret)
			}
		}
	}

	if err != nil {
		evm.Host.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.Gas = 0
		}
		if err == ErrExecutionReverted {
			return CallResult{ReturnData: ret, GasLeft: contract.Gas, Reverted: true, Err: err}
		}
		return CallResult{GasLeft: contract.Gas, Err: err}
	}
	return CallResult{ReturnData: ret, GasLeft: contract.Gas}
}

// createAddress computes the CREATE address: keccak256(rlp([sender,
// nonce]))[12:]. The two-element list is the only RLP this package ever
// produces, so it is encoded inline rather than through an rlp dependency.
func createAddress(sender types.Address, nonce uint64) types.Address {
	encoded := rlpEncodeCreateList(sender, nonce)
	return types.BytesToAddress(crypto.Keccak256(encoded))
}

// create2Address computes the CREATE2 address (EIP-1014).
func create2Address(sender types.Address, salt *uint256.Int, initCode []byte) types.Address {
	initCodeHash := crypto.Keccak256(initCode)
	saltBytes := salt.Bytes32()
	data := make([]byte, 0, 1+20+32+32)
	data = append(data, 0xff)
	data = append(data, sender.Bytes()...)
	data = append(data, saltBytes[:]...)
	data = append(data, initCodeHash...)
	return types.BytesToAddress(crypto.Keccak256(data))
}

// rlpEncodeCreateList encodes [sender, nonce] the way CREATE's address
// derivation needs: a minimal two-element RLP list, sender as a 20-byte
// string, nonce as its minimal big-endian encoding (empty string for zero).
func rlpEncodeCreateList(sender types.Address, nonce uint64) []byte {
	addrItem := rlpEncodeString(sender.Bytes())
	nonceItem := rlpEncodeString(rlpMinimalUint(nonce))
	payload := append(append([]byte{}, addrItem...), nonceItem...)
	return append(rlpEncodeListHeader(len(payload)), payload...)
}

func rlpMinimalUint(v uint64) []byte {
	if v == 0 {
		return nil
	}
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
		if v == 0 {
			return buf[i:]
		}
	}
	return buf[:]
}

func rlpEncodeString(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	if len(b) < 56 {
		return append([]byte{byte(0x80 + len(b))}, b...)
	}
	lenBytes := rlpMinimalUint(uint64(len(b)))
	header := append([]byte{byte(0xb7 + len(lenBytes))}, lenBytes...)
	return append(header, b...)
}

func rlpEncodeListHeader(payloadLen int) []byte {
	if payloadLen < 56 {
		return []byte{byte(0xc0 + payloadLen)}
	}
	lenBytes := rlpMinimalUint(uint64(payloadLen))
	return append([]byte{byte(0xf7 + len(lenBytes))}, lenBytes...)
}

// PreWarmAccessList marks the transaction sender, recipient, and every
// address/storage-key pair in an EIP-2930-style access list as warm before
// execution begins (EIP-2929).
func (evm *EVM) PreWarmAccessList(sender, dest types.Address, precompiles []types.Address, list map[types.Address][]types.Hash) {
	if !evm.rules.IsBerlin {
		return
	}
	evm.Host.AddAddressToAccessList(sender)
	evm.Host.AddAddressToAccessList(dest)
	for _, p := range precompiles {
		evm.Host.AddAddressToAccessList(p)
	}
	for addr, slots := range list {
		evm.Host.AddAddressToAccessList(addr)
		for _, s := range slots {
			evm.Host.AddSlotToAccessList(addr, s)
		}
	}
}

// run drives the fetch-decode-execute loop for one call frame: look up the
// operation, check stack bounds, charge constant gas, compute and charge
// dynamic gas including memory expansion, then execute.
func (evm *EVM) run(contract *Contract, input []byte, readOnly bool) ([]byte, error) {
	contract.Input = input

	readOnly = readOnly || evm.readOnly
	prevReadOnly := evm.readOnly
	evm.readOnly = readOnly
	defer func() { evm.readOnly = prevReadOnly }()

	stack := NewStack()
	mem := NewMemory()
	scope := &ScopeContext{Memory: mem, Stack: stack, Contract: contract}
	interp := &Interpreter{evm: evm, table: evm.table, readOnly: readOnly}

	var pc uint64
	for {
		if evm.abort {
			return nil, ErrOutOfGas
		}
		op := contract.GetOp(pc)
		operation := interp.table[op]
		if operation == nil || operation.execute == nil {
			return nil, ErrInvalidOpCode
		}

		if interp.readOnly && isStateModifying(op) {
			return nil, ErrWriteProtection
		}

		if sLen := stack.Len(); sLen < operation.minStack {
			return nil, &StackError{Instruction: op, Wanted: operation.minStack, OnStack: sLen, Overflow: false}
		} else if sLen > operation.maxStack {
			return nil, &StackError{Instruction: op, Wanted: operation.maxStack, OnStack: sLen, Overflow: true}
		}

		gasBefore := contract.Gas

		if operation.constantGas > 0 {
			if err := contract.UseGas(operation.constantGas); err != nil {
				if evm.Tracer != nil {
					evm.Tracer.CaptureFault(pc, op, contract.Gas, operation.constantGas, scope, evm.depth, err)
				}
				return nil, err
			}
		}

		var memSize uint64
		if operation.memorySize != nil {
			size, overflow := operation.memorySize(stack)
			if overflow {
				return nil, ErrOutOfGas
			}
			newSize := memoryWordSize(size) * 32
			if newSize > uint64(mem.Len()) {
				expansionGas, err := gasMemExpansion(mem, newSize)
				if err != nil {
					return nil, err
				}
				if err := contract.UseGas(expansionGas); err != nil {
					return nil, err
				}
				mem.Resize(newSize)
			}
			memSize = newSize
		}

		if operation.dynamicGas != nil {
			dynGas, err := operation.dynamicGas(evm, contract, stack, mem, memSize)
			if err != nil {
				if evm.Tracer != nil {
					evm.Tracer.CaptureFault(pc, op, contract.Gas, dynGas, scope, evm.depth, err)
				}
				return nil, err
			}
			if err := contract.UseGas(dynGas); err != nil {
				if evm.Tracer != nil {
					evm.Tracer.CaptureFault(pc, op, contract.Gas, dynGas, scope, evm.depth, err)
				}
				return nil, err
			}
		}

		if evm.Tracer != nil {
			evm.Tracer.CaptureState(pc, op, gasBefore, gasBefore-contract.Gas, scope, interp.returnData, evm.depth, nil)
		}

		ret, err := operation.execute(&pc, interp, scope)
		if err != nil {
			if err == errStop {
				return nil, nil
			}
			if err == errReturn {
				return interp.returnData, nil
			}
			if err == errRevert {
				return interp.returnData, ErrExecutionReverted
			}
			if evm.Tracer != nil {
				evm.Tracer.CaptureFault(pc, op, contract.Gas, 0, scope, evm.depth, err)
			}
			return nil, err
		}
		_ = ret
		pc++
	}
}

// isStateModifying reports whether op would mutate state, balance, or logs
// and is therefore forbidden in a static context. CALL with nonzero value
// is handled separately in opCall, since staticness there depends on the
// operand.
func isStateModifying(op OpCode) bool {
	switch op {
	case SSTORE, LOG0, LOG1, LOG2, LOG3, LOG4, CREATE, CREATE2, SELFDESTRUCT, TSTORE:
		return true
	default:
		return false
	}
}

// Interpreter drives one call frame's dispatch loop. Kept as a distinct
// type from EVM (which is shared state across the whole call tree) so each
// run() gets its own readOnly flag and return-data scratch space.
type Interpreter struct {
	evm        *EVM
	table      JumpTable
	readOnly   bool
	returnData []byte
}
