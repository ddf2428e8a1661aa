package vm

import (
	"github.com/holiman/uint256"

	"github.com/ethcore/evm/core/types"
	"github.com/ethcore/evm/crypto"
)

// Opcode handlers. Each mutates the frame's stack/memory in place and
// reports frame termination through the errStop/errReturn/errRevert
// sentinels; gas and stack-height preconditions are enforced by the
// dispatch loop before a handler runs.

func opStop(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	return nil, errStop
}

func opAdd(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.Add(x, y)
	return nil, nil
}

func opMul(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.Mul(x, y)
	return nil, nil
}

func opSub(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.Sub(x, y)
	return nil, nil
}

func opDiv(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.Div(x, y)
	return nil, nil
}

func opSdiv(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.SDiv(x, y)
	return nil, nil
}

func opMod(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.Mod(x, y)
	return nil, nil
}

func opSmod(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.SMod(x, y)
	return nil, nil
}

func opAddmod(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y, z := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Peek()
	z.AddMod(x, y, z)
	return nil, nil
}

func opMulmod(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y, z := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Peek()
	z.MulMod(x, y, z)
	return nil, nil
}

func opExp(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	base, exponent := scope.Stack.Pop(), scope.Stack.Peek()
	exponent.Exp(base, exponent)
	return nil, nil
}

func opSignExtend(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	back, num := scope.Stack.Pop(), scope.Stack.Peek()
	result := signExtend(back, num)
	num.Set(result)
	return nil, nil
}

func opLt(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIszero(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.Peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.And(x, y)
	return nil, nil
}

func opOr(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.Or(x, y)
	return nil, nil
}

func opXor(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.Xor(x, y)
	return nil, nil
}

func opNot(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.Peek()
	x.Not(x)
	return nil, nil
}

func opByte(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	th, val := scope.Stack.Pop(), scope.Stack.Peek()
	result := byteAt(th, val)
	val.Set(result)
	return nil, nil
}

func opShl(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.Pop(), scope.Stack.Peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

func opShr(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.Pop(), scope.Stack.Peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

func opSar(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.Pop(), scope.Stack.Peek()
	if !shift.LtUint64(256) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			value.SetAllOne()
		}
		return nil, nil
	}
	n := uint(shift.Uint64())
	value.SRsh(value, n)
	return nil, nil
}

func opKeccak256(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.Pop(), scope.Stack.Peek()
	data := scope.Memory.GetPtr(int64(offset.Uint64()), int64(size.Uint64()))
	hash := crypto.Keccak256(data)
	size.SetBytes(hash)
	return nil, nil
}

func opAddress(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(wordFromBytes(scope.Contract.Address.Bytes()))
	return nil, nil
}

func opBalance(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.Peek()
	addr := types.BytesToAddress(slot.Bytes())
	balance := interp.evm.Host.GetBalance(addr)
	slot.Set(balance)
	return nil, nil
}

func opOrigin(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(wordFromBytes(interp.evm.TxContext.Origin.Bytes()))
	return nil, nil
}

func opCaller(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(wordFromBytes(scope.Contract.CallerAddress.Bytes()))
	return nil, nil
}

func opCallValue(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(new(uint256.Int).Set(scope.Contract.Value()))
	return nil, nil
}

func opCallDataLoad(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.Peek()
	if offset, ok := fitsStack64(x); ok {
		x.SetBytes(getData(scope.Contract.Input, offset, 32))
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCallDataSize(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(wordFromUint64(uint64(len(scope.Contract.Input))))
	return nil, nil
}

func opCallDataCopy(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	memOffset, dataOffset, length := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	dOff, ok := fitsStack64(dataOffset)
	if !ok {
		dOff = ^uint64(0)
	}
	data := getData(scope.Contract.Input, dOff, length.Uint64())
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opCodeSize(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(wordFromUint64(uint64(len(scope.Contract.Code))))
	return nil, nil
}

func opCodeCopy(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	memOffset, codeOffset, length := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	cOff, ok := fitsStack64(codeOffset)
	if !ok {
		cOff = ^uint64(0)
	}
	data := getData(scope.Contract.Code, cOff, length.Uint64())
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opGasprice(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(new(uint256.Int).Set(interp.evm.TxContext.GasPrice))
	return nil, nil
}

func opExtCodeSize(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.Peek()
	addr := types.BytesToAddress(slot.Bytes())
	slot.SetUint64(uint64(interp.evm.Host.GetCodeSize(addr)))
	return nil, nil
}

func opExtCodeCopy(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	addrWord, memOffset, codeOffset, length := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	addr := types.BytesToAddress(addrWord.Bytes())
	code := interp.evm.Host.GetCode(addr)
	cOff, ok := fitsStack64(codeOffset)
	if !ok {
		cOff = ^uint64(0)
	}
	data := getData(code, cOff, length.Uint64())
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

// opExtCodeHash pushes zero for a non-existent account; for any existing
// account, including an empty one, it pushes the Host's code hash, which a
// Host must report as keccak256("") when the account carries no code
// (EIP-1052).
func opExtCodeHash(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.Peek()
	addr := types.BytesToAddress(slot.Bytes())
	if !interp.evm.Host.Exist(addr) {
		slot.Clear()
		return nil, nil
	}
	slot.SetBytes(interp.evm.Host.GetCodeHash(addr).Bytes())
	return nil, nil
}

func opReturnDataSize(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(wordFromUint64(uint64(len(interp.returnData))))
	return nil, nil
}

func opReturnDataCopy(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	memOffset, dataOffset, length := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	offset64, ok := fitsStack64(dataOffset)
	if !ok {
		return nil, ErrReturnDataOutOfBounds
	}
	len64 := length.Uint64()
	end := offset64 + len64
	if end < offset64 || end > uint64(len(interp.returnData)) {
		return nil, ErrReturnDataOutOfBounds
	}
	scope.Memory.Set(memOffset.Uint64(), len64, interp.returnData[offset64:end])
	return nil, nil
}

func opBlockhash(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	num := scope.Stack.Peek()
	if !num.IsUint64() {
		num.Clear()
		return nil, nil
	}
	n := num.Uint64()
	cur := interp.evm.Context.BlockNumber
	if n >= cur || cur-n > 256 {
		num.Clear()
		return nil, nil
	}
	hash := interp.evm.Context.GetHash(n)
	num.SetBytes(hash.Bytes())
	return nil, nil
}

func opCoinbase(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(wordFromBytes(interp.evm.Context.Coinbase.Bytes()))
	return nil, nil
}

func opTimestamp(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(wordFromUint64(interp.evm.Context.Time))
	return nil, nil
}

func opNumber(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(wordFromUint64(interp.evm.Context.BlockNumber))
	return nil, nil
}

// opDifficulty serves both DIFFICULTY (pre-Merge) and PREVRANDAO
// (post-Merge): same opcode byte 0x44, BlockContext carries whichever value
// is semantically correct for the active fork.
func opDifficulty(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	if interp.evm.Context.Random != nil {
		scope.Stack.Push(wordFromBytes(interp.evm.Context.Random.Bytes()))
		return nil, nil
	}
	if interp.evm.Context.Difficulty != nil {
		scope.Stack.Push(new(uint256.Int).Set(interp.evm.Context.Difficulty))
		return nil, nil
	}
	scope.Stack.Push(newWord())
	return nil, nil
}

func opGasLimit(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(wordFromUint64(interp.evm.Context.GasLimit))
	return nil, nil
}

func opChainID(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(new(uint256.Int).Set(interp.evm.ChainID))
	return nil, nil
}

func opSelfBalance(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	balance := interp.evm.Host.GetBalance(scope.Contract.Address)
	scope.Stack.Push(new(uint256.Int).Set(balance))
	return nil, nil
}

func opBaseFee(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	if interp.evm.Context.BaseFee == nil {
		scope.Stack.Push(newWord())
		return nil, nil
	}
	scope.Stack.Push(new(uint256.Int).Set(interp.evm.Context.BaseFee))
	return nil, nil
}

func opBlobHash(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	idx := scope.Stack.Peek()
	hashes := interp.evm.TxContext.BlobHashes
	if i, ok := fitsStack64(idx); ok && i < uint64(len(hashes)) {
		idx.SetBytes(hashes[i].Bytes())
	} else {
		idx.Clear()
	}
	return nil, nil
}

func opBlobBaseFee(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	if interp.evm.Context.BlobBaseFee == nil {
		scope.Stack.Push(newWord())
		return nil, nil
	}
	scope.Stack.Push(new(uint256.Int).Set(interp.evm.Context.BlobBaseFee))
	return nil, nil
}

func opPop(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Pop()
	return nil, nil
}

func opMload(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset := scope.Stack.Peek()
	data := scope.Memory.GetPtr(int64(offset.Uint64()), 32)
	offset.SetBytes(data)
	return nil, nil
}

func opMstore(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, val := scope.Stack.Pop(), scope.Stack.Pop()
	scope.Memory.Set32(offset.Uint64(), val)
	return nil, nil
}

func opMstore8(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, val := scope.Stack.Pop(), scope.Stack.Pop()
	scope.Memory.SetByte(offset.Uint64(), byte(val.Uint64()))
	return nil, nil
}

func opSload(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	loc := scope.Stack.Peek()
	var key types.Hash
	b := loc.Bytes32()
	key.SetBytes(b[:])
	val := interp.evm.Host.GetState(scope.Contract.Address, key)
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opSstore(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	loc, val := scope.Stack.Pop(), scope.Stack.Pop()
	var key, value types.Hash
	lb := loc.Bytes32()
	key.SetBytes(lb[:])
	vb := val.Bytes32()
	value.SetBytes(vb[:])
	interp.evm.Host.SetState(scope.Contract.Address, key, value)
	return nil, nil
}

func opJump(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	dest := scope.Stack.Pop()
	if !scope.Contract.validJumpdest(dest) {
		return nil, ErrInvalidJump
	}
	udest, _ := fitsStack64(dest)
	*pc = udest - 1
	return nil, nil
}

func opJumpi(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	dest, cond := scope.Stack.Pop(), scope.Stack.Pop()
	if !cond.IsZero() {
		if !scope.Contract.validJumpdest(dest) {
			return nil, ErrInvalidJump
		}
		udest, _ := fitsStack64(dest)
		*pc = udest - 1
	}
	return nil, nil
}

func opPc(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(wordFromUint64(*pc))
	return nil, nil
}

func opMsize(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(wordFromUint64(uint64(scope.Memory.Len())))
	return nil, nil
}

func opGas(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(wordFromUint64(scope.Contract.Gas))
	return nil, nil
}

func opJumpdest(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	return nil, nil
}

func opTload(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	loc := scope.Stack.Peek()
	var key types.Hash
	b := loc.Bytes32()
	key.SetBytes(b[:])
	val := interp.evm.Host.GetTransientState(scope.Contract.Address, key)
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opTstore(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	loc, val := scope.Stack.Pop(), scope.Stack.Pop()
	var key, value types.Hash
	lb := loc.Bytes32()
	key.SetBytes(lb[:])
	vb := val.Bytes32()
	value.SetBytes(vb[:])
	interp.evm.Host.SetTransientState(scope.Contract.Address, key, value)
	return nil, nil
}

func opMcopy(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	dst, src, length := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	if length.IsZero() {
		return nil, nil
	}
	data := scope.Memory.GetPtr(int64(src.Uint64()), int64(length.Uint64()))
	scope.Memory.Set(dst.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opPush0(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(newWord())
	return nil, nil
}

// makePush returns a handler pushing the size bytes immediately following
// pc onto the stack, zero-padded on the right if code ends early.
func makePush(size uint64) executionFunc {
	return func(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
		codeLen := uint64(len(scope.Contract.Code))
		start := *pc + 1
		var buf [32]byte
		for i := uint64(0); i < size; i++ {
			if start+i < codeLen {
				buf[i] = scope.Contract.Code[start+i]
			}
		}
		val := new(uint256.Int).SetBytes(buf[:size])
		scope.Stack.Push(val)
		*pc += size
		return nil, nil
	}
}

func makeDup(n int) executionFunc {
	return func(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
		scope.Stack.Dup(n)
		return nil, nil
	}
}

func makeSwap(n int) executionFunc {
	return func(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
		scope.Stack.Swap(n)
		return nil, nil
	}
}

func makeLog(n int) executionFunc {
	return func(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
		offset, size := scope.Stack.Pop(), scope.Stack.Pop()
		topics := make([]types.Hash, n)
		for i := 0; i < n; i++ {
			t := scope.Stack.Pop()
			topics[i] = types.BytesToHash(t.Bytes())
		}
		data := scope.Memory.Get(int64(offset.Uint64()), int64(size.Uint64()))
		interp.evm.Host.AddLog(&types.Log{
			Address: scope.Contract.Address,
			Topics:  topics,
			Data:    data,
		})
		return nil, nil
	}
}

func opCreate(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	value, offset, size := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	input := scope.Memory.GetPtr(int64(offset.Uint64()), int64(size.Uint64()))
	gas := scope.Contract.Gas
	if interp.evm.rules.IsTangerine {
		gas -= gas / CallGasFraction
	}
	if err := scope.Contract.UseGas(gas); err != nil {
		return nil, err
	}

	res, addr := interp.evm.Create(scope.Contract.Address, input, gas, value)
	scope.Contract.Gas += res.GasLeft

	ret := size
	if res.Err != nil && res.Err != ErrExecutionReverted {
		ret.Clear()
	} else {
		ret.SetBytes(addr.Bytes())
	}
	scope.Stack.Push(ret)
	if res.Reverted {
		interp.returnData = res.ReturnData
	} else {
		interp.returnData = nil
	}
	return nil, nil
}

func opCreate2(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	value, offset, size, salt := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	input := scope.Memory.GetPtr(int64(offset.Uint64()), int64(size.Uint64()))
	gas := scope.Contract.Gas
	gas -= gas / CallGasFraction
	if err := scope.Contract.UseGas(gas); err != nil {
		return nil, err
	}

	res, addr := interp.evm.Create2(scope.Contract.Address, input, gas, value, salt)
	scope.Contract.Gas += res.GasLeft

	ret := salt
	if res.Err != nil && res.Err != ErrExecutionReverted {
		ret.Clear()
	} else {
		ret.SetBytes(addr.Bytes())
	}
	scope.Stack.Push(ret)
	if res.Reverted {
		interp.returnData = res.ReturnData
	} else {
		interp.returnData = nil
	}
	return nil, nil
}

func opCall(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	gasWord, addrWord, value := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	inOffset, inSize := scope.Stack.Pop(), scope.Stack.Pop()
	outOffset, outSize := scope.Stack.Pop(), scope.Stack.Pop()

	if interp.readOnly && !value.IsZero() {
		return nil, ErrWriteProtection
	}

	addr := types.BytesToAddress(addrWord.Bytes())
	input := scope.Memory.GetPtr(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	gas, err := callGas(interp.evm.rules, scope.Contract.Gas, 0, gasWord)
	if err != nil {
		return nil, err
	}
	if err := scope.Contract.UseGas(gas); err != nil {
		return nil, err
	}
	// The stipend rides along with the child's gas but is never charged to
	// the caller.
	if !value.IsZero() {
		gas += GasCallStipend
	}

	res := interp.evm.Call(scope.Contract.Address, addr, input, gas, value, interp.readOnly)
	scope.Contract.Gas += res.GasLeft

	interp.returnData = res.ReturnData
	if res.Err == nil || res.Reverted {
		scope.Memory.Set(outOffset.Uint64(), min64(outSize.Uint64(), uint64(len(res.ReturnData))), res.ReturnData)
	}

	ret := outSize
	if res.Err != nil {
		ret.Clear()
	} else {
		ret.SetOne()
	}
	scope.Stack.Push(ret)
	return nil, nil
}

func opCallCode(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	gasWord, addrWord, value := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	inOffset, inSize := scope.Stack.Pop(), scope.Stack.Pop()
	outOffset, outSize := scope.Stack.Pop(), scope.Stack.Pop()

	addr := types.BytesToAddress(addrWord.Bytes())
	input := scope.Memory.GetPtr(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	gas, err := callGas(interp.evm.rules, scope.Contract.Gas, 0, gasWord)
	if err != nil {
		return nil, err
	}
	if err := scope.Contract.UseGas(gas); err != nil {
		return nil, err
	}
	if !value.IsZero() {
		gas += GasCallStipend
	}

	res := interp.evm.CallCode(scope.Contract.Address, addr, input, gas, value)
	scope.Contract.Gas += res.GasLeft

	interp.returnData = res.ReturnData
	if res.Err == nil || res.Reverted {
		scope.Memory.Set(outOffset.Uint64(), min64(outSize.Uint64(), uint64(len(res.ReturnData))), res.ReturnData)
	}

	ret := outSize
	if res.Err != nil {
		ret.Clear()
	} else {
		ret.SetOne()
	}
	scope.Stack.Push(ret)
	return nil, nil
}

func opDelegateCall(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	gasWord, addrWord := scope.Stack.Pop(), scope.Stack.Pop()
	inOffset, inSize := scope.Stack.Pop(), scope.Stack.Pop()
	outOffset, outSize := scope.Stack.Pop(), scope.Stack.Pop()

	addr := types.BytesToAddress(addrWord.Bytes())
	input := scope.Memory.GetPtr(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	gas, err := callGas(interp.evm.rules, scope.Contract.Gas, 0, gasWord)
	if err != nil {
		return nil, err
	}
	if err := scope.Contract.UseGas(gas); err != nil {
		return nil, err
	}

	res := interp.evm.DelegateCall(scope.Contract.CallerAddress, scope.Contract.Address, addr, input, gas, scope.Contract.Value())
	scope.Contract.Gas += res.GasLeft

	interp.returnData = res.ReturnData
	if res.Err == nil || res.Reverted {
		scope.Memory.Set(outOffset.Uint64(), min64(outSize.Uint64(), uint64(len(res.ReturnData))), res.ReturnData)
	}

	ret := outSize
	if res.Err != nil {
		ret.Clear()
	} else {
		ret.SetOne()
	}
	scope.Stack.Push(ret)
	return nil, nil
}

func opStaticCall(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	gasWord, addrWord := scope.Stack.Pop(), scope.Stack.Pop()
	inOffset, inSize := scope.Stack.Pop(), scope.Stack.Pop()
	outOffset, outSize := scope.Stack.Pop(), scope.Stack.Pop()

	addr := types.BytesToAddress(addrWord.Bytes())
	input := scope.Memory.GetPtr(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	gas, err := callGas(interp.evm.rules, scope.Contract.Gas, 0, gasWord)
	if err != nil {
		return nil, err
	}
	if err := scope.Contract.UseGas(gas); err != nil {
		return nil, err
	}

	res := interp.evm.StaticCall(scope.Contract.Address, addr, input, gas)
	scope.Contract.Gas += res.GasLeft

	interp.returnData = res.ReturnData
	if res.Err == nil || res.Reverted {
		scope.Memory.Set(outOffset.Uint64(), min64(outSize.Uint64(), uint64(len(res.ReturnData))), res.ReturnData)
	}

	ret := outSize
	if res.Err != nil {
		ret.Clear()
	} else {
		ret.SetOne()
	}
	scope.Stack.Push(ret)
	return nil, nil
}

func opReturn(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.Pop(), scope.Stack.Pop()
	interp.returnData = scope.Memory.Get(int64(offset.Uint64()), int64(size.Uint64()))
	return nil, errReturn
}

func opRevert(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.Pop(), scope.Stack.Pop()
	interp.returnData = scope.Memory.Get(int64(offset.Uint64()), int64(size.Uint64()))
	return nil, errRevert
}

// opSelfdestruct transfers the contract's entire balance to the given
// recipient and marks the account destroyed. The pre-EIP-3529 refund is
// granted here, not in gasSelfdestruct, since it depends on whether the
// account had already self-destructed this transaction (the refund is
// granted at most once per account per transaction).
func opSelfdestruct(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	beneficiary := scope.Stack.Pop()
	addr := types.BytesToAddress(beneficiary.Bytes())

	balance := interp.evm.Host.GetBalance(scope.Contract.Address)
	if !balance.IsZero() {
		interp.evm.Host.AddBalance(addr, balance)
		interp.evm.Host.SubBalance(scope.Contract.Address, balance)
	}
	alreadyDestructed := interp.evm.Host.HasSelfDestructed(scope.Contract.Address)
	interp.evm.Host.SelfDestruct(scope.Contract.Address)
	if !interp.evm.rules.Flags().EIP3529 && !alreadyDestructed {
		interp.evm.Host.AddRefund(GasSelfdestructRefund)
	}
	return nil, errStop
}

func getData(data []byte, offset, size uint64) []byte {
	out := make([]byte, size)
	if offset >= uint64(len(data)) {
		return out
	}
	end := offset + size
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	copy(out, data[offset:end])
	return out
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
