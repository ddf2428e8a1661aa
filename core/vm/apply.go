package vm

import (
	"github.com/holiman/uint256"

	"github.com/ethcore/evm/core/types"
)

// Status classifies how a frame terminated.
type Status int

const (
	StatusSuccess Status = iota
	StatusRevert
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRevert:
		return "revert"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// FinishedApply is the single result shape every entry point into this
// package ultimately produces: terminal status, return data, gas left, and
// the transaction-wide refund counter. The EVM.Call family returns the
// finer-grained CallResult; Apply translates one into the other so drivers
// don't have to.
type FinishedApply struct {
	Status  Status
	Output  []byte
	GasLeft uint64
	Refund  int64
	Err     error
}

// Apply is the package's top-level entry point: given ExecutionParams
// describing how the frame was entered, it dispatches to the
// matching EVM.Call/CallCode/DelegateCall/StaticCall/Create/Create2 method
// and translates the result into FinishedApply. The ExecutionParams.Depth
// field is informational only here; evm.depth is the authoritative call
// depth, incremented by the dispatched method itself; a driver assembling
// the very first (depth-0) frame of a transaction should leave it at 0.
func Apply(evm *EVM, params ExecutionParams, caller, addr types.Address, input []byte, gas uint64, value *uint256.Int) FinishedApply {
	var res CallResult
	var createdAddr types.Address

	switch params.CallType {
	case CallTypeCall:
		res = evm.Call(caller, addr, input, gas, value, params.StaticFlag)
	case CallTypeCallCode:
		res = evm.CallCode(caller, addr, input, gas, value)
	case CallTypeDelegateCall:
		res = evm.DelegateCall(caller, addr, addr, input, gas, value)
	case CallTypeStaticCall:
		res = evm.StaticCall(caller, addr, input, gas)
	case CallTypeCreate:
		res, createdAddr = evm.Create(caller, input, gas, value)
	case CallTypeCreate2:
		salt := params.Salt
		if salt == nil {
			salt = new(uint256.Int)
		}
		res, createdAddr = evm.Create2(caller, input, gas, value, salt)
	default:
		return FinishedApply{Status: StatusError, Err: ErrInternal}
	}
	_ = createdAddr // recoverable via the Host's Exist/GetCode once Apply returns; CallResult has no address slot

	out := FinishedApply{Output: res.ReturnData, GasLeft: res.GasLeft, Refund: int64(evm.Host.GetRefund())}
	switch {
	case res.Err == nil:
		out.Status = StatusSuccess
	case res.Reverted:
		out.Status = StatusRevert
		out.Err = res.Err
	default:
		out.Status = StatusError
		out.Err = res.Err
	}
	return out
}
