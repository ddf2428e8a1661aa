package vm

import "github.com/ethcore/evm/core/types"

// EVMLogger is an optional per-step execution hook for debugging and
// tracing tools built on top of this package.
type EVMLogger interface {
	CaptureStart(from, to types.Address, create bool, input []byte, gas uint64, value *Word)
	CaptureState(pc uint64, op OpCode, gas, cost uint64, scope *ScopeContext, rData []byte, depth int, err error)
	CaptureEnd(output []byte, gasUsed uint64, err error)
	CaptureFault(pc uint64, op OpCode, gas, cost uint64, scope *ScopeContext, depth int, err error)
}

// NoopTracer implements EVMLogger with no-ops; the zero value of EVM.Tracer
// being nil already skips all hooks, so this exists purely for callers that
// want an explicit, swappable no-op rather than a nil check of their own.
type NoopTracer struct{}

func (NoopTracer) CaptureStart(from, to types.Address, create bool, input []byte, gas uint64, value *Word) {
}
func (NoopTracer) CaptureState(pc uint64, op OpCode, gas, cost uint64, scope *ScopeContext, rData []byte, depth int, err error) {
}
func (NoopTracer) CaptureEnd(output []byte, gasUsed uint64, err error) {}
func (NoopTracer) CaptureFault(pc uint64, op OpCode, gas, cost uint64, scope *ScopeContext, depth int, err error) {
}
