package vm

import "github.com/holiman/uint256"

// stackLimit is the maximum number of elements on the EVM operand stack.
const stackLimit = 1024

// Stack is the EVM operand stack: a fixed-capacity LIFO of 256-bit Words.
type Stack struct {
	data []*uint256.Int
}

// NewStack returns a new empty stack with headroom for common call depths.
func NewStack() *Stack {
	return &Stack{data: make([]*uint256.Int, 0, 16)}
}

// Len returns the number of items on the stack.
func (st *Stack) Len() int { return len(st.data) }

// Push pushes a value onto the stack. Callers (the jump table's stack-height
// precondition check) are responsible for rejecting pushes that would
// exceed stackLimit before calling Push; Push itself never overflows silently
// because the dispatch loop's minStack/maxStack check runs first.
func (st *Stack) Push(val *uint256.Int) {
	st.data = append(st.data, val)
}

// Pop removes and returns the top element.
func (st *Stack) Pop() *uint256.Int {
	n := len(st.data) - 1
	v := st.data[n]
	st.data[n] = nil
	st.data = st.data[:n]
	return v
}

// Peek returns the top element without removing it.
func (st *Stack) Peek() *uint256.Int {
	return st.data[len(st.data)-1]
}

// Back returns the nth element from the top (0-indexed: 0 = top).
func (st *Stack) Back(n int) *uint256.Int {
	return st.data[len(st.data)-1-n]
}

// Swap swaps the top element with the nth element from the top (n in
// [1,16] for SWAP1..SWAP16, enforced by the jump table's minStack, not here).
func (st *Stack) Swap(n int) {
	top := len(st.data) - 1
	st.data[top], st.data[top-n] = st.data[top-n], st.data[top]
}

// Dup duplicates the nth element from the top (1-indexed: 1 = top) and
// pushes the copy (n in [1,16] for DUP1..DUP16).
func (st *Stack) Dup(n int) {
	val := new(uint256.Int).Set(st.data[len(st.data)-n])
	st.data = append(st.data, val)
}

// Data returns the underlying stack slice, bottom to top. Used by tracers.
func (st *Stack) Data() []*uint256.Int { return st.data }

// reset empties the stack for reuse across frames in the same goroutine.
func (st *Stack) reset() { st.data = st.data[:0] }
