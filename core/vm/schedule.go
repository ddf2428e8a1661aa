package vm

// ForkRules mirrors the chain configuration's fork-activation flags needed
// to select the correct jump table and gas schedule.
type ForkRules struct {
	IsHomestead      bool
	IsTangerine      bool // EIP-150
	IsSpuriousDragon bool // EIP-158/161
	IsByzantium      bool
	IsConstantinople bool
	IsIstanbul       bool
	IsBerlin         bool // EIP-2929/2930
	IsLondon         bool // EIP-1559/3529/3541/3554
	IsMerge          bool
	IsShanghai       bool // EIP-3855 PUSH0
	IsCancun         bool // EIP-1153/4844/5656/7516
	IsPrague         bool
}

// SchedFlags are the boolean feature bits that actually change interpreter
// code paths, as opposed to pure gas repricings.
type SchedFlags struct {
	HaveDelegateCall    bool
	HaveCreate2         bool
	HaveReturn          bool
	HaveRevert          bool
	HaveStaticCall      bool
	HaveChainID         bool
	HaveExtCodeHash     bool
	HaveBitwiseShifting bool
	HaveSelfBalance     bool
	HaveBaseFee         bool
	HavePush0           bool
	HaveTransientStorage bool
	HaveMcopy           bool
	HaveBlobHash        bool
	HaveBlobBaseFee     bool
	EIP2929             bool // cold/warm access lists
	EIP3529             bool // refund cap tightened, SELFDESTRUCT refund removed
	EIP3541             bool // reject 0xEF-prefixed deployed code
	EIP3860             bool // init-code size limit + per-word gas
	EIP158EmptyAccounts bool // empty account pruning changes Call's account-creation rule
}

// Flags derives the feature-bit view of r.
func (r ForkRules) Flags() SchedFlags {
	return SchedFlags{
		HaveDelegateCall:     r.IsHomestead,
		HaveCreate2:          r.IsConstantinople,
		HaveReturn:           true,
		HaveRevert:           r.IsByzantium,
		HaveStaticCall:       r.IsByzantium,
		HaveChainID:          r.IsIstanbul,
		HaveExtCodeHash:      r.IsConstantinople,
		HaveBitwiseShifting:  r.IsConstantinople,
		HaveSelfBalance:      r.IsIstanbul,
		HaveBaseFee:          r.IsLondon,
		HavePush0:            r.IsShanghai,
		HaveTransientStorage: r.IsCancun,
		HaveMcopy:            r.IsCancun,
		HaveBlobHash:         r.IsCancun,
		HaveBlobBaseFee:      r.IsCancun,
		EIP2929:              r.IsBerlin,
		EIP3529:              r.IsLondon,
		EIP3541:              r.IsLondon,
		EIP3860:              r.IsShanghai,
		EIP158EmptyAccounts:  r.IsSpuriousDragon,
	}
}

// MaxCodeSizeForFork returns the max deployable contract code size, a
// single constant (EIP-170, 24576) across the whole supported fork range.
func MaxCodeSizeForFork(r ForkRules) int { return MaxCodeSize }

// MaxInitCodeSizeForFork returns the max CREATE/CREATE2 init code size:
// unbounded before EIP-3860 (Shanghai), 2*MaxCodeSize after.
func MaxInitCodeSizeForFork(r ForkRules) int {
	if r.Flags().EIP3860 {
		return MaxInitCodeSize
	}
	return 1<<31 - 1
}

// SelectJumpTable returns the correct jump table for the given fork rules.
func SelectJumpTable(rules ForkRules) JumpTable {
	switch {
	case rules.IsPrague:
		return NewPragueJumpTable()
	case rules.IsCancun:
		return NewCancunJumpTable()
	case rules.IsShanghai:
		return NewShanghaiJumpTable()
	case rules.IsMerge:
		return NewMergeJumpTable()
	case rules.IsLondon:
		return NewLondonJumpTable()
	case rules.IsBerlin:
		return NewBerlinJumpTable()
	case rules.IsIstanbul:
		return NewIstanbulJumpTable()
	case rules.IsConstantinople:
		return NewConstantinopleJumpTable()
	case rules.IsByzantium:
		return NewByzantiumJumpTable()
	case rules.IsSpuriousDragon:
		return NewSpuriousDragonJumpTable()
	case rules.IsTangerine:
		return NewTangerineWhistleJumpTable()
	case rules.IsHomestead:
		return NewHomesteadJumpTable()
	default:
		return NewFrontierJumpTable()
	}
}
