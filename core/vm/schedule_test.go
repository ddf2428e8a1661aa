package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForkRulesFlags(t *testing.T) {
	frontier := ForkRules{}
	flags := frontier.Flags()
	require.False(t, flags.HaveDelegateCall)
	require.False(t, flags.HaveCreate2)
	require.True(t, flags.HaveReturn) // RETURN exists since Frontier

	byzantium := ForkRules{IsHomestead: true, IsByzantium: true}
	flags = byzantium.Flags()
	require.True(t, flags.HaveDelegateCall)
	require.True(t, flags.HaveRevert)
	require.True(t, flags.HaveStaticCall)
	require.False(t, flags.HaveCreate2)

	cancun := ForkRules{
		IsHomestead: true, IsByzantium: true, IsConstantinople: true,
		IsIstanbul: true, IsBerlin: true, IsLondon: true, IsShanghai: true,
		IsCancun: true,
	}
	flags = cancun.Flags()
	require.True(t, flags.HaveTransientStorage)
	require.True(t, flags.HaveMcopy)
	require.True(t, flags.EIP3860)
	require.True(t, flags.EIP2929)
	require.True(t, flags.EIP3529)
}

func TestMaxInitCodeSizeForFork(t *testing.T) {
	pre3860 := ForkRules{}
	require.Greater(t, MaxInitCodeSizeForFork(pre3860), MaxCodeSize*2)

	post3860 := ForkRules{IsShanghai: true}
	require.Equal(t, MaxInitCodeSize, MaxInitCodeSizeForFork(post3860))
}

func TestSelectJumpTablePicksHighestActiveFork(t *testing.T) {
	rules := ForkRules{IsHomestead: true, IsByzantium: true}
	table := SelectJumpTable(rules)
	require.NotNil(t, table[REVERT], "REVERT should be registered by Byzantium")
	require.NotNil(t, table[STATICCALL], "STATICCALL registers at Byzantium")
	require.Nil(t, table[CREATE2], "CREATE2 only registers at Constantinople")
}

func TestSelectJumpTableFrontierHasNoLaterOpcodes(t *testing.T) {
	table := SelectJumpTable(ForkRules{})
	require.Nil(t, table[REVERT])
	require.Nil(t, table[CREATE2])
	require.NotNil(t, table[SELFDESTRUCT], "SELFDESTRUCT is a Frontier opcode")
}
