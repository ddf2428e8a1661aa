// Command evmrun is a thin front-end over github.com/ethcore/evm/core/vm: it
// loads a hex-encoded code blob and calldata from flags, runs them against an
// in-memory Host, and prints the resulting FinishedApply as JSON. It is
// deliberately not a JSON state-test runner, just enough of a CLI to
// exercise the package as a library.
//
// Usage:
//
//	evmrun -code 0x6001600101600055 -input 0x -gas 100000
//
// Flags:
//
//	-code      hex-encoded contract/init code to run (0x-prefixed)
//	-input     hex-encoded calldata (default: 0x)
//	-gas       gas allowance for the call (default: 1000000)
//	-value     wei value sent with the call, decimal (default: 0)
//	-create    run code as CREATE init code instead of a message call
//	-fork      fork name: frontier, byzantium, istanbul, berlin, london,
//	           shanghai, cancun, prague (default: prague)
//	-chainid   CHAINID opcode value, decimal (default: 1)
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/ethcore/evm/core/types"
	"github.com/ethcore/evm/core/vm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code; kept separate from
// main so it can be exercised in isolation.
func run(args []string) int {
	fs := flag.NewFlagSet("evmrun", flag.ContinueOnError)
	codeHex := fs.String("code", "0x", "hex-encoded contract/init code to run")
	inputHex := fs.String("input", "0x", "hex-encoded calldata")
	gas := fs.Uint64("gas", 1_000_000, "gas allowance for the call")
	valueDec := fs.Uint64("value", 0, "wei value sent with the call")
	create := fs.Bool("create", false, "run code as CREATE init code")
	fork := fs.String("fork", "prague", "fork name selecting the jump table/gas schedule")
	chainID := fs.Uint64("chainid", 1, "CHAINID opcode value")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	code, err := hexutil.Decode(*codeHex)
	if err != nil {
		log.Printf("invalid -code: %v", err)
		return 1
	}
	input, err := hexutil.Decode(*inputHex)
	if err != nil {
		log.Printf("invalid -input: %v", err)
		return 1
	}

	rules, ok := forkRules(*fork)
	if !ok {
		log.Printf("unknown -fork %q", *fork)
		return 1
	}

	host := newMemHost()
	sender := types.HexToAddress("0x00000000000000000000000000000000000a11ce")
	target := types.HexToAddress("0x000000000000000000000000000000000000c0de")
	host.CreateAccount(sender)
	host.AddBalance(sender, uint256.NewInt(1<<62))

	evm := vm.NewEVM(vm.BlockContext{
		GetHash:  func(uint64) types.Hash { return types.Hash{} },
		GasLimit: 30_000_000,
	}, vm.TxContext{Origin: sender}, host, rules, uint256.NewInt(*chainID))

	value := uint256.NewInt(*valueDec)

	var result vm.FinishedApply
	if *create {
		params := vm.ExecutionParams{CallType: vm.CallTypeCreate}
		result = vm.Apply(evm, params, sender, types.Address{}, code, *gas, value)
	} else {
		host.CreateAccount(target)
		host.SetCode(target, code)
		params := vm.ExecutionParams{CallType: vm.CallTypeCall}
		result = vm.Apply(evm, params, sender, target, input, *gas, value)
	}

	out, err := json.MarshalIndent(resultView{
		Status:  result.Status.String(),
		Output:  hexutil.Encode(result.Output),
		GasLeft: result.GasLeft,
		Refund:  result.Refund,
		Error:   errString(result.Err),
	}, "", "  ")
	if err != nil {
		log.Printf("marshal result: %v", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}

// resultView is FinishedApply's JSON-friendly shape (hex output, string
// status/error) rather than FinishedApply itself, which carries a raw error
// value and an enum.
type resultView struct {
	Status  string `json:"status"`
	Output  string `json:"output"`
	GasLeft uint64 `json:"gas_left"`
	Refund  int64  `json:"refund"`
	Error   string `json:"error,omitempty"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func forkRules(name string) (vm.ForkRules, bool) {
	r := vm.ForkRules{}
	switch name {
	case "prague":
		r.IsPrague = true
		fallthrough
	case "cancun":
		r.IsCancun = true
		fallthrough
	case "shanghai":
		r.IsShanghai = true
		fallthrough
	case "merge":
		r.IsMerge = true
		fallthrough
	case "london":
		r.IsLondon = true
		fallthrough
	case "berlin":
		r.IsBerlin = true
		fallthrough
	case "istanbul":
		r.IsIstanbul = true
		fallthrough
	case "constantinople":
		r.IsConstantinople = true
		fallthrough
	case "byzantium":
		r.IsByzantium = true
		fallthrough
	case "spuriousdragon":
		r.IsSpuriousDragon = true
		fallthrough
	case "tangerine":
		r.IsTangerine = true
		fallthrough
	case "homestead":
		r.IsHomestead = true
		fallthrough
	case "frontier":
		return r, true
	default:
		return vm.ForkRules{}, false
	}
}
