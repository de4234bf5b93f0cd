// Package ethtest provides an in-process Ethereum node that serves BPool view
// calls from in-memory state.
package ethtest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"

	"github.com/nulln0ne/weighted-estimator/internal/eth"
	"github.com/nulln0ne/weighted-estimator/pkg/weighted"
)

var errReverted = errors.New("execution reverted")

// Token is the state of one bound token.
type Token struct {
	Balance      *big.Int
	DenormWeight *big.Int
}

// Pool is the state of one weighted pool contract.
type Pool struct {
	Tokens      map[common.Address]Token
	TotalWeight *big.Int
	SwapFee     *big.Int
	TotalSupply *big.Int
}

// CallArgs is the eth_call transaction object. Newer clients send calldata
// as "input", older ones as "data".
type CallArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
	Data  hexutil.Bytes   `json:"data"`
}

// Node implements the eth_blockNumber and eth_call methods.
type Node struct {
	Block uint64
	Pools map[common.Address]*Pool

	mu     sync.Mutex
	blocks []string
}

func (n *Node) BlockNumber(ctx context.Context) (hexutil.Uint64, error) {
	return hexutil.Uint64(n.Block), nil
}

func (n *Node) Call(ctx context.Context, args CallArgs, block string) (hexutil.Bytes, error) {
	n.mu.Lock()
	n.blocks = append(n.blocks, block)
	n.mu.Unlock()

	input := args.Input
	if len(input) == 0 {
		input = args.Data
	}
	if args.To == nil || len(input) < 4 {
		return nil, errors.New("invalid call")
	}
	pool, ok := n.Pools[*args.To]
	if !ok {
		return nil, errReverted
	}

	method, err := eth.BPoolABI.MethodById(input[:4])
	if err != nil {
		return nil, err
	}
	in, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, err
	}

	var out interface{}
	switch method.Name {
	case "isBound":
		_, bound := pool.Tokens[in[0].(common.Address)]
		out = bound
	case "getBalance", "getDenormalizedWeight":
		token, bound := pool.Tokens[in[0].(common.Address)]
		if !bound {
			return nil, fmt.Errorf("%w: ERR_NOT_BOUND", errReverted)
		}
		out = token.Balance
		if method.Name == "getDenormalizedWeight" {
			out = token.DenormWeight
		}
	case "getTotalDenormalizedWeight":
		out = pool.TotalWeight
	case "getSwapFee":
		out = pool.SwapFee
	case "totalSupply":
		out = pool.TotalSupply
	case "calcOutGivenIn":
		out, err = calcOutGivenIn(in)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errReverted, err)
		}
	default:
		return nil, fmt.Errorf("unsupported method %s", method.Name)
	}
	return method.Outputs.Pack(out)
}

// calcOutGivenIn serves the pure BPool function from the decimal math, with
// weights and fee in BONE.
func calcOutGivenIn(in []interface{}) (*big.Int, error) {
	units := func(i int) decimal.Decimal { return decimal.NewFromBigInt(in[i].(*big.Int), 0) }
	bone := func(i int) decimal.Decimal { return decimal.NewFromBigInt(in[i].(*big.Int), -18) }

	out, err := weighted.CalcOutGivenIn(units(0), bone(1), units(2), bone(3), units(4), bone(5))
	if err != nil {
		return nil, err
	}
	return out.Floor().BigInt(), nil
}

// Blocks returns the block argument of every eth_call served so far.
func (n *Node) Blocks() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.blocks...)
}

// NewClient serves node under the "eth" namespace of an in-process RPC
// server and returns a client connected to it.
func NewClient(t testing.TB, node *Node) *ethclient.Client {
	t.Helper()
	srv := gethrpc.NewServer()
	if err := srv.RegisterName("eth", node); err != nil {
		t.Fatalf("register rpc service: %v", err)
	}
	t.Cleanup(srv.Stop)
	return ethclient.NewClient(gethrpc.DialInProc(srv))
}

// Bone converts a decimal string to 18-decimal fixed point.
func Bone(s string) *big.Int {
	return decimal.RequireFromString(s).Shift(18).BigInt()
}

// Units parses a base-10 integer.
func Units(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid integer " + s)
	}
	return v
}
