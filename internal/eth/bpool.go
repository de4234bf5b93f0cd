package eth

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	concpool "github.com/sourcegraph/conc/pool"

	"github.com/nulln0ne/weighted-estimator/internal/metrics"
)

// BPool functions used by the estimator. Weights and swap fee are 18-decimal
// fixed point (BONE = 1e18).
const bpoolABIJSON = `[
	{"constant":true,"inputs":[{"name":"t","type":"address"}],"name":"isBound","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"token","type":"address"}],"name":"getBalance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"token","type":"address"}],"name":"getDenormalizedWeight","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"getTotalDenormalizedWeight","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"getSwapFee","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"tokenBalanceIn","type":"uint256"},{"name":"tokenWeightIn","type":"uint256"},{"name":"tokenBalanceOut","type":"uint256"},{"name":"tokenWeightOut","type":"uint256"},{"name":"tokenAmountIn","type":"uint256"},{"name":"swapFee","type":"uint256"}],"name":"calcOutGivenIn","outputs":[{"name":"tokenAmountOut","type":"uint256"}],"stateMutability":"pure","type":"function"}
]`

// BPoolABI is the parsed ABI fragment of a Balancer weighted pool.
var BPoolABI = mustParseABI(bpoolABIJSON)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("parse bpool abi: %v", err))
	}
	return parsed
}

// maxInflightCalls bounds concurrent eth_call requests per snapshot.
const maxInflightCalls = 8

// Backend is the subset of *ethclient.Client used to read pool state.
type Backend interface {
	BlockNumber(ctx context.Context) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TokenState is the raw on-chain state of one bound token.
type TokenState struct {
	Balance      *big.Int
	DenormWeight *big.Int
}

// Snapshot is the raw state of a pool read at a single block.
type Snapshot struct {
	Pool        common.Address
	BlockNumber uint64
	Tokens      map[common.Address]TokenState
	TotalWeight *big.Int
	SwapFee     *big.Int
	TotalSupply *big.Int
}

// BPool reads Balancer-style weighted pools through eth_call.
type BPool struct {
	backend Backend
}

func NewBPool(backend Backend) *BPool {
	return &BPool{backend: backend}
}

// Snapshot reads the state of pool for the given tokens at the latest block.
// All reads are pinned to the same block so balances and weights are
// consistent with each other. Tokens not bound to the pool yield ErrNotBound.
func (b *BPool) Snapshot(ctx context.Context, pool common.Address, tokens ...common.Address) (*Snapshot, error) {
	timer := metrics.PoolReadTimer("snapshot")
	defer timer.ObserveDuration()

	bn, err := b.backend.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("block number: %w", err)
	}
	block := new(big.Int).SetUint64(bn)

	if err := b.checkBound(ctx, pool, block, tokens); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Pool:        pool,
		BlockNumber: bn,
		Tokens:      make(map[common.Address]TokenState, len(tokens)),
	}
	states := make([]TokenState, len(tokens))

	p := newCallPool(ctx)
	p.Go(func(ctx context.Context) (err error) {
		snap.TotalWeight, err = b.callUint(ctx, pool, block, "getTotalDenormalizedWeight")
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		snap.SwapFee, err = b.callUint(ctx, pool, block, "getSwapFee")
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		snap.TotalSupply, err = b.callUint(ctx, pool, block, "totalSupply")
		return err
	})
	for i, token := range tokens {
		i, token := i, token
		p.Go(func(ctx context.Context) (err error) {
			states[i].Balance, err = b.callUint(ctx, pool, block, "getBalance", token)
			return err
		})
		p.Go(func(ctx context.Context) (err error) {
			states[i].DenormWeight, err = b.callUint(ctx, pool, block, "getDenormalizedWeight", token)
			return err
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	for i, token := range tokens {
		snap.Tokens[token] = states[i]
	}
	return snap, nil
}

// CalcOutGivenIn evaluates the pool contract's own pure calcOutGivenIn.
func (b *BPool) CalcOutGivenIn(ctx context.Context, pool common.Address, balanceIn, weightIn, balanceOut, weightOut, amountIn, swapFee *big.Int) (*big.Int, error) {
	return b.callUint(ctx, pool, nil, "calcOutGivenIn", balanceIn, weightIn, balanceOut, weightOut, amountIn, swapFee)
}

func (b *BPool) checkBound(ctx context.Context, pool common.Address, block *big.Int, tokens []common.Address) error {
	bound := make([]bool, len(tokens))
	p := newCallPool(ctx)
	for i, token := range tokens {
		i, token := i, token
		p.Go(func(ctx context.Context) error {
			values, err := b.call(ctx, pool, block, "isBound", token)
			if err != nil {
				return err
			}
			ok, isBool := values[0].(bool)
			if !isBool {
				return fmt.Errorf("isBound: unexpected output type %T", values[0])
			}
			bound[i] = ok
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	for i, ok := range bound {
		if !ok {
			return fmt.Errorf("%w: token %s, pool %s", ErrNotBound, tokens[i].Hex(), pool.Hex())
		}
	}
	return nil
}

func newCallPool(ctx context.Context) *concpool.ContextPool {
	return concpool.New().
		WithMaxGoroutines(maxInflightCalls).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
}

func (b *BPool) callUint(ctx context.Context, pool common.Address, block *big.Int, method string, args ...interface{}) (*big.Int, error) {
	values, err := b.call(ctx, pool, block, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output type %T", method, values[0])
	}
	return v, nil
}

func (b *BPool) call(ctx context.Context, pool common.Address, block *big.Int, method string, args ...interface{}) ([]interface{}, error) {
	input, err := BPoolABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	out, err := b.backend.CallContract(ctx, ethereum.CallMsg{To: &pool, Data: input}, block)
	if err != nil {
		return nil, fmt.Errorf("eth_call %s (pool %s, block %s): %w", method, pool.Hex(), block, err)
	}

	values, err := BPoolABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s: unexpected outputs: %d", method, len(values))
	}
	return values, nil
}
