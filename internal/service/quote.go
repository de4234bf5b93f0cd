package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/nulln0ne/weighted-estimator/internal/eth"
	"github.com/nulln0ne/weighted-estimator/pkg/weighted"
)

// boneExp scales 18-decimal fixed point pool parameters (weights, swap fee).
const boneExp = -18

// PoolReader reads a consistent snapshot of a weighted pool.
type PoolReader interface {
	Snapshot(ctx context.Context, pool common.Address, tokens ...common.Address) (*eth.Snapshot, error)
}

// QuoteService prices swaps and single-asset joins against live weighted
// pool state.
type QuoteService struct {
	BaseService
	reader PoolReader
}

// NewQuoteService constructs a QuoteService using the provided logger and
// pool reader.
func NewQuoteService(logger *slog.Logger, reader PoolReader) *QuoteService {
	return &QuoteService{
		BaseService: BaseService{logger: logger},
		reader:      reader,
	}
}

// Quote describes a swap of AmountIn src for AmountOut dst. Prices are in
// units of src per unit of dst; PriceImpact is EffectivePrice relative to
// SpotPriceBefore, minus one.
type Quote struct {
	BlockNumber     uint64          `json:"block_number"`
	AmountIn        decimal.Decimal `json:"amount_in"`
	AmountOut       decimal.Decimal `json:"amount_out"`
	SpotPriceBefore decimal.Decimal `json:"spot_price_before"`
	SpotPriceAfter  decimal.Decimal `json:"spot_price_after"`
	EffectivePrice  decimal.Decimal `json:"effective_price"`
	PriceImpact     decimal.Decimal `json:"price_impact"`
}

// pairState is a pool snapshot converted to decimals for one src/dst pair.
type pairState struct {
	block      uint64
	balanceIn  decimal.Decimal
	weightIn   decimal.Decimal
	balanceOut decimal.Decimal
	weightOut  decimal.Decimal
	swapFee    decimal.Decimal
}

// SpotPrice returns the fee-inclusive marginal price of src in terms of dst.
func (s *QuoteService) SpotPrice(ctx context.Context, pool, src, dst common.Address) (decimal.Decimal, error) {
	st, err := s.loadPair(ctx, pool, src, dst)
	if err != nil {
		return decimal.Zero, err
	}

	price, err := weighted.CalcSpotPrice(st.balanceIn, st.weightIn, st.balanceOut, st.weightOut, st.swapFee)
	if err := s.computed("spot_price", err); err != nil {
		return decimal.Zero, err
	}
	s.logger.Debug("spot price computed", "pool", pool.Hex(), "src", src.Hex(), "dst", dst.Hex(), "block", st.block, "price", price.String())
	return price, nil
}

// EstimateOut returns the amount of dst received for amountIn of src, rounded
// down to base units.
func (s *QuoteService) EstimateOut(ctx context.Context, pool, src, dst common.Address, amountIn *big.Int) (*big.Int, error) {
	s.logger.Debug("estimating swap", "pool", pool.Hex(), "src", src.Hex(), "dst", dst.Hex(), "in", amountIn.String())

	st, err := s.loadPair(ctx, pool, src, dst)
	if err != nil {
		return nil, err
	}

	out, err := s.outGivenIn(st, decimal.NewFromBigInt(amountIn, 0))
	if err != nil {
		return nil, err
	}
	amountOut := out.Floor().BigInt()
	s.logger.Debug("amount out computed", "block", st.block, "out", amountOut.String())
	return amountOut, nil
}

// EstimateIn returns the amount of src required to receive amountOut of dst,
// rounded up to base units.
func (s *QuoteService) EstimateIn(ctx context.Context, pool, src, dst common.Address, amountOut *big.Int) (*big.Int, error) {
	s.logger.Debug("estimating reverse swap", "pool", pool.Hex(), "src", src.Hex(), "dst", dst.Hex(), "out", amountOut.String())

	st, err := s.loadPair(ctx, pool, src, dst)
	if err != nil {
		return nil, err
	}

	in, err := weighted.CalcInGivenOut(st.balanceIn, st.weightIn, st.balanceOut, st.weightOut, decimal.NewFromBigInt(amountOut, 0), st.swapFee)
	if err := s.computed("in_given_out", err); err != nil {
		return nil, err
	}
	amountIn := in.Ceil().BigInt()
	s.logger.Debug("amount in computed", "block", st.block, "in", amountIn.String())
	return amountIn, nil
}

// EstimateJoin returns the pool shares minted for depositing amountIn of src
// alone, rounded down to base units.
func (s *QuoteService) EstimateJoin(ctx context.Context, pool, src common.Address, amountIn *big.Int) (*big.Int, error) {
	s.logger.Debug("estimating single-asset join", "pool", pool.Hex(), "src", src.Hex(), "in", amountIn.String())

	snap, err := s.snapshot(ctx, pool, src)
	if err != nil {
		return nil, err
	}
	token := snap.Tokens[src]
	if token.Balance.Sign() == 0 {
		return nil, ErrEmptyReserves
	}

	shares, err := weighted.CalcPoolOutGivenSingleIn(
		decimal.NewFromBigInt(token.Balance, 0),
		decimal.NewFromBigInt(token.DenormWeight, boneExp),
		decimal.NewFromBigInt(snap.TotalSupply, 0),
		decimal.NewFromBigInt(snap.TotalWeight, boneExp),
		decimal.NewFromBigInt(amountIn, 0),
		decimal.NewFromBigInt(snap.SwapFee, boneExp),
	)
	if err := s.computed("pool_out_given_single_in", err); err != nil {
		return nil, err
	}
	poolOut := shares.Floor().BigInt()
	s.logger.Debug("pool out computed", "block", snap.BlockNumber, "shares", poolOut.String())
	return poolOut, nil
}

// Quote prices a swap of amountIn src for dst and reports how the trade moves
// the pool's spot price.
func (s *QuoteService) Quote(ctx context.Context, pool, src, dst common.Address, amountIn *big.Int) (*Quote, error) {
	st, err := s.loadPair(ctx, pool, src, dst)
	if err != nil {
		return nil, err
	}

	in := decimal.NewFromBigInt(amountIn, 0)
	out, err := s.outGivenIn(st, in)
	if err != nil {
		return nil, err
	}
	if out.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount out rounds to zero", ErrTradeNotPossible)
	}

	before, err := weighted.CalcSpotPrice(st.balanceIn, st.weightIn, st.balanceOut, st.weightOut, st.swapFee)
	if err := s.computed("spot_price", err); err != nil {
		return nil, err
	}
	after, err := weighted.CalcSpotPrice(st.balanceIn.Add(in), st.weightIn, st.balanceOut.Sub(out), st.weightOut, st.swapFee)
	if err := s.computed("spot_price", err); err != nil {
		return nil, err
	}
	effective := in.DivRound(out, weighted.Precision)
	impact := effective.DivRound(before, weighted.Precision).Sub(decimal.NewFromInt(1))

	q := &Quote{
		BlockNumber:     st.block,
		AmountIn:        in,
		AmountOut:       out.Floor(),
		SpotPriceBefore: before,
		SpotPriceAfter:  after,
		EffectivePrice:  effective,
		PriceImpact:     impact,
	}
	s.logger.Debug("quote computed", "pool", pool.Hex(), "block", st.block, "out", q.AmountOut.String(), "impact", impact.StringFixed(6))
	return q, nil
}

func (s *QuoteService) outGivenIn(st *pairState, in decimal.Decimal) (decimal.Decimal, error) {
	out, err := weighted.CalcOutGivenIn(st.balanceIn, st.weightIn, st.balanceOut, st.weightOut, in, st.swapFee)
	if err := s.computed("out_given_in", err); err != nil {
		return decimal.Zero, err
	}
	return out, nil
}

func (s *QuoteService) loadPair(ctx context.Context, pool, src, dst common.Address) (*pairState, error) {
	if src == dst {
		return nil, ErrSameToken
	}

	snap, err := s.snapshot(ctx, pool, src, dst)
	if err != nil {
		return nil, err
	}
	in, out := snap.Tokens[src], snap.Tokens[dst]
	if in.Balance.Sign() == 0 || out.Balance.Sign() == 0 {
		return nil, ErrEmptyReserves
	}

	return &pairState{
		block:      snap.BlockNumber,
		balanceIn:  decimal.NewFromBigInt(in.Balance, 0),
		weightIn:   decimal.NewFromBigInt(in.DenormWeight, boneExp),
		balanceOut: decimal.NewFromBigInt(out.Balance, 0),
		weightOut:  decimal.NewFromBigInt(out.DenormWeight, boneExp),
		swapFee:    decimal.NewFromBigInt(snap.SwapFee, boneExp),
	}, nil
}

func (s *QuoteService) snapshot(ctx context.Context, pool common.Address, tokens ...common.Address) (*eth.Snapshot, error) {
	snap, err := s.reader.Snapshot(ctx, pool, tokens...)
	switch {
	case errors.Is(err, eth.ErrNotBound):
		return nil, ErrPairMismatch
	case err != nil:
		return nil, fmt.Errorf("read pool %s: %w", pool.Hex(), err)
	}
	return snap, nil
}
