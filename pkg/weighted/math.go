// Package weighted implements pricing and liquidity math for weighted
// constant-product pools, where prod(balance_i ^ weight_i) stays constant
// across swaps.
//
// All functions are pure and safe for concurrent use. Inputs and results are
// exact decimals; quotients and powers are rounded half away from zero to
// Precision fractional digits and results are returned at that precision.
// Invalid inputs fail with ErrInvalidDomainInput, never with a distorted
// result.
package weighted

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CalcSpotPrice returns the marginal price of tokenIn in terms of tokenOut,
// including the swap fee:
//
//	(balanceIn / weightIn) / (balanceOut / weightOut) * 1 / (1 - swapFee)
func CalcSpotPrice(
	tokenBalanceIn, tokenWeightIn,
	tokenBalanceOut, tokenWeightOut,
	swapFee decimal.Decimal,
) (decimal.Decimal, error) {
	if err := firstErr(
		requirePositive("tokenBalanceIn", tokenBalanceIn),
		requirePositive("tokenWeightIn", tokenWeightIn),
		requirePositive("tokenBalanceOut", tokenBalanceOut),
		requirePositive("tokenWeightOut", tokenWeightOut),
		requireSwapFee(swapFee),
	); err != nil {
		return decimal.Zero, err
	}

	number := tokenBalanceIn.DivRound(tokenWeightIn, Precision)
	denom := tokenBalanceOut.DivRound(tokenWeightOut, Precision)
	scale := one.DivRound(one.Sub(swapFee), Precision)

	return number.DivRound(denom, Precision).Mul(scale).Round(Precision), nil
}

// CalcOutGivenIn returns the amount of tokenOut received for tokenAmountIn.
// The fee is taken from the input before the invariant is applied:
//
//	y   = balanceIn / (balanceIn + amountIn * (1 - swapFee))
//	out = balanceOut * (1 - y ^ (weightIn / weightOut))
func CalcOutGivenIn(
	tokenBalanceIn, tokenWeightIn,
	tokenBalanceOut, tokenWeightOut,
	tokenAmountIn, swapFee decimal.Decimal,
) (decimal.Decimal, error) {
	if err := firstErr(
		requirePositive("tokenBalanceIn", tokenBalanceIn),
		requirePositive("tokenWeightIn", tokenWeightIn),
		requireNonNegative("tokenBalanceOut", tokenBalanceOut),
		requirePositive("tokenWeightOut", tokenWeightOut),
		requireNonNegative("tokenAmountIn", tokenAmountIn),
		requireSwapFee(swapFee),
	); err != nil {
		return decimal.Zero, err
	}

	weightRatio := tokenWeightIn.DivRound(tokenWeightOut, Precision)
	adjustedIn := one.Sub(swapFee)
	adjustedIn = tokenAmountIn.Mul(adjustedIn)
	y := tokenBalanceIn.DivRound(tokenBalanceIn.Add(adjustedIn), Precision)
	foo, err := Pow(y, weightRatio)
	if err != nil {
		return decimal.Zero, fmt.Errorf("out given in: %w", err)
	}
	bar := one.Sub(foo)
	return tokenBalanceOut.Mul(bar).Round(Precision), nil
}

// CalcInGivenOut returns the amount of tokenIn required to receive
// tokenAmountOut, the inverse of CalcOutGivenIn:
//
//	y  = balanceOut / (balanceOut - amountOut)
//	in = balanceIn * (y ^ (weightOut / weightIn) - 1) / (1 - swapFee)
//
// tokenAmountOut must be strictly less than tokenBalanceOut, otherwise
// ErrInvariantViolation is returned.
func CalcInGivenOut(
	tokenBalanceIn, tokenWeightIn,
	tokenBalanceOut, tokenWeightOut,
	tokenAmountOut, swapFee decimal.Decimal,
) (decimal.Decimal, error) {
	if err := firstErr(
		requireNonNegative("tokenBalanceIn", tokenBalanceIn),
		requirePositive("tokenWeightIn", tokenWeightIn),
		requirePositive("tokenBalanceOut", tokenBalanceOut),
		requirePositive("tokenWeightOut", tokenWeightOut),
		requireNonNegative("tokenAmountOut", tokenAmountOut),
		requireSwapFee(swapFee),
	); err != nil {
		return decimal.Zero, err
	}
	if tokenAmountOut.GreaterThanOrEqual(tokenBalanceOut) {
		return decimal.Zero, fmt.Errorf("%w: tokenAmountOut %s must be less than tokenBalanceOut %s",
			ErrInvariantViolation, tokenAmountOut, tokenBalanceOut)
	}

	weightRatio := tokenWeightOut.DivRound(tokenWeightIn, Precision)
	diff := tokenBalanceOut.Sub(tokenAmountOut)
	y := tokenBalanceOut.DivRound(diff, Precision)
	foo, err := Pow(y, weightRatio)
	if err != nil {
		return decimal.Zero, fmt.Errorf("in given out: %w", err)
	}
	foo = foo.Sub(one)
	tokenAmountIn := one.Sub(swapFee)
	return tokenBalanceIn.Mul(foo).DivRound(tokenAmountIn, Precision), nil
}

// CalcPoolOutGivenSingleIn returns the pool shares minted for depositing
// tokenAmountIn of a single token. The part of the deposit that would have
// to be swapped into the other tokens, (1 - weightIn/totalWeight), pays the
// swap fee:
//
//	w     = weightIn / totalWeight
//	in'   = amountIn * (1 - (1 - w) * swapFee)
//	ratio = (balanceIn + in') / balanceIn
//	out   = poolSupply * ratio^w - poolSupply
func CalcPoolOutGivenSingleIn(
	tokenBalanceIn, tokenWeightIn,
	poolSupply, totalWeight,
	tokenAmountIn, swapFee decimal.Decimal,
) (decimal.Decimal, error) {
	if err := firstErr(
		requirePositive("tokenBalanceIn", tokenBalanceIn),
		requirePositive("tokenWeightIn", tokenWeightIn),
		requireNonNegative("poolSupply", poolSupply),
		requirePositive("totalWeight", totalWeight),
		requireNonNegative("tokenAmountIn", tokenAmountIn),
		requireSwapFee(swapFee),
	); err != nil {
		return decimal.Zero, err
	}
	if tokenWeightIn.GreaterThan(totalWeight) {
		return decimal.Zero, fmt.Errorf("%w: tokenWeightIn %s exceeds totalWeight %s",
			ErrInvalidDomainInput, tokenWeightIn, totalWeight)
	}

	normalizedWeight := tokenWeightIn.DivRound(totalWeight, Precision)
	zaz := one.Sub(normalizedWeight).Mul(swapFee)
	tokenAmountInAfterFee := tokenAmountIn.Mul(one.Sub(zaz))

	newTokenBalanceIn := tokenBalanceIn.Add(tokenAmountInAfterFee)
	tokenInRatio := newTokenBalanceIn.DivRound(tokenBalanceIn, Precision)

	poolRatio, err := Pow(tokenInRatio, normalizedWeight)
	if err != nil {
		return decimal.Zero, fmt.Errorf("pool out given single in: %w", err)
	}
	newPoolSupply := poolRatio.Mul(poolSupply)
	return newPoolSupply.Sub(poolSupply).Round(Precision), nil
}
