package amm

import (
	"github.com/shopspring/decimal"

	"liquidityEngine/internal/model"
)

// LiquidityForAmounts computes the liquidity a pair of token amounts buys
// over [sqrtLower, sqrtUpper] at the current square-root price. Below the
// range only amount0 binds, at or above it only amount1, and in range the
// smaller of the two single-sided computations wins. Never negative.
func LiquidityForAmounts(sqrtCurrent, sqrtLower, sqrtUpper, amount0, amount1 decimal.Decimal) decimal.Decimal {
	if sqrtLower.GreaterThan(sqrtUpper) {
		sqrtLower, sqrtUpper = sqrtUpper, sqrtLower
	}

	var liquidity decimal.Decimal
	switch {
	case sqrtCurrent.LessThanOrEqual(sqrtLower):
		liquidity = liquidityForAmount0(sqrtLower, sqrtUpper, amount0)
	case sqrtCurrent.LessThan(sqrtUpper):
		liquidity0 := liquidityForAmount0(sqrtCurrent, sqrtUpper, amount0)
		liquidity1 := liquidityForAmount1(sqrtLower, sqrtCurrent, amount1)
		liquidity = decimal.Min(liquidity0, liquidity1)
	default:
		liquidity = liquidityForAmount1(sqrtLower, sqrtUpper, amount1)
	}
	return ClampZero(liquidity)
}

// amount0 = L * (sqrtB - sqrtA) / (sqrtA * sqrtB)  =>  L = amount0 * sqrtA * sqrtB / (sqrtB - sqrtA)
func liquidityForAmount0(sqrtA, sqrtB, amount0 decimal.Decimal) decimal.Decimal {
	width := sqrtB.Sub(sqrtA)
	if !width.IsPositive() {
		return decimal.Zero
	}
	return Normalize(amount0.Mul(sqrtA).Mul(sqrtB).DivRound(width, guardScale))
}

// amount1 = L * (sqrtB - sqrtA)  =>  L = amount1 / (sqrtB - sqrtA)
func liquidityForAmount1(sqrtA, sqrtB, amount1 decimal.Decimal) decimal.Decimal {
	width := sqrtB.Sub(sqrtA)
	if !width.IsPositive() {
		return decimal.Zero
	}
	return Normalize(amount1.DivRound(width, guardScale))
}

// AmountsForLiquidity is the inverse split: the token amounts a liquidity
// value represents over [sqrtLower, sqrtUpper] at the current square-root
// price. Below the range all value sits in token0, above it in token1.
func AmountsForLiquidity(sqrtCurrent, sqrtLower, sqrtUpper, liquidity decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if sqrtLower.GreaterThan(sqrtUpper) {
		sqrtLower, sqrtUpper = sqrtUpper, sqrtLower
	}

	amount0 := decimal.Zero
	amount1 := decimal.Zero
	switch {
	case sqrtCurrent.LessThanOrEqual(sqrtLower):
		amount0 = amount0ForLiquidity(sqrtLower, sqrtUpper, liquidity)
	case sqrtCurrent.LessThan(sqrtUpper):
		amount0 = amount0ForLiquidity(sqrtCurrent, sqrtUpper, liquidity)
		amount1 = amount1ForLiquidity(sqrtLower, sqrtCurrent, liquidity)
	default:
		amount1 = amount1ForLiquidity(sqrtLower, sqrtUpper, liquidity)
	}
	return ClampZero(amount0), ClampZero(amount1)
}

func amount0ForLiquidity(sqrtA, sqrtB, liquidity decimal.Decimal) decimal.Decimal {
	product := sqrtA.Mul(sqrtB)
	if !product.IsPositive() {
		return decimal.Zero
	}
	return Normalize(liquidity.Mul(sqrtB.Sub(sqrtA)).DivRound(product, guardScale))
}

func amount1ForLiquidity(sqrtA, sqrtB, liquidity decimal.Decimal) decimal.Decimal {
	return Normalize(liquidity.Mul(sqrtB.Sub(sqrtA)))
}

// FeeGrowthInside derives the per-unit-liquidity fee growth accrued inside
// [lower, upper] as global minus the growth below the lower boundary and
// above the upper one, read off each boundary tick's fee-growth-outside.
func FeeGrowthInside(
	currentTick int32,
	lower, upper *model.Tick,
	feeGrowthGlobal0, feeGrowthGlobal1 decimal.Decimal,
) (decimal.Decimal, decimal.Decimal) {
	var below0, below1 decimal.Decimal
	if currentTick >= lower.Index {
		below0 = lower.FeeGrowthOutside0
		below1 = lower.FeeGrowthOutside1
	} else {
		below0 = feeGrowthGlobal0.Sub(lower.FeeGrowthOutside0)
		below1 = feeGrowthGlobal1.Sub(lower.FeeGrowthOutside1)
	}

	var above0, above1 decimal.Decimal
	if currentTick < upper.Index {
		above0 = upper.FeeGrowthOutside0
		above1 = upper.FeeGrowthOutside1
	} else {
		above0 = feeGrowthGlobal0.Sub(upper.FeeGrowthOutside0)
		above1 = feeGrowthGlobal1.Sub(upper.FeeGrowthOutside1)
	}

	inside0 := feeGrowthGlobal0.Sub(below0).Sub(above0)
	inside1 := feeGrowthGlobal1.Sub(below1).Sub(above1)
	return inside0, inside1
}
