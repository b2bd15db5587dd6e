package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// maxTotalLiquidity caps the liquidity a pool can concentrate across its
// usable ticks; divided evenly it yields the per-tick cap.
var maxTotalLiquidity = decimal.New(1, 30)

// Mirrors the pool-wide tick domain; kept local so the model package does
// not depend on the math package.
const (
	minUsableTick int32 = -443636
	maxUsableTick int32 = 443636
)

// Pool is the aggregate state of one trading pair. Price is derived:
// Price == SqrtPrice^2 after every mutation.
type Pool struct {
	Pair                  string          `json:"pair"`
	Active                bool            `json:"active"`
	Token0                string          `json:"token0"`
	Token1                string          `json:"token1"`
	TickSpacing           int32           `json:"tick_spacing"`
	FeePercentage         decimal.Decimal `json:"fee_percentage"`
	ProtocolFeePercentage decimal.Decimal `json:"protocol_fee_percentage"`
	CurrentTick           int32           `json:"current_tick"`
	SqrtPrice             decimal.Decimal `json:"sqrt_price"`
	Price                 decimal.Decimal `json:"price"`
	Liquidity             decimal.Decimal `json:"liquidity"`
	FeeGrowthGlobal0      decimal.Decimal `json:"fee_growth_global0"`
	FeeGrowthGlobal1      decimal.Decimal `json:"fee_growth_global1"`
	ProtocolFees0         decimal.Decimal `json:"protocol_fees0"`
	ProtocolFees1         decimal.Decimal `json:"protocol_fees1"`
	Volume0               decimal.Decimal `json:"volume0"`
	Volume1               decimal.Decimal `json:"volume1"`
	TxCount               uint64          `json:"tx_count"`
	TotalValueLocked0     decimal.Decimal `json:"total_value_locked0"`
	TotalValueLocked1     decimal.Decimal `json:"total_value_locked1"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// MaxLiquidityPerTick distributes the pool-wide liquidity cap over the
// usable ticks for this pool's spacing.
func (p *Pool) MaxLiquidityPerTick() decimal.Decimal {
	spacing := p.TickSpacing
	if spacing <= 0 {
		spacing = 1
	}
	minCompressed := (minUsableTick / spacing) * spacing / spacing
	maxCompressed := (maxUsableTick / spacing) * spacing / spacing
	numTicks := int64(maxCompressed-minCompressed) + 1
	return maxTotalLiquidity.DivRound(decimal.NewFromInt(numTicks), 16)
}

// UpdateForAddPosition applies a position create to the pool. Liquidity is
// only added when the position's range straddles the current tick; token
// amounts always enter the reserves.
func (p *Pool) UpdateForAddPosition(liquidity decimal.Decimal, inRange bool, amount0, amount1 decimal.Decimal, now time.Time) bool {
	if liquidity.IsNegative() || amount0.IsNegative() || amount1.IsNegative() {
		return false
	}
	if inRange {
		p.Liquidity = p.Liquidity.Add(liquidity)
	}
	if amount0.IsPositive() {
		p.TotalValueLocked0 = p.TotalValueLocked0.Add(amount0)
	}
	if amount1.IsPositive() {
		p.TotalValueLocked1 = p.TotalValueLocked1.Add(amount1)
	}
	p.TxCount++
	p.UpdatedAt = now
	return true
}

// UpdateForClosePosition is the symmetric subtraction, each term floored at
// zero against rounding drift. Never errors: returns false and leaves the
// pool untouched on bad input.
func (p *Pool) UpdateForClosePosition(removedLiquidity, amount0, amount1 decimal.Decimal, now time.Time) bool {
	if removedLiquidity.IsNegative() || amount0.IsNegative() || amount1.IsNegative() {
		return false
	}
	p.Liquidity = clampZero(p.Liquidity.Sub(removedLiquidity))
	p.TotalValueLocked0 = clampZero(p.TotalValueLocked0.Sub(amount0))
	p.TotalValueLocked1 = clampZero(p.TotalValueLocked1.Sub(amount1))
	p.TxCount++
	p.UpdatedAt = now
	return true
}

// UpdateAfterSwap replaces the price-dependent state after a swap walk.
func (p *Pool) UpdateAfterSwap(
	tick int32,
	sqrtPrice decimal.Decimal,
	liquidity decimal.Decimal,
	feeGrowthGlobal0, feeGrowthGlobal1 decimal.Decimal,
	protocolFees0, protocolFees1 decimal.Decimal,
	totalValueLocked0, totalValueLocked1 decimal.Decimal,
	volume0, volume1 decimal.Decimal,
	now time.Time,
) {
	p.CurrentTick = tick
	p.SqrtPrice = sqrtPrice
	p.Price = sqrtPrice.Mul(sqrtPrice)
	p.Liquidity = clampZero(liquidity)
	p.FeeGrowthGlobal0 = feeGrowthGlobal0
	p.FeeGrowthGlobal1 = feeGrowthGlobal1
	p.ProtocolFees0 = protocolFees0
	p.ProtocolFees1 = protocolFees1
	p.TotalValueLocked0 = clampZero(totalValueLocked0)
	p.TotalValueLocked1 = clampZero(totalValueLocked1)
	p.Volume0 = p.Volume0.Add(volume0)
	p.Volume1 = p.Volume1.Add(volume1)
	p.TxCount++
	p.UpdatedAt = now
}

// ResetReserves zeroes both TVL fields. Used when the last unit of
// liquidity leaves the pool and rounding left dust behind.
func (p *Pool) ResetReserves(now time.Time) {
	p.TotalValueLocked0 = decimal.Zero
	p.TotalValueLocked1 = decimal.Zero
	p.UpdatedAt = now
}

// ValidTickSpacing reports whether a tick is a usable boundary for this pool.
func (p *Pool) ValidTickSpacing(tick int32) bool {
	return p.TickSpacing > 0 && tick%p.TickSpacing == 0
}

func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
