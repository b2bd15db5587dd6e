package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMaxLiquidityPerTick is returned when a liquidity add would push a
// tick's gross liquidity past the pool's per-tick cap.
var ErrMaxLiquidityPerTick = fmt.Errorf("liquidity exceeds max liquidity per tick")

// Tick holds per-price-point accounting for one pool. Initialized tracks
// whether any position references this tick as a boundary; it must equal
// LiquidityGross > 0 after every mutation.
type Tick struct {
	Pair              string          `json:"pair"`
	Index             int32           `json:"index"`
	LiquidityGross    decimal.Decimal `json:"liquidity_gross"`
	LiquidityNet      decimal.Decimal `json:"liquidity_net"`
	FeeGrowthOutside0 decimal.Decimal `json:"fee_growth_outside0"`
	FeeGrowthOutside1 decimal.Decimal `json:"fee_growth_outside1"`
	Initialized       bool            `json:"initialized"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func NewTick(pair string, index int32, now time.Time) *Tick {
	return &Tick{
		Pair:              pair,
		Index:             index,
		LiquidityGross:    decimal.Zero,
		LiquidityNet:      decimal.Zero,
		FeeGrowthOutside0: decimal.Zero,
		FeeGrowthOutside1: decimal.Zero,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Update applies a liquidity delta to the tick for one position boundary.
// upper selects the boundary side: liquidity net decreases on the upper
// boundary and increases on the lower one, so that summing net liquidity
// across all ticks below a price reconstructs pool liquidity at that price.
// Returns whether the tick flipped initialized state so the caller can
// update the bitmap.
func (t *Tick) Update(
	liquidityDelta decimal.Decimal,
	upper bool,
	maxLiquidity decimal.Decimal,
	currentTick int32,
	feeGrowthGlobal0 decimal.Decimal,
	feeGrowthGlobal1 decimal.Decimal,
	now time.Time,
) (bool, error) {
	grossBefore := t.LiquidityGross
	grossAfter := grossBefore.Add(liquidityDelta)
	if grossAfter.IsNegative() {
		grossAfter = decimal.Zero
	}
	if grossAfter.GreaterThan(maxLiquidity) {
		return false, fmt.Errorf("%w: %s > %s at tick %d", ErrMaxLiquidityPerTick, grossAfter, maxLiquidity, t.Index)
	}

	flipped := grossBefore.IsZero() != grossAfter.IsZero()

	if grossBefore.IsZero() && t.Index <= currentTick {
		// Convention: all growth to date happened below an uninitialized tick.
		t.FeeGrowthOutside0 = feeGrowthGlobal0
		t.FeeGrowthOutside1 = feeGrowthGlobal1
	}

	t.LiquidityGross = grossAfter
	if upper {
		t.LiquidityNet = t.LiquidityNet.Sub(liquidityDelta)
	} else {
		t.LiquidityNet = t.LiquidityNet.Add(liquidityDelta)
	}
	t.Initialized = grossAfter.IsPositive()
	if !t.Initialized {
		t.clear()
	}
	t.UpdatedAt = now

	return flipped, nil
}

// Cross flips the fee-growth-outside accumulators to the other side of the
// tick and returns the net liquidity delta for the caller to apply to pool
// liquidity. Used by the swap walk when price crosses this tick.
func (t *Tick) Cross(feeGrowthGlobal0, feeGrowthGlobal1 decimal.Decimal, now time.Time) decimal.Decimal {
	t.FeeGrowthOutside0 = feeGrowthGlobal0.Sub(t.FeeGrowthOutside0)
	t.FeeGrowthOutside1 = feeGrowthGlobal1.Sub(t.FeeGrowthOutside1)
	t.UpdatedAt = now
	return t.LiquidityNet
}

// clear resets accounting once no position references the tick anymore.
func (t *Tick) clear() {
	t.LiquidityGross = decimal.Zero
	t.LiquidityNet = decimal.Zero
	t.FeeGrowthOutside0 = decimal.Zero
	t.FeeGrowthOutside1 = decimal.Zero
	t.Initialized = false
}

func (t *Tick) Clone() *Tick {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
