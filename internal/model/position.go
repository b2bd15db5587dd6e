package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionStatus is the lifecycle state of a position.
type PositionStatus string

const (
	PositionPending PositionStatus = "pending"
	PositionOpen    PositionStatus = "open"
	PositionClosed  PositionStatus = "closed"
	PositionError   PositionStatus = "error"
)

// Position is one liquidity provider's claim over a price range within a
// pool. Cross-references (pool, accounts) are keys, never pointers.
type Position struct {
	ID                   string          `json:"id"`
	Pair                 string          `json:"pair"`
	Account0Key          string          `json:"account0_key"`
	Account1Key          string          `json:"account1_key"`
	TickLowerIndex       int32           `json:"tick_lower_index"`
	TickUpperIndex       int32           `json:"tick_upper_index"`
	Liquidity            decimal.Decimal `json:"liquidity"`
	Amount0              decimal.Decimal `json:"amount0"`
	Amount1              decimal.Decimal `json:"amount1"`
	Amount0Initial       decimal.Decimal `json:"amount0_initial"`
	Amount1Initial       decimal.Decimal `json:"amount1_initial"`
	Slippage             decimal.Decimal `json:"slippage"`
	FeeGrowthInside0Last decimal.Decimal `json:"fee_growth_inside0_last"`
	FeeGrowthInside1Last decimal.Decimal `json:"fee_growth_inside1_last"`
	TokensOwed0          decimal.Decimal `json:"tokens_owed0"`
	TokensOwed1          decimal.Decimal `json:"tokens_owed1"`
	FeeCollected0        decimal.Decimal `json:"fee_collected0"`
	FeeCollected1        decimal.Decimal `json:"fee_collected1"`
	Withdraw0            decimal.Decimal `json:"withdraw0"`
	Withdraw1            decimal.Decimal `json:"withdraw1"`
	Status               PositionStatus  `json:"status"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	StoppedAt            time.Time       `json:"stopped_at,omitempty"`
}

func (p *Position) IsPending() bool { return p.Status == PositionPending }
func (p *Position) IsOpen() bool    { return p.Status == PositionOpen }

// UpdateAfterCreate records the computed liquidity, the actual settled
// amounts and the fee-growth snapshot taken at creation time.
func (p *Position) UpdateAfterCreate(liquidity, amount0, amount1, feeGrowthInside0, feeGrowthInside1 decimal.Decimal, now time.Time) {
	p.Liquidity = liquidity
	p.Amount0 = amount0
	p.Amount1 = amount1
	p.FeeGrowthInside0Last = feeGrowthInside0
	p.FeeGrowthInside1Last = feeGrowthInside1
	p.UpdatedAt = now
}

// Open finalizes creation. Returns false when the position is not pending.
func (p *Position) Open(now time.Time) bool {
	if p.Status != PositionPending {
		return false
	}
	p.Status = PositionOpen
	p.UpdatedAt = now
	return true
}

// UpdateAfterCollectFee settles accrued fees: the owed amounts move to the
// collected totals and the inside-range snapshot advances. Returns false
// when the position is not open.
func (p *Position) UpdateAfterCollectFee(owed0, owed1, feeGrowthInside0, feeGrowthInside1 decimal.Decimal, now time.Time) bool {
	if p.Status != PositionOpen {
		return false
	}
	p.FeeCollected0 = p.FeeCollected0.Add(owed0)
	p.FeeCollected1 = p.FeeCollected1.Add(owed1)
	p.TokensOwed0 = decimal.Zero
	p.TokensOwed1 = decimal.Zero
	p.FeeGrowthInside0Last = feeGrowthInside0
	p.FeeGrowthInside1Last = feeGrowthInside1
	p.UpdatedAt = now
	return true
}

// Close settles the withdrawal and terminates the position. Returns false
// when the position is not open.
func (p *Position) Close(withdraw0, withdraw1, feeGrowthInside0Last, feeGrowthInside1Last decimal.Decimal, now time.Time) bool {
	if p.Status != PositionOpen {
		return false
	}
	p.Status = PositionClosed
	p.Liquidity = decimal.Zero
	p.Amount0 = decimal.Zero
	p.Amount1 = decimal.Zero
	p.Withdraw0 = withdraw0
	p.Withdraw1 = withdraw1
	p.FeeGrowthInside0Last = feeGrowthInside0Last
	p.FeeGrowthInside1Last = feeGrowthInside1Last
	p.StoppedAt = now
	p.UpdatedAt = now
	return true
}

// MarkError moves the position to its terminal error state.
func (p *Position) MarkError(now time.Time) {
	p.Status = PositionError
	p.UpdatedAt = now
}

func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
