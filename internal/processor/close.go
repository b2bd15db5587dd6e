package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"liquidityEngine/internal/amm"
	"liquidityEngine/internal/model"
	"liquidityEngine/internal/store"
)

// CloseProcessor settles and terminates an open position: outstanding fees
// are collected, the range's value returns to the owner accounts and the
// boundary ticks release the position's liquidity.
type CloseProcessor struct {
	deps
}

func NewCloseProcessor(stores store.Stores, logger *zap.Logger) *CloseProcessor {
	return &CloseProcessor{deps: newDeps(stores, logger)}
}

func (p *CloseProcessor) Process(ctx context.Context, positionID string) (*Result, error) {
	result := &Result{}
	if err := p.process(ctx, positionID, result); err != nil {
		result.setError(err.Error())
		return result, err
	}
	return result, nil
}

func (p *CloseProcessor) process(ctx context.Context, positionID string, result *Result) error {
	position, err := p.loadPosition(ctx, positionID)
	if err != nil {
		return err
	}
	result.Position = position

	pool, err := p.loadPool(ctx, position.Pair)
	if err != nil {
		return err
	}

	// Both guard failures are reported together when both hold; the
	// position moves to its terminal error state either way.
	var reasons []string
	if !position.IsOpen() {
		reasons = append(reasons, ErrPositionNotOpen.Error())
	}
	if !pool.Active {
		reasons = append(reasons, ErrPoolInactive.Error())
	}
	if len(reasons) > 0 {
		now := time.Now().UTC()
		position.MarkError(now)
		if err := p.stores.Positions.PutPosition(ctx, position); err != nil {
			p.logger.Error("persist position error state", zap.String("position", position.ID), zap.Error(err))
		}
		return fmt.Errorf("%s", strings.Join(reasons, "; "))
	}

	tickLower, err := p.loadExistingTick(ctx, position.Pair, position.TickLowerIndex)
	if err != nil {
		return err
	}
	tickUpper, err := p.loadExistingTick(ctx, position.Pair, position.TickUpperIndex)
	if err != nil {
		return err
	}
	bitmap, err := p.loadBitmap(ctx, position.Pair)
	if err != nil {
		return err
	}
	account0, err := p.loadAccount(ctx, position.Account0Key)
	if err != nil {
		return err
	}
	account1, err := p.loadAccount(ctx, position.Account1Key)
	if err != nil {
		return err
	}

	// Outstanding fees settle first, folded into the final payout.
	inside0, inside1 := amm.FeeGrowthInside(pool.CurrentTick, tickLower, tickUpper, pool.FeeGrowthGlobal0, pool.FeeGrowthGlobal1)
	owed0 := feesOwed(position.Liquidity, inside0, position.FeeGrowthInside0Last)
	owed1 := feesOwed(position.Liquidity, inside1, position.FeeGrowthInside1Last)

	sqrtCurrent, err := amm.SqrtRatioAtTick(pool.CurrentTick)
	if err != nil {
		return fmt.Errorf("current tick: %w", err)
	}
	sqrtLower, err := amm.SqrtRatioAtTick(position.TickLowerIndex)
	if err != nil {
		return fmt.Errorf("lower tick: %w", err)
	}
	sqrtUpper, err := amm.SqrtRatioAtTick(position.TickUpperIndex)
	if err != nil {
		return fmt.Errorf("upper tick: %w", err)
	}
	withdraw0, withdraw1 := amm.AmountsForLiquidity(sqrtCurrent, sqrtLower, sqrtUpper, position.Liquidity)

	liquidity := position.Liquidity
	now := time.Now().UTC()

	backups := newBackupSet(p.stores)
	backups.addPool(pool)
	backups.addTick(tickLower)
	backups.addTick(tickUpper)
	backups.addBitmap(bitmap)
	backups.addAccount(account0)
	backups.addAccount(account1)
	backups.addPosition(position)

	if !position.UpdateAfterCollectFee(owed0, owed1, inside0, inside1, now) {
		return ErrCollectFeeUpdate
	}

	maxLiquidity := pool.MaxLiquidityPerTick()
	flippedLower, err := tickLower.Update(liquidity.Neg(), false, maxLiquidity, pool.CurrentTick, pool.FeeGrowthGlobal0, pool.FeeGrowthGlobal1, now)
	if err != nil {
		return err
	}
	flippedUpper, err := tickUpper.Update(liquidity.Neg(), true, maxLiquidity, pool.CurrentTick, pool.FeeGrowthGlobal0, pool.FeeGrowthGlobal1, now)
	if err != nil {
		return err
	}
	bitmap.FlipBit(tickLower.Index, flippedLower, tickLower.Initialized, now)
	bitmap.FlipBit(tickUpper.Index, flippedUpper, tickUpper.Initialized, now)

	if !pool.UpdateForClosePosition(liquidity, withdraw0, withdraw1, now) {
		// The pool refused the subtraction; only an empty pool may have its
		// reserves squared away.
		if pool.Liquidity.IsZero() {
			pool.ResetReserves(now)
		}
	}

	if !position.Close(withdraw0, withdraw1, inside0, inside1, now) {
		position.MarkError(now)
		if err := p.stores.Positions.PutPosition(ctx, position); err != nil {
			p.logger.Error("persist position error state", zap.String("position", position.ID), zap.Error(err))
		}
		// The error mark must survive the rollback.
		backups.dropPosition()
		if restoreErr := backups.restore(ctx, p.logger); restoreErr != nil {
			p.logger.Error("rollback after close guard", zap.Error(restoreErr))
		}
		return fmt.Errorf("failed to close position %s", position.ID)
	}

	payout0 := withdraw0.Add(owed0)
	payout1 := withdraw1.Add(owed1)
	if payout0.IsPositive() {
		if err := account0.Credit(payout0, now); err != nil {
			return err
		}
	}
	if payout1.IsPositive() {
		if err := account1.Credit(payout1, now); err != nil {
			return err
		}
	}

	writes := []entityWrite{
		{"pool", func(ctx context.Context) error { return p.stores.Pools.PutPool(ctx, pool) }},
		{"tick lower", func(ctx context.Context) error { return p.stores.Ticks.PutTick(ctx, tickLower) }},
		{"tick upper", func(ctx context.Context) error { return p.stores.Ticks.PutTick(ctx, tickUpper) }},
		{"bitmap", func(ctx context.Context) error { return p.stores.Bitmaps.PutTickBitmap(ctx, bitmap) }},
		{"account0", func(ctx context.Context) error { return p.stores.Accounts.PutAccount(ctx, account0) }},
		{"account1", func(ctx context.Context) error { return p.stores.Accounts.PutAccount(ctx, account1) }},
		{"position", func(ctx context.Context) error { return p.stores.Positions.PutPosition(ctx, position) }},
	}
	if err := commitAll(ctx, p.logger, backups, writes); err != nil {
		return err
	}

	if withdraw0.IsPositive() {
		p.recordHistory(ctx, model.AccountHistory{
			AccountKey: account0.Key, Type: model.HistoryPositionWithdraw,
			Amount: withdraw0, Reference: position.ID, CreatedAt: now,
		})
	}
	if withdraw1.IsPositive() {
		p.recordHistory(ctx, model.AccountHistory{
			AccountKey: account1.Key, Type: model.HistoryPositionWithdraw,
			Amount: withdraw1, Reference: position.ID, CreatedAt: now,
		})
	}
	if owed0.IsPositive() {
		p.recordHistory(ctx, model.AccountHistory{
			AccountKey: account0.Key, Type: model.HistoryFeeCollect,
			Amount: owed0, Reference: position.ID, CreatedAt: now,
		})
	}
	if owed1.IsPositive() {
		p.recordHistory(ctx, model.AccountHistory{
			AccountKey: account1.Key, Type: model.HistoryFeeCollect,
			Amount: owed1, Reference: position.ID, CreatedAt: now,
		})
	}

	result.Pool = pool
	result.Ticks = []*model.Tick{tickLower, tickUpper}
	result.Bitmap = bitmap
	result.Accounts = []*model.Account{account0, account1}

	p.logger.Info("position closed",
		zap.String("position", position.ID),
		zap.String("pair", pool.Pair),
		zap.String("withdraw0", withdraw0.String()),
		zap.String("withdraw1", withdraw1.String()),
		zap.String("fees0", owed0.String()),
		zap.String("fees1", owed1.String()),
	)
	return nil
}
