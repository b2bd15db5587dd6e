package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"liquidityEngine/internal/amm"
	"liquidityEngine/internal/model"
	"liquidityEngine/internal/store"
)

// CreateProcessor finalizes a pending position: computes its liquidity,
// settles the deposit from both owner accounts and opens it.
type CreateProcessor struct {
	deps
}

func NewCreateProcessor(stores store.Stores, logger *zap.Logger) *CreateProcessor {
	return &CreateProcessor{deps: newDeps(stores, logger)}
}

// Process runs the create operation for one pending position. All entity
// writes happen as one unit: on any failure nothing persisted changes.
func (p *CreateProcessor) Process(ctx context.Context, position *model.Position) (*Result, error) {
	result := &Result{}
	if err := p.process(ctx, position, result); err != nil {
		result.setError(err.Error())
		return result, err
	}
	return result, nil
}

func (p *CreateProcessor) process(ctx context.Context, position *model.Position, result *Result) error {
	if position == nil {
		return fmt.Errorf("position is nil")
	}
	result.Position = position
	if !position.IsPending() {
		return fmt.Errorf("%w: status %s", ErrPositionNotPending, position.Status)
	}
	if position.Account0Key == position.Account1Key {
		return fmt.Errorf("%w: %s", ErrSameAccount, position.Account0Key)
	}

	// Creates are not idempotent; a replayed command must not settle the
	// deposit a second time.
	if _, exists, err := p.stores.Positions.GetPosition(ctx, position.ID); err != nil {
		return fmt.Errorf("load position %s: %w", position.ID, err)
	} else if exists {
		return fmt.Errorf("%w: %s", ErrPositionExists, position.ID)
	}

	pool, err := p.loadPool(ctx, position.Pair)
	if err != nil {
		return err
	}
	if !pool.Active {
		return fmt.Errorf("%w: %s", ErrPoolInactive, pool.Pair)
	}
	if err := validateRange(pool, position.TickLowerIndex, position.TickUpperIndex); err != nil {
		return err
	}
	if position.Amount0Initial.IsNegative() || position.Amount1Initial.IsNegative() {
		return fmt.Errorf("%w: initial amounts must not be negative", ErrInvalidTickRange)
	}
	if !position.Amount0Initial.IsPositive() && !position.Amount1Initial.IsPositive() {
		return ErrZeroLiquidity
	}

	account0, err := p.loadAccount(ctx, position.Account0Key)
	if err != nil {
		return err
	}
	account1, err := p.loadAccount(ctx, position.Account1Key)
	if err != nil {
		return err
	}
	bitmap, err := p.loadBitmap(ctx, position.Pair)
	if err != nil {
		return err
	}

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

	liquidity := amm.LiquidityForAmounts(sqrtCurrent, sqrtLower, sqrtUpper, position.Amount0Initial, position.Amount1Initial)
	if !liquidity.IsPositive() {
		return ErrZeroLiquidity
	}

	amount0, amount1 := amm.AmountsForLiquidity(sqrtCurrent, sqrtLower, sqrtUpper, liquidity)
	if err := checkSlippage(position.Amount0Initial, amount0, position.Slippage); err != nil {
		return fmt.Errorf("token0: %w", err)
	}
	if err := checkSlippage(position.Amount1Initial, amount1, position.Slippage); err != nil {
		return fmt.Errorf("token1: %w", err)
	}

	if account0.AvailableBalance.LessThan(amount0) {
		return fmt.Errorf("%w on account %s", model.ErrInsufficientBalance, account0.Key)
	}
	if account1.AvailableBalance.LessThan(amount1) {
		return fmt.Errorf("%w on account %s", model.ErrInsufficientBalance, account1.Key)
	}

	now := time.Now().UTC()
	tickLower, err := p.loadTick(ctx, position.Pair, position.TickLowerIndex, now)
	if err != nil {
		return err
	}
	tickUpper, err := p.loadTick(ctx, position.Pair, position.TickUpperIndex, now)
	if err != nil {
		return err
	}

	// Everything validated; snapshot before the first mutation.
	backups := newBackupSet(p.stores)
	backups.addPool(pool)
	backups.addTick(tickLower)
	backups.addTick(tickUpper)
	backups.addBitmap(bitmap)
	backups.addAccount(account0)
	backups.addAccount(account1)
	backups.addPosition(position)

	if err := account0.Debit(amount0, now); err != nil {
		return err
	}
	if err := account1.Debit(amount1, now); err != nil {
		return err
	}

	maxLiquidity := pool.MaxLiquidityPerTick()
	flippedLower, err := tickLower.Update(liquidity, false, maxLiquidity, pool.CurrentTick, pool.FeeGrowthGlobal0, pool.FeeGrowthGlobal1, now)
	if err != nil {
		return err
	}
	flippedUpper, err := tickUpper.Update(liquidity, true, maxLiquidity, pool.CurrentTick, pool.FeeGrowthGlobal0, pool.FeeGrowthGlobal1, now)
	if err != nil {
		return err
	}
	bitmap.FlipBit(tickLower.Index, flippedLower, tickLower.Initialized, now)
	bitmap.FlipBit(tickUpper.Index, flippedUpper, tickUpper.Initialized, now)

	inRange := position.TickLowerIndex <= pool.CurrentTick && pool.CurrentTick < position.TickUpperIndex
	if !pool.UpdateForAddPosition(liquidity, inRange, amount0, amount1, now) {
		return fmt.Errorf("pool %s rejected position add", pool.Pair)
	}

	inside0, inside1 := amm.FeeGrowthInside(pool.CurrentTick, tickLower, tickUpper, pool.FeeGrowthGlobal0, pool.FeeGrowthGlobal1)
	position.UpdateAfterCreate(liquidity, amount0, amount1, inside0, inside1, now)
	if !position.Open(now) {
		return fmt.Errorf("failed to open position %s", position.ID)
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

	if amount0.IsPositive() {
		p.recordHistory(ctx, model.AccountHistory{
			AccountKey: account0.Key, Type: model.HistoryPositionDeposit,
			Amount: amount0.Neg(), Reference: position.ID, CreatedAt: now,
		})
	}
	if amount1.IsPositive() {
		p.recordHistory(ctx, model.AccountHistory{
			AccountKey: account1.Key, Type: model.HistoryPositionDeposit,
			Amount: amount1.Neg(), Reference: position.ID, CreatedAt: now,
		})
	}

	result.Pool = pool
	result.Ticks = []*model.Tick{tickLower, tickUpper}
	result.Bitmap = bitmap
	result.Accounts = []*model.Account{account0, account1}

	p.logger.Info("position created",
		zap.String("position", position.ID),
		zap.String("pair", pool.Pair),
		zap.String("liquidity", liquidity.String()),
		zap.String("amount0", amount0.String()),
		zap.String("amount1", amount1.String()),
		zap.Bool("in_range", inRange),
	)
	return nil
}

// validateRange checks boundary ordering, spacing and domain.
func validateRange(pool *model.Pool, lower, upper int32) error {
	if lower >= upper {
		return fmt.Errorf("%w: lower %d must be below upper %d", ErrInvalidTickRange, lower, upper)
	}
	if lower < amm.MinTick || upper > amm.MaxTick {
		return fmt.Errorf("%w: [%d, %d) outside [%d, %d]", ErrInvalidTickRange, lower, upper, amm.MinTick, amm.MaxTick)
	}
	if !pool.ValidTickSpacing(lower) || !pool.ValidTickSpacing(upper) {
		return fmt.Errorf("%w: ticks must be multiples of spacing %d", ErrInvalidTickRange, pool.TickSpacing)
	}
	return nil
}

// checkSlippage verifies the discrepancy between the requested and actual
// amount stays within tolerance.
func checkSlippage(requested, actual, tolerance decimal.Decimal) error {
	if !requested.IsPositive() {
		if actual.IsPositive() {
			return fmt.Errorf("%w: required %s, offered none", ErrSlippageExceeded, actual)
		}
		return nil
	}
	diff := requested.Sub(actual).Abs()
	ratio := diff.DivRound(requested, amm.Scale)
	if ratio.GreaterThan(tolerance) {
		return fmt.Errorf("%w: requested %s, actual %s", ErrSlippageExceeded, requested, actual)
	}
	return nil
}
