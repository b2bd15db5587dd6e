package processor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"liquidityEngine/internal/amm"
	"liquidityEngine/internal/model"
	"liquidityEngine/internal/store"
)

// CollectFeeProcessor settles a position's accrued trading fees into its
// owner accounts. The position stays open.
type CollectFeeProcessor struct {
	deps
}

func NewCollectFeeProcessor(stores store.Stores, logger *zap.Logger) *CollectFeeProcessor {
	return &CollectFeeProcessor{deps: newDeps(stores, logger)}
}

func (p *CollectFeeProcessor) Process(ctx context.Context, positionID string) (*Result, error) {
	result := &Result{}
	if err := p.process(ctx, positionID, result); err != nil {
		result.setError(err.Error())
		return result, err
	}
	return result, nil
}

func (p *CollectFeeProcessor) process(ctx context.Context, positionID string, result *Result) error {
	position, err := p.loadPosition(ctx, positionID)
	if err != nil {
		return err
	}
	result.Position = position

	if !position.IsOpen() {
		return ErrPositionNotOpen
	}
	if !position.Liquidity.IsPositive() {
		return ErrPositionNoLiquidity
	}

	pool, err := p.loadPool(ctx, position.Pair)
	if err != nil {
		return err
	}
	tickLower, err := p.loadExistingTick(ctx, position.Pair, position.TickLowerIndex)
	if err != nil {
		return err
	}
	tickUpper, err := p.loadExistingTick(ctx, position.Pair, position.TickUpperIndex)
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

	inside0, inside1 := amm.FeeGrowthInside(pool.CurrentTick, tickLower, tickUpper, pool.FeeGrowthGlobal0, pool.FeeGrowthGlobal1)
	owed0 := feesOwed(position.Liquidity, inside0, position.FeeGrowthInside0Last)
	owed1 := feesOwed(position.Liquidity, inside1, position.FeeGrowthInside1Last)

	now := time.Now().UTC()
	backups := newBackupSet(p.stores)
	backups.addPosition(position)
	backups.addAccount(account0)
	backups.addAccount(account1)

	if !position.UpdateAfterCollectFee(owed0, owed1, inside0, inside1, now) {
		return ErrCollectFeeUpdate
	}
	if owed0.IsPositive() {
		if err := account0.Credit(owed0, now); err != nil {
			return err
		}
	}
	if owed1.IsPositive() {
		if err := account1.Credit(owed1, now); err != nil {
			return err
		}
	}

	writes := []entityWrite{
		{"position", func(ctx context.Context) error { return p.stores.Positions.PutPosition(ctx, position) }},
		{"account0", func(ctx context.Context) error { return p.stores.Accounts.PutAccount(ctx, account0) }},
		{"account1", func(ctx context.Context) error { return p.stores.Accounts.PutAccount(ctx, account1) }},
	}
	if err := commitAll(ctx, p.logger, backups, writes); err != nil {
		return err
	}

	// Zero-amount credits generate no ledger entry.
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

	result.Accounts = []*model.Account{account0, account1}

	p.logger.Info("fees collected",
		zap.String("position", position.ID),
		zap.String("owed0", owed0.String()),
		zap.String("owed1", owed1.String()),
	)
	return nil
}

// feesOwed is liquidity times the inside-range growth since the last
// settlement. The accumulators are monotonic but rounding can make the
// observed delta non-positive; that yields exactly zero, not an error.
func feesOwed(liquidity, inside, insideLast decimal.Decimal) decimal.Decimal {
	delta := inside.Sub(insideLast)
	if !delta.IsPositive() {
		return decimal.Zero
	}
	return amm.Normalize(liquidity.Mul(delta))
}
