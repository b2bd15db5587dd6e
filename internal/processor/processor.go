package processor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"liquidityEngine/internal/model"
	"liquidityEngine/internal/store"
)

// deps carries the injected collaborators shared by all processors.
type deps struct {
	stores store.Stores
	logger *zap.Logger
}

func newDeps(stores store.Stores, logger *zap.Logger) deps {
	if logger == nil {
		logger = zap.NewNop()
	}
	return deps{stores: stores, logger: logger}
}

func (d deps) loadPool(ctx context.Context, pair string) (*model.Pool, error) {
	pool, ok, err := d.stores.Pools.GetPool(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("load pool %s: %w", pair, err)
	}
	if !ok {
		return nil, fmt.Errorf("pool %s %w", pair, ErrNotFound)
	}
	return pool, nil
}

func (d deps) loadPosition(ctx context.Context, id string) (*model.Position, error) {
	position, ok, err := d.stores.Positions.GetPosition(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load position %s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("position %s %w", id, ErrNotFound)
	}
	return position, nil
}

func (d deps) loadAccount(ctx context.Context, key string) (*model.Account, error) {
	account, ok, err := d.stores.Accounts.GetAccount(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("account %s %w", key, ErrNotFound)
	}
	return account, nil
}

func (d deps) loadBitmap(ctx context.Context, pair string) (*model.TickBitmap, error) {
	bitmap, ok, err := d.stores.Bitmaps.GetTickBitmap(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("load tick bitmap %s: %w", pair, err)
	}
	if !ok {
		return nil, fmt.Errorf("tick bitmap %s %w", pair, ErrNotFound)
	}
	return bitmap, nil
}

// loadTick returns the stored tick, or a fresh zero tick when the index has
// never been referenced. Ticks are created lazily on first use.
func (d deps) loadTick(ctx context.Context, pair string, index int32, now time.Time) (*model.Tick, error) {
	tick, ok, err := d.stores.Ticks.GetTick(ctx, pair, index)
	if err != nil {
		return nil, fmt.Errorf("load tick %s/%d: %w", pair, index, err)
	}
	if !ok {
		return model.NewTick(pair, index, now), nil
	}
	return tick, nil
}

// loadExistingTick is the strict variant for operations that reference a
// tick that must already exist.
func (d deps) loadExistingTick(ctx context.Context, pair string, index int32) (*model.Tick, error) {
	tick, ok, err := d.stores.Ticks.GetTick(ctx, pair, index)
	if err != nil {
		return nil, fmt.Errorf("load tick %s/%d: %w", pair, index, err)
	}
	if !ok {
		return nil, fmt.Errorf("tick %s/%d %w", pair, index, ErrNotFound)
	}
	return tick, nil
}

// recordHistory is best effort: a failed history write is logged, never
// propagated.
func (d deps) recordHistory(ctx context.Context, record model.AccountHistory) {
	if d.stores.History == nil {
		return
	}
	if err := d.stores.History.RecordAccountHistory(ctx, record); err != nil {
		d.logger.Warn("record account history",
			zap.String("account", record.AccountKey),
			zap.String("type", record.Type),
			zap.Error(err),
		)
	}
}
