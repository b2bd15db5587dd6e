package processor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"liquidityEngine/internal/model"
	"liquidityEngine/internal/store"
)

// backupSet holds immutable copies of every entity an operation is about to
// mutate. The persistence layer has no multi-key transaction, so a failed
// commit writes each backup back verbatim; no partial mix of old and new
// entity versions is ever left behind.
type backupSet struct {
	stores   store.Stores
	pool     *model.Pool
	ticks    []*model.Tick
	bitmap   *model.TickBitmap
	position *model.Position
	accounts []*model.Account
}

func newBackupSet(stores store.Stores) *backupSet {
	return &backupSet{stores: stores}
}

func (b *backupSet) addPool(p *model.Pool)         { b.pool = p.Clone() }
func (b *backupSet) addTick(t *model.Tick)         { b.ticks = append(b.ticks, t.Clone()) }
func (b *backupSet) addBitmap(m *model.TickBitmap) { b.bitmap = m.Clone() }
func (b *backupSet) addPosition(p *model.Position) { b.position = p.Clone() }
func (b *backupSet) addAccount(a *model.Account)   { b.accounts = append(b.accounts, a.Clone()) }

// dropPosition removes the position from the restore set, for paths that
// persist a terminal position state the rollback must not undo.
func (b *backupSet) dropPosition() { b.position = nil }

// restore writes every backup back. All restores are attempted even when
// some fail; the first failure is returned.
func (b *backupSet) restore(ctx context.Context, logger *zap.Logger) error {
	var firstErr error
	record := func(name string, err error) {
		if err == nil {
			return
		}
		logger.Error("rollback write failed", zap.String("entity", name), zap.Error(err))
		if firstErr == nil {
			firstErr = fmt.Errorf("restore %s: %w", name, err)
		}
	}

	if b.pool != nil {
		record("pool", b.stores.Pools.PutPool(ctx, b.pool))
	}
	for _, tick := range b.ticks {
		record("tick", b.stores.Ticks.PutTick(ctx, tick))
	}
	if b.bitmap != nil {
		record("bitmap", b.stores.Bitmaps.PutTickBitmap(ctx, b.bitmap))
	}
	for _, account := range b.accounts {
		record("account", b.stores.Accounts.PutAccount(ctx, account))
	}
	if b.position != nil {
		record("position", b.stores.Positions.PutPosition(ctx, b.position))
	}
	return firstErr
}

// entityWrite is one step of a multi-entity commit.
type entityWrite struct {
	name string
	put  func(context.Context) error
}

// commitAll persists every write in order. On the first failure it rolls
// the whole set back through the backups and reports the triggering error.
func commitAll(ctx context.Context, logger *zap.Logger, backups *backupSet, writes []entityWrite) error {
	for _, write := range writes {
		if err := write.put(ctx); err != nil {
			logger.Warn("commit failed, rolling back", zap.String("entity", write.name), zap.Error(err))
			if restoreErr := backups.restore(ctx, logger); restoreErr != nil {
				return fmt.Errorf("persist %s: %w (rollback incomplete: %v)", write.name, err, restoreErr)
			}
			return fmt.Errorf("persist %s: %w", write.name, err)
		}
	}
	return nil
}
