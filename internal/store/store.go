package store

import (
	"context"

	"liquidityEngine/internal/model"
)

// Entity stores are synchronous key→entity lookups with last-writer-wins
// puts. Get returns ok=false when no entity exists for the key, so callers
// must handle the missing case explicitly.

type PoolStore interface {
	GetPool(ctx context.Context, pair string) (*model.Pool, bool, error)
	PutPool(ctx context.Context, pool *model.Pool) error
}

type TickStore interface {
	GetTick(ctx context.Context, pair string, index int32) (*model.Tick, bool, error)
	PutTick(ctx context.Context, tick *model.Tick) error
}

type BitmapStore interface {
	GetTickBitmap(ctx context.Context, pair string) (*model.TickBitmap, bool, error)
	PutTickBitmap(ctx context.Context, bitmap *model.TickBitmap) error
}

type PositionStore interface {
	GetPosition(ctx context.Context, id string) (*model.Position, bool, error)
	PutPosition(ctx context.Context, position *model.Position) error
}

type AccountStore interface {
	GetAccount(ctx context.Context, key string) (*model.Account, bool, error)
	PutAccount(ctx context.Context, account *model.Account) error
}

// HistoryRecorder enqueues account-history records. Best effort: callers
// log failures and carry on.
type HistoryRecorder interface {
	RecordAccountHistory(ctx context.Context, record model.AccountHistory) error
}

// Stores bundles every collaborator a processor needs.
type Stores struct {
	Pools     PoolStore
	Ticks     TickStore
	Bitmaps   BitmapStore
	Positions PositionStore
	Accounts  AccountStore
	History   HistoryRecorder
}
