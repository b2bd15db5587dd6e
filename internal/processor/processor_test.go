package processor

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"liquidityEngine/internal/amm"
	"liquidityEngine/internal/model"
	"liquidityEngine/internal/store"
)

const testPair = "BTC-USDT"

type fixture struct {
	memory *store.MemoryStore
	stores store.Stores
}

func newFixture(t *testing.T, currentTick int32) *fixture {
	t.Helper()
	now := time.Unix(1700000000, 0).UTC()
	memory := store.NewMemoryStore()
	ctx := context.Background()

	sqrtPrice, err := amm.SqrtRatioAtTick(currentTick)
	if err != nil {
		t.Fatalf("sqrt ratio at tick %d: %v", currentTick, err)
	}
	pool := &model.Pool{
		Pair:          testPair,
		Active:        true,
		Token0:        "BTC",
		Token1:        "USDT",
		TickSpacing:   100,
		FeePercentage: decimal.RequireFromString("0.003"),
		CurrentTick:   currentTick,
		SqrtPrice:     sqrtPrice,
		Price:         sqrtPrice.Mul(sqrtPrice),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := memory.PutPool(ctx, pool); err != nil {
		t.Fatalf("seed pool: %v", err)
	}
	if err := memory.PutTickBitmap(ctx, model.NewTickBitmap(testPair, now)); err != nil {
		t.Fatalf("seed bitmap: %v", err)
	}
	for _, account := range []*model.Account{
		{Key: "acct-0", Currency: "BTC", AvailableBalance: decimal.NewFromInt(1000), UpdatedAt: now},
		{Key: "acct-1", Currency: "USDT", AvailableBalance: decimal.NewFromInt(1000), UpdatedAt: now},
	} {
		if err := memory.PutAccount(ctx, account); err != nil {
			t.Fatalf("seed account: %v", err)
		}
	}

	return &fixture{memory: memory, stores: memory.Stores()}
}

func (f *fixture) pendingPosition(id string, lower, upper int32, amount0, amount1, slippage decimal.Decimal) *model.Position {
	now := time.Unix(1700000000, 0).UTC()
	return &model.Position{
		ID:             id,
		Pair:           testPair,
		Account0Key:    "acct-0",
		Account1Key:    "acct-1",
		TickLowerIndex: lower,
		TickUpperIndex: upper,
		Amount0Initial: amount0,
		Amount1Initial: amount1,
		Slippage:       slippage,
		Status:         model.PositionPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// openPosition runs the full create path and fails the test on error.
func (f *fixture) openPosition(t *testing.T, position *model.Position) *Result {
	t.Helper()
	result, err := NewCreateProcessor(f.stores, nil).Process(context.Background(), position)
	if err != nil {
		t.Fatalf("create position %s: %v", position.ID, err)
	}
	return result
}

func (f *fixture) pool(t *testing.T) *model.Pool {
	t.Helper()
	pool, ok, err := f.memory.GetPool(context.Background(), testPair)
	if err != nil || !ok {
		t.Fatalf("get pool: ok=%v err=%v", ok, err)
	}
	return pool
}

func (f *fixture) putPool(t *testing.T, pool *model.Pool) {
	t.Helper()
	if err := f.memory.PutPool(context.Background(), pool); err != nil {
		t.Fatalf("put pool: %v", err)
	}
}

func (f *fixture) account(t *testing.T, key string) *model.Account {
	t.Helper()
	account, ok, err := f.memory.GetAccount(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("get account %s: ok=%v err=%v", key, ok, err)
	}
	return account
}

func (f *fixture) tick(t *testing.T, index int32) (*model.Tick, bool) {
	t.Helper()
	tick, ok, err := f.memory.GetTick(context.Background(), testPair, index)
	if err != nil {
		t.Fatalf("get tick %d: %v", index, err)
	}
	return tick, ok
}

func (f *fixture) bitmap(t *testing.T) *model.TickBitmap {
	t.Helper()
	bitmap, ok, err := f.memory.GetTickBitmap(context.Background(), testPair)
	if err != nil || !ok {
		t.Fatalf("get bitmap: ok=%v err=%v", ok, err)
	}
	return bitmap
}

// withinDust reports whether two amounts differ by no more than rounding
// dust at the working scale.
func withinDust(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(decimal.New(1, -9))
}
