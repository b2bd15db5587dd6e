package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"liquidityEngine/internal/model"
)

func TestCreateInRangePosition(t *testing.T) {
	f := newFixture(t, 10000)
	position := f.pendingPosition("pos-1", 9800, 10200,
		decimal.NewFromInt(100), decimal.NewFromInt(100), decimal.NewFromInt(1))

	result := f.openPosition(t, position)

	if position.Status != model.PositionOpen {
		t.Fatalf("expected open position, got %s", position.Status)
	}
	if !position.Liquidity.IsPositive() {
		t.Fatalf("expected positive liquidity")
	}

	// The settled amounts leave the owner accounts and enter the pool
	// reserves, nothing more and nothing less.
	account0 := f.account(t, "acct-0")
	account1 := f.account(t, "acct-1")
	if !account0.AvailableBalance.Equal(decimal.NewFromInt(1000).Sub(position.Amount0)) {
		t.Fatalf("account0 balance %s does not reflect deposit %s", account0.AvailableBalance, position.Amount0)
	}
	if !account1.AvailableBalance.Equal(decimal.NewFromInt(1000).Sub(position.Amount1)) {
		t.Fatalf("account1 balance %s does not reflect deposit %s", account1.AvailableBalance, position.Amount1)
	}
	pool := f.pool(t)
	if !pool.TotalValueLocked0.Equal(position.Amount0) || !pool.TotalValueLocked1.Equal(position.Amount1) {
		t.Fatalf("pool reserves %s/%s do not match deposit %s/%s",
			pool.TotalValueLocked0, pool.TotalValueLocked1, position.Amount0, position.Amount1)
	}
	if !pool.Liquidity.Equal(position.Liquidity) {
		t.Fatalf("in-range create must add liquidity to the pool: %s vs %s", pool.Liquidity, position.Liquidity)
	}

	// Boundary ticks carry the liquidity with opposite net signs and the
	// bitmap tracks their initialized state.
	lower, ok := f.tick(t, 9800)
	if !ok || !lower.Initialized {
		t.Fatalf("expected initialized lower tick")
	}
	upper, ok := f.tick(t, 10200)
	if !ok || !upper.Initialized {
		t.Fatalf("expected initialized upper tick")
	}
	if !lower.LiquidityNet.Equal(position.Liquidity) {
		t.Fatalf("expected lower net %s, got %s", position.Liquidity, lower.LiquidityNet)
	}
	if !upper.LiquidityNet.Equal(position.Liquidity.Neg()) {
		t.Fatalf("expected upper net %s, got %s", position.Liquidity.Neg(), upper.LiquidityNet)
	}
	bitmap := f.bitmap(t)
	if !bitmap.IsSet(9800) || !bitmap.IsSet(10200) {
		t.Fatalf("expected bitmap bits for both boundaries")
	}

	if result.ErrorMessage != "" {
		t.Fatalf("unexpected result error: %s", result.ErrorMessage)
	}
	history := f.memory.HistoryRecords()
	if len(history) != 2 {
		t.Fatalf("expected 2 deposit records, got %d", len(history))
	}
	for _, record := range history {
		if record.Type != model.HistoryPositionDeposit || !record.Amount.IsNegative() {
			t.Fatalf("expected negative deposit record, got %+v", record)
		}
	}
}

func TestCreateAboveCurrentTickTakesToken0Only(t *testing.T) {
	f := newFixture(t, 10000)
	position := f.pendingPosition("pos-1", 10100, 10200,
		decimal.NewFromInt(100), decimal.Zero, decimal.RequireFromString("0.01"))

	f.openPosition(t, position)

	if !position.Amount0.IsPositive() || !position.Amount1.IsZero() {
		t.Fatalf("expected token0-only deposit, got %s/%s", position.Amount0, position.Amount1)
	}
	if !f.account(t, "acct-1").AvailableBalance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("token1 account must stay untouched")
	}
	// Out of range, so pool liquidity stays where it was.
	if !f.pool(t).Liquidity.IsZero() {
		t.Fatalf("out-of-range create changed pool liquidity")
	}
}

func TestCreateRejectsReplayedCommand(t *testing.T) {
	f := newFixture(t, 10000)
	ctx := context.Background()
	first := f.pendingPosition("pos-1", 9800, 10200,
		decimal.NewFromInt(100), decimal.NewFromInt(100), decimal.NewFromInt(1))
	f.openPosition(t, first)

	poolBefore := f.pool(t)
	balance0Before := f.account(t, "acct-0").AvailableBalance
	balance1Before := f.account(t, "acct-1").AvailableBalance

	// A crash-replay delivers the same command again, rebuilt as a fresh
	// pending position with the id that already settled.
	replay := f.pendingPosition("pos-1", 9800, 10200,
		decimal.NewFromInt(100), decimal.NewFromInt(100), decimal.NewFromInt(1))
	_, err := NewCreateProcessor(f.stores, nil).Process(ctx, replay)
	if !errors.Is(err, ErrPositionExists) {
		t.Fatalf("expected ErrPositionExists, got %v", err)
	}

	// The deposit must not settle twice.
	if !f.account(t, "acct-0").AvailableBalance.Equal(balance0Before) {
		t.Fatalf("acct-0 debited again on replay: %s vs %s", f.account(t, "acct-0").AvailableBalance, balance0Before)
	}
	if !f.account(t, "acct-1").AvailableBalance.Equal(balance1Before) {
		t.Fatalf("acct-1 debited again on replay")
	}
	pool := f.pool(t)
	if !pool.Liquidity.Equal(poolBefore.Liquidity) {
		t.Fatalf("pool liquidity double-counted: %s vs %s", pool.Liquidity, poolBefore.Liquidity)
	}
	if !pool.TotalValueLocked0.Equal(poolBefore.TotalValueLocked0) ||
		!pool.TotalValueLocked1.Equal(poolBefore.TotalValueLocked1) {
		t.Fatalf("pool reserves double-counted")
	}

	stored, ok, getErr := f.memory.GetPosition(ctx, "pos-1")
	if getErr != nil || !ok {
		t.Fatalf("get position: ok=%v err=%v", ok, getErr)
	}
	if stored.Status != model.PositionOpen || !stored.Liquidity.Equal(first.Liquidity) {
		t.Fatalf("stored position overwritten by replay: %s liquidity %s", stored.Status, stored.Liquidity)
	}
}

func TestCreateRejectsSharedAccount(t *testing.T) {
	f := newFixture(t, 10000)
	position := f.pendingPosition("pos-1", 9800, 10200,
		decimal.NewFromInt(100), decimal.NewFromInt(100), decimal.NewFromInt(1))
	position.Account1Key = position.Account0Key

	_, err := NewCreateProcessor(f.stores, nil).Process(context.Background(), position)
	if !errors.Is(err, ErrSameAccount) {
		t.Fatalf("expected ErrSameAccount, got %v", err)
	}
	if !f.account(t, "acct-0").AvailableBalance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("balance changed on rejected create")
	}
}

func TestCreateRejectsNonPending(t *testing.T) {
	f := newFixture(t, 10000)
	position := f.pendingPosition("pos-1", 9800, 10200,
		decimal.NewFromInt(100), decimal.NewFromInt(100), decimal.NewFromInt(1))
	position.Status = model.PositionOpen

	result, err := NewCreateProcessor(f.stores, nil).Process(context.Background(), position)
	if !errors.Is(err, ErrPositionNotPending) {
		t.Fatalf("expected ErrPositionNotPending, got %v", err)
	}
	if result.ErrorMessage == "" {
		t.Fatalf("expected error message on result")
	}
}

func TestCreateRejectsInactivePool(t *testing.T) {
	f := newFixture(t, 10000)
	pool := f.pool(t)
	pool.Active = false
	f.putPool(t, pool)

	position := f.pendingPosition("pos-1", 9800, 10200,
		decimal.NewFromInt(100), decimal.NewFromInt(100), decimal.NewFromInt(1))
	_, err := NewCreateProcessor(f.stores, nil).Process(context.Background(), position)
	if !errors.Is(err, ErrPoolInactive) {
		t.Fatalf("expected ErrPoolInactive, got %v", err)
	}
}

func TestCreateRejectsBadRange(t *testing.T) {
	f := newFixture(t, 10000)
	cases := []struct {
		name         string
		lower, upper int32
	}{
		{"inverted", 10200, 9800},
		{"equal", 9800, 9800},
		{"off spacing", 9850, 10200},
		{"out of domain", -500000, 10200},
	}
	for _, c := range cases {
		position := f.pendingPosition("pos-"+c.name, c.lower, c.upper,
			decimal.NewFromInt(100), decimal.NewFromInt(100), decimal.NewFromInt(1))
		_, err := NewCreateProcessor(f.stores, nil).Process(context.Background(), position)
		if !errors.Is(err, ErrInvalidTickRange) {
			t.Fatalf("%s: expected ErrInvalidTickRange, got %v", c.name, err)
		}
	}
}

func TestCreateRejectsZeroAmounts(t *testing.T) {
	f := newFixture(t, 10000)
	position := f.pendingPosition("pos-1", 9800, 10200, decimal.Zero, decimal.Zero, decimal.NewFromInt(1))

	_, err := NewCreateProcessor(f.stores, nil).Process(context.Background(), position)
	if !errors.Is(err, ErrZeroLiquidity) {
		t.Fatalf("expected ErrZeroLiquidity, got %v", err)
	}
}

func TestCreateRejectsSlippage(t *testing.T) {
	// In range, equal token amounts cannot both settle in full; with zero
	// tolerance the non-binding side must trip the check.
	f := newFixture(t, 10000)
	position := f.pendingPosition("pos-1", 9800, 10200,
		decimal.NewFromInt(100), decimal.NewFromInt(100), decimal.Zero)

	_, err := NewCreateProcessor(f.stores, nil).Process(context.Background(), position)
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("expected ErrSlippageExceeded, got %v", err)
	}
}

func TestCreateRejectsInsufficientBalance(t *testing.T) {
	f := newFixture(t, 10000)
	position := f.pendingPosition("pos-1", 9800, 10200,
		decimal.NewFromInt(100000), decimal.NewFromInt(100000), decimal.NewFromInt(1))

	_, err := NewCreateProcessor(f.stores, nil).Process(context.Background(), position)
	if !errors.Is(err, model.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	// Nothing moved.
	if !f.account(t, "acct-0").AvailableBalance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("balance changed on rejected create")
	}
}

func TestCreateRejectsMaxLiquidityPerTick(t *testing.T) {
	f := newFixture(t, 10000)
	ctx := context.Background()
	now := f.pool(t).UpdatedAt

	// Saturate the lower boundary so any further add must overflow the cap.
	full := model.NewTick(testPair, 9800, now)
	full.LiquidityGross = f.pool(t).MaxLiquidityPerTick()
	full.LiquidityNet = full.LiquidityGross
	full.Initialized = true
	if err := f.memory.PutTick(ctx, full); err != nil {
		t.Fatalf("seed tick: %v", err)
	}
	bitmap := f.bitmap(t)
	bitmap.FlipBit(9800, true, true, now)
	if err := f.memory.PutTickBitmap(ctx, bitmap); err != nil {
		t.Fatalf("seed bitmap: %v", err)
	}

	position := f.pendingPosition("pos-1", 9800, 10200,
		decimal.NewFromInt(100), decimal.NewFromInt(100), decimal.NewFromInt(1))
	_, err := NewCreateProcessor(f.stores, nil).Process(ctx, position)
	if !errors.Is(err, model.ErrMaxLiquidityPerTick) {
		t.Fatalf("expected ErrMaxLiquidityPerTick, got %v", err)
	}
	if !f.account(t, "acct-0").AvailableBalance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("balance changed on rejected create")
	}
}

func TestCreateMissingPool(t *testing.T) {
	f := newFixture(t, 10000)
	position := f.pendingPosition("pos-1", 9800, 10200,
		decimal.NewFromInt(100), decimal.NewFromInt(100), decimal.NewFromInt(1))
	position.Pair = "NO-SUCH"

	_, err := NewCreateProcessor(f.stores, nil).Process(context.Background(), position)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
