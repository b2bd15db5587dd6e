package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var tickNow = time.Unix(1700000000, 0).UTC()

func TestTickUpdateFlipsOnFirstLiquidity(t *testing.T) {
	tick := NewTick("BTC-USDT", 100, tickNow)
	maxLiquidity := decimal.NewFromInt(1000000)

	flipped, err := tick.Update(decimal.NewFromInt(500), false, maxLiquidity, 0, decimal.Zero, decimal.Zero, tickNow)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !flipped {
		t.Fatalf("expected flip on zero -> positive gross")
	}
	if !tick.Initialized {
		t.Fatalf("expected tick initialized")
	}
	if !tick.LiquidityGross.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected gross 500, got %s", tick.LiquidityGross)
	}
	if !tick.LiquidityNet.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected net 500 on lower boundary, got %s", tick.LiquidityNet)
	}

	flipped, err = tick.Update(decimal.NewFromInt(200), false, maxLiquidity, 0, decimal.Zero, decimal.Zero, tickNow)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if flipped {
		t.Fatalf("did not expect flip on positive -> positive gross")
	}
}

func TestTickUpdateUpperBoundarySubtractsNet(t *testing.T) {
	tick := NewTick("BTC-USDT", 200, tickNow)
	maxLiquidity := decimal.NewFromInt(1000000)

	if _, err := tick.Update(decimal.NewFromInt(500), true, maxLiquidity, 0, decimal.Zero, decimal.Zero, tickNow); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !tick.LiquidityNet.Equal(decimal.NewFromInt(-500)) {
		t.Fatalf("expected net -500 on upper boundary, got %s", tick.LiquidityNet)
	}
	if !tick.LiquidityGross.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected gross 500, got %s", tick.LiquidityGross)
	}
}

func TestTickUpdateSeedsOutsideWhenAtOrBelowCurrent(t *testing.T) {
	global0 := decimal.NewFromInt(11)
	global1 := decimal.NewFromInt(13)
	maxLiquidity := decimal.NewFromInt(1000000)

	below := NewTick("BTC-USDT", -50, tickNow)
	if _, err := below.Update(decimal.NewFromInt(10), false, maxLiquidity, 0, global0, global1, tickNow); err != nil {
		t.Fatalf("update below: %v", err)
	}
	if !below.FeeGrowthOutside0.Equal(global0) || !below.FeeGrowthOutside1.Equal(global1) {
		t.Fatalf("expected outside seeded to globals, got %s/%s", below.FeeGrowthOutside0, below.FeeGrowthOutside1)
	}

	above := NewTick("BTC-USDT", 50, tickNow)
	if _, err := above.Update(decimal.NewFromInt(10), false, maxLiquidity, 0, global0, global1, tickNow); err != nil {
		t.Fatalf("update above: %v", err)
	}
	if !above.FeeGrowthOutside0.IsZero() || !above.FeeGrowthOutside1.IsZero() {
		t.Fatalf("expected outside zero above current tick, got %s/%s", above.FeeGrowthOutside0, above.FeeGrowthOutside1)
	}
}

func TestTickUpdateMaxLiquidityGuard(t *testing.T) {
	tick := NewTick("BTC-USDT", 0, tickNow)
	maxLiquidity := decimal.NewFromInt(100)

	_, err := tick.Update(decimal.NewFromInt(101), false, maxLiquidity, 0, decimal.Zero, decimal.Zero, tickNow)
	if !errors.Is(err, ErrMaxLiquidityPerTick) {
		t.Fatalf("expected ErrMaxLiquidityPerTick, got %v", err)
	}
	if tick.Initialized || !tick.LiquidityGross.IsZero() {
		t.Fatalf("tick must be untouched after rejected update")
	}
}

func TestTickUpdateClearsOnLastRemoval(t *testing.T) {
	tick := NewTick("BTC-USDT", 300, tickNow)
	maxLiquidity := decimal.NewFromInt(1000000)
	liquidity := decimal.NewFromInt(700)

	if _, err := tick.Update(liquidity, false, maxLiquidity, 400, decimal.NewFromInt(9), decimal.NewFromInt(9), tickNow); err != nil {
		t.Fatalf("add: %v", err)
	}
	flipped, err := tick.Update(liquidity.Neg(), false, maxLiquidity, 400, decimal.NewFromInt(9), decimal.NewFromInt(9), tickNow)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !flipped {
		t.Fatalf("expected flip on positive -> zero gross")
	}
	if tick.Initialized {
		t.Fatalf("expected tick cleared")
	}
	if !tick.LiquidityGross.IsZero() || !tick.LiquidityNet.IsZero() {
		t.Fatalf("expected zeroed accounting, got gross=%s net=%s", tick.LiquidityGross, tick.LiquidityNet)
	}
	if !tick.FeeGrowthOutside0.IsZero() || !tick.FeeGrowthOutside1.IsZero() {
		t.Fatalf("expected zeroed fee growth outside")
	}
}

func TestTickCrossFlipsOutside(t *testing.T) {
	tick := NewTick("BTC-USDT", 100, tickNow)
	tick.LiquidityNet = decimal.NewFromInt(-250)
	tick.FeeGrowthOutside0 = decimal.NewFromInt(4)
	tick.FeeGrowthOutside1 = decimal.NewFromInt(6)

	net := tick.Cross(decimal.NewFromInt(10), decimal.NewFromInt(10), tickNow)
	if !net.Equal(decimal.NewFromInt(-250)) {
		t.Fatalf("expected net -250, got %s", net)
	}
	if !tick.FeeGrowthOutside0.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("expected outside0 6, got %s", tick.FeeGrowthOutside0)
	}
	if !tick.FeeGrowthOutside1.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("expected outside1 4, got %s", tick.FeeGrowthOutside1)
	}
}

func TestTickCloneIsIndependent(t *testing.T) {
	tick := NewTick("BTC-USDT", 100, tickNow)
	tick.LiquidityGross = decimal.NewFromInt(500)

	clone := tick.Clone()
	clone.LiquidityGross = decimal.NewFromInt(1)
	if !tick.LiquidityGross.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("clone mutation leaked into original")
	}
}
