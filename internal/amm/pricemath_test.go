package amm

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTickPriceRoundTrip(t *testing.T) {
	ticks := []int32{-200000, -100000, -5000, -100, -1, 0, 1, 100, 5000, 100000, 200000}
	for _, tick := range ticks {
		price, err := TickToPrice(tick)
		if err != nil {
			t.Fatalf("TickToPrice(%d): %v", tick, err)
		}
		back, err := PriceToTick(price)
		if err != nil {
			t.Fatalf("PriceToTick(%s): %v", price, err)
		}
		diff := back - tick
		if diff < -1 || diff > 1 {
			t.Fatalf("round trip moved tick %d to %d", tick, back)
		}
	}
}

func TestPriceToTickBetweenTicks(t *testing.T) {
	// A price strictly between tick 100 and 101 must floor to 100.
	p100, err := TickToPrice(100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p101, err := TickToPrice(101)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mid := p100.Add(p101).Div(decimal.NewFromInt(2))

	tick, err := PriceToTick(mid)
	if err != nil {
		t.Fatalf("PriceToTick(%s): %v", mid, err)
	}
	if tick != 100 {
		t.Fatalf("expected tick 100, got %d", tick)
	}
}

func TestSqrtRatioMonotonic(t *testing.T) {
	ticks := []int32{-50000, -1000, -10, -1, 0, 1, 10, 1000, 50000}
	prev := decimal.Zero
	for i, tick := range ticks {
		sqrt, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("SqrtRatioAtTick(%d): %v", tick, err)
		}
		if i > 0 && !sqrt.GreaterThan(prev) {
			t.Fatalf("sqrt ratio not increasing at tick %d: %s <= %s", tick, sqrt, prev)
		}
		prev = sqrt
	}
}

func TestSqrtRatioSquaresToPrice(t *testing.T) {
	for _, tick := range []int32{-20000, -300, 0, 300, 20000} {
		price, err := TickToPrice(tick)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sqrt, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		diff := sqrt.Mul(sqrt).Sub(price).Abs()
		tolerance := price.Mul(decimal.New(1, -12))
		if diff.GreaterThan(tolerance) {
			t.Fatalf("sqrt^2 deviates from price at tick %d: %s vs %s", tick, sqrt.Mul(sqrt), price)
		}
	}
}

func TestTickDomainBounds(t *testing.T) {
	if _, err := TickToPrice(MaxTick + 1); err == nil {
		t.Fatalf("expected error above MaxTick")
	}
	if _, err := TickToPrice(MinTick - 1); err == nil {
		t.Fatalf("expected error below MinTick")
	}
	if _, err := SqrtRatioAtTick(MaxTick + 1); err == nil {
		t.Fatalf("expected error above MaxTick")
	}
	if _, err := PriceToTick(decimal.Zero); err == nil {
		t.Fatalf("expected error for zero price")
	}
	if _, err := PriceToTick(decimal.New(-1, 0)); err == nil {
		t.Fatalf("expected error for negative price")
	}
}

func TestTickZeroIsUnitPrice(t *testing.T) {
	price, err := TickToPrice(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.Equal(decimal.New(1, 0)) {
		t.Fatalf("expected price 1 at tick 0, got %s", price)
	}
}
