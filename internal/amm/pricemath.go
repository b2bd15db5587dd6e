package amm

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MinTick and MaxTick bound the usable tick domain pool-wide. The bounds
// keep 1.0001^tick representable with meaningful digits at the engine's
// decimal scale.
const (
	MinTick int32 = -443636
	MaxTick int32 = 443636
)

var (
	one          = decimal.New(1, 0)
	tickBase     = decimal.RequireFromString("1.0001")
	sqrtTickBase = decimal.RequireFromString("1.000049998750062496093777")

	logTickBase = math.Log(1.0001)
)

// TickToPrice returns 1.0001^tick.
func TickToPrice(tick int32) (decimal.Decimal, error) {
	if tick < MinTick || tick > MaxTick {
		return decimal.Zero, fmt.Errorf("tick %d out of range [%d, %d]", tick, MinTick, MaxTick)
	}
	return powTick(tickBase, tick), nil
}

// SqrtRatioAtTick returns sqrt(1.0001^tick), the square-root price at a
// tick. Strictly increasing in tick.
func SqrtRatioAtTick(tick int32) (decimal.Decimal, error) {
	if tick < MinTick || tick > MaxTick {
		return decimal.Zero, fmt.Errorf("tick %d out of range [%d, %d]", tick, MinTick, MaxTick)
	}
	return powTick(sqrtTickBase, tick), nil
}

// PriceToTick returns the greatest tick whose price is <= the given price.
// A float64 log estimate is refined against exact tick prices, so the
// result never drifts by more than the neighbor checks allow.
func PriceToTick(price decimal.Decimal) (int32, error) {
	if !price.IsPositive() {
		return 0, fmt.Errorf("price must be positive, got %s", price)
	}

	f, _ := price.Float64()
	estimate := int64(math.Floor(math.Log(f) / logTickBase))
	if estimate < int64(MinTick) {
		estimate = int64(MinTick)
	}
	if estimate > int64(MaxTick) {
		estimate = int64(MaxTick)
	}

	tick := int32(estimate)
	for tick > MinTick && powTick(tickBase, tick).GreaterThan(price) {
		tick--
	}
	for tick < MaxTick && powTick(tickBase, tick+1).LessThanOrEqual(price) {
		tick++
	}

	if powTick(tickBase, tick).GreaterThan(price) {
		return 0, fmt.Errorf("price %s below minimum tick price", price)
	}
	if tick == MaxTick && powTick(tickBase, MaxTick).LessThan(price) {
		return 0, fmt.Errorf("price %s above maximum tick price", price)
	}
	return tick, nil
}

// powTick raises base to an integer tick by squaring, rounding
// intermediates to the guard scale.
func powTick(base decimal.Decimal, tick int32) decimal.Decimal {
	abs := tick
	if abs < 0 {
		abs = -abs
	}

	result := one
	b := base
	for n := uint32(abs); n > 0; n >>= 1 {
		if n&1 == 1 {
			result = result.Mul(b).Round(guardScale)
		}
		b = b.Mul(b).Round(guardScale)
	}

	if tick < 0 {
		return one.DivRound(result, guardScale)
	}
	return result
}
