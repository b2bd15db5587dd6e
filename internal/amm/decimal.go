package amm

import "github.com/shopspring/decimal"

// Scale is the number of fractional digits carried by all monetary and
// liquidity quantities. Every scale-changing operation rounds half-up back
// to this scale.
const Scale = 16

// guardScale is used for intermediate price math so that repeated
// multiplication does not erode the digits that survive normalization.
const guardScale = 24

// Normalize rounds a quantity to the engine-wide fixed scale.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// ClampZero floors a quantity at zero.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
