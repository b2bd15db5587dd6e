package processor

import "errors"

// Validation errors: caller input rejected before any persisted mutation.
var (
	ErrSlippageExceeded    = errors.New("slippage tolerance exceeded")
	ErrPoolInactive        = errors.New("pool is not active")
	ErrPositionNotPending  = errors.New("position is not pending")
	ErrPositionNotOpen     = errors.New("Position is not open")
	ErrPositionNoLiquidity = errors.New("Position has no liquidity")
	ErrInvalidTickRange    = errors.New("invalid tick range")
	ErrZeroLiquidity       = errors.New("computed liquidity is zero")
	ErrSameAccount         = errors.New("account0 and account1 must be distinct")
)

// ErrPositionExists rejects a create whose id is already persisted, so a
// replayed command can never settle the same deposit twice.
var ErrPositionExists = errors.New("position already exists")

// ErrNotFound marks consistency errors: a referenced entity is missing.
var ErrNotFound = errors.New("not found")

// ErrCollectFeeUpdate is surfaced when the position rejects the fee
// settlement, e.g. its state changed between load and update.
var ErrCollectFeeUpdate = errors.New("Failed to update position with collected fees")
