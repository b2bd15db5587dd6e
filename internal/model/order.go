package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the terminal state of a swap order.
type OrderStatus string

const (
	OrderProcessing OrderStatus = "processing"
	OrderSuccess    OrderStatus = "success"
	OrderError      OrderStatus = "error"
)

// Order is an ephemeral swap record. The multi-tick swap walk that fills it
// lives outside this engine; the order only carries the request and its
// settlement figures.
type Order struct {
	ID              string          `json:"id"`
	Pair            string          `json:"pair"`
	AccountKey      string          `json:"account_key"`
	ZeroForOne      bool            `json:"zero_for_one"`
	AmountRequested decimal.Decimal `json:"amount_requested"`
	AmountEstimated decimal.Decimal `json:"amount_estimated"`
	AmountIn        decimal.Decimal `json:"amount_in"`
	AmountOut       decimal.Decimal `json:"amount_out"`
	Fee             decimal.Decimal `json:"fee"`
	ProtocolFee     decimal.Decimal `json:"protocol_fee"`
	TickBefore      int32           `json:"tick_before"`
	TickAfter       int32           `json:"tick_after"`
	Status          OrderStatus     `json:"status"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Complete records the settlement figures and marks the order successful.
func (o *Order) Complete(amountIn, amountOut, fee, protocolFee decimal.Decimal, tickAfter int32, now time.Time) bool {
	if o.Status != OrderProcessing {
		return false
	}
	o.AmountIn = amountIn
	o.AmountOut = amountOut
	o.Fee = fee
	o.ProtocolFee = protocolFee
	o.TickAfter = tickAfter
	o.Status = OrderSuccess
	o.UpdatedAt = now
	return true
}

// Fail marks the order failed with a single reason. The message is set at
// most once.
func (o *Order) Fail(reason string, now time.Time) bool {
	if o.Status != OrderProcessing {
		return false
	}
	o.Status = OrderError
	o.ErrorMessage = reason
	o.UpdatedAt = now
	return true
}
