package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInsufficientBalance is returned by Debit when the available balance
// cannot cover the amount.
var ErrInsufficientBalance = fmt.Errorf("Insufficient balance")

// Account is a single-currency balance record. The liquidity engine only
// moves available balance; freezing belongs to the matching subsystem.
type Account struct {
	Key              string          `json:"key"`
	Currency         string          `json:"currency"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	FrozenBalance    decimal.Decimal `json:"frozen_balance"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Debit removes amount from the available balance. Negative amounts and
// overdrafts are rejected.
func (a *Account) Debit(amount decimal.Decimal, now time.Time) error {
	if amount.IsNegative() {
		return fmt.Errorf("debit amount must not be negative: %s", amount)
	}
	if a.AvailableBalance.LessThan(amount) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, a.AvailableBalance, amount)
	}
	a.AvailableBalance = a.AvailableBalance.Sub(amount)
	a.UpdatedAt = now
	return nil
}

// Credit adds amount to the available balance.
func (a *Account) Credit(amount decimal.Decimal, now time.Time) error {
	if amount.IsNegative() {
		return fmt.Errorf("credit amount must not be negative: %s", amount)
	}
	a.AvailableBalance = a.AvailableBalance.Add(amount)
	a.UpdatedAt = now
	return nil
}

func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// AccountHistory is a best-effort ledger record of one balance movement.
type AccountHistory struct {
	AccountKey string          `json:"account_key"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  string          `json:"reference"`
	CreatedAt  time.Time       `json:"created_at"`
}

// History record types emitted by the position processors.
const (
	HistoryPositionDeposit  = "position_deposit"
	HistoryPositionWithdraw = "position_withdraw"
	HistoryFeeCollect       = "fee_collect"
)
