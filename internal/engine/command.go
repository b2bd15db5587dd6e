package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"liquidityEngine/internal/model"
)

// Command types accepted by the loop.
const (
	CommandCreatePosition = "create_position"
	CommandCollectFee     = "collect_fee"
	CommandClosePosition  = "close_position"
)

// Command is one already-validated, already-sequenced instruction. Seq is
// strictly increasing within a command file.
type Command struct {
	Seq        uint64          `json:"seq"`
	Type       string          `json:"type"`
	PositionID string          `json:"position_id"`
	Pair       string          `json:"pair,omitempty"`
	Account0   string          `json:"account0,omitempty"`
	Account1   string          `json:"account1,omitempty"`
	TickLower  int32           `json:"tick_lower,omitempty"`
	TickUpper  int32           `json:"tick_upper,omitempty"`
	Amount0    decimal.Decimal `json:"amount0,omitempty"`
	Amount1    decimal.Decimal `json:"amount1,omitempty"`
	Slippage   decimal.Decimal `json:"slippage,omitempty"`
}

func (c Command) validate() error {
	switch c.Type {
	case CommandCreatePosition:
		if c.PositionID == "" || c.Pair == "" || c.Account0 == "" || c.Account1 == "" {
			return fmt.Errorf("create command %d missing identifiers", c.Seq)
		}
	case CommandCollectFee, CommandClosePosition:
		if c.PositionID == "" {
			return fmt.Errorf("%s command %d missing position id", c.Type, c.Seq)
		}
	default:
		return fmt.Errorf("unknown command type %q", c.Type)
	}
	return nil
}

// newPosition builds the pending position a create command describes.
func (c Command) newPosition(now time.Time) *model.Position {
	return &model.Position{
		ID:             c.PositionID,
		Pair:           c.Pair,
		Account0Key:    c.Account0,
		Account1Key:    c.Account1,
		TickLowerIndex: c.TickLower,
		TickUpperIndex: c.TickUpper,
		Amount0Initial: c.Amount0,
		Amount1Initial: c.Amount1,
		Slippage:       c.Slippage,
		Status:         model.PositionPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
