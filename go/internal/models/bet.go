package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bet represents one user's stake in one round. A user has at most one bet
// per round; CashOutMultiplier and Winnings are written at most once.
type Bet struct {
	RoundID           uuid.UUID        `json:"round_id"`
	UserID            uuid.UUID        `json:"user_id"`
	Stake             decimal.Decimal  `json:"stake"`
	CashOutMultiplier *decimal.Decimal `json:"cash_out_multiplier,omitempty"`
	CashOutAt         *time.Time       `json:"cash_out_at,omitempty"`
	Winnings          decimal.Decimal  `json:"winnings"`
	Settled           bool             `json:"settled"`
	PlacedAt          time.Time        `json:"placed_at"`
}

// CashedOut reports whether the bet has locked in a multiplier.
func (b *Bet) CashedOut() bool {
	return b.CashOutMultiplier != nil
}
