package model

import (
	"time"

	"github.com/google/uuid"

	"go-gamehall/internal/config"
)

type RoundStatus string

const (
	RoundBetting RoundStatus = "betting"
	RoundRolled  RoundStatus = "rolled"
	RoundSettled RoundStatus = "settled"
)

// Round is one shared wheel round. At most one row per game is ever in a
// non-settled status; the driver relies on that to rehydrate after a
// restart.
type Round struct {
	ID        int64        `json:"id"`
	UUID      uuid.UUID    `json:"uuid"`
	Status    RoundStatus  `json:"status"`
	Outcome   config.Color `json:"outcome"`
	Nonce     int64        `json:"nonce"`
	CreatedAt time.Time    `json:"created_at"`
	RolledAt  *time.Time   `json:"rolled_at"`
	EndedAt   *time.Time   `json:"ended_at"`
}

// RoundBet accumulates a user's stake on one color. Repeat bets on the
// same color raise Amount on the existing row instead of inserting.
type RoundBet struct {
	ID            int64        `json:"id"`
	RoundID       int64        `json:"round_id"`
	UserID        int64        `json:"user_id"`
	Color         config.Color `json:"color"`
	Amount        int64        `json:"amount"`
	LedgerEntryID int64        `json:"ledger_entry_id"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
