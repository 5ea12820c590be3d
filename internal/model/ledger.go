package model

import (
	"time"

	"go-gamehall/internal/config"
)

// LedgerEntry is the immutable record of one wager. It is inserted with
// Completed=false in the same transaction as the stake debit and updated
// exactly once, to Completed=true with the final winnings, in the same
// transaction as the credit. Rows are never deleted.
type LedgerEntry struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Amount    int64       `json:"amount"`
	HouseEdge int64       `json:"house_edge"`
	Winnings  int64       `json:"winnings"`
	Game      config.Game `json:"game"`
	GameRef   string      `json:"game_ref"`
	Completed bool        `json:"completed"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
