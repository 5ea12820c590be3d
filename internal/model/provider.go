package model

import "time"

type ProviderAction string

const (
	ProviderBalance ProviderAction = "balance"
	ProviderDebit   ProviderAction = "debit"
	ProviderCredit  ProviderAction = "credit"
)

// ProviderTransaction is the append-only audit row for one external
// callback. (CallID, Action) is unique and serves as the idempotency
// key: a replay reads the stored BalanceAfter instead of mutating.
type ProviderTransaction struct {
	ID            int64          `json:"id"`
	UserID        int64          `json:"user_id"`
	RoundID       string         `json:"round_id"`
	CallID        string         `json:"call_id"`
	GameID        string         `json:"game_id"`
	Action        ProviderAction `json:"action"`
	Amount        int64          `json:"amount"`
	BalanceBefore int64          `json:"balance_before"`
	BalanceAfter  int64          `json:"balance_after"`
	FreeSpin      bool           `json:"free_spin"`
	Final         bool           `json:"final"`
	CreatedAt     time.Time      `json:"created_at"`
}

// FreeSpinGrant is a promotional allotment of stakeless plays on one
// provider game. Debit callbacks consume spins; the grant deactivates
// on completion or expiry.
type FreeSpinGrant struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	GameID         string    `json:"game_id"`
	TotalSpins     int       `json:"total_spins"`
	PerformedSpins int       `json:"performed_spins"`
	StakeLevel     int64     `json:"stake_level"`
	TotalWinnings  int64     `json:"total_winnings"`
	ValidUntil     time.Time `json:"valid_until"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
