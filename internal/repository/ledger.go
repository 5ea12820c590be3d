package repository

import (
	"fmt"
	"time"

	"go-gamehall/internal/config"
	"go-gamehall/internal/model"
	"go-gamehall/internal/storage/mysql"
)

type LedgerRepository struct {
	dbhandler *mysql.Handler
}

func NewLedgerRepository(dbhandler *mysql.Handler) *LedgerRepository {
	return &LedgerRepository{dbhandler: dbhandler}
}

// OpenEntry inserts the wager row for a fresh stake. Runs inside the
// same transaction as the balance debit.
func (repo *LedgerRepository) OpenEntry(q mysql.Queryer, entry model.LedgerEntry) (int64, error) {
	const op = "repository.ledger.OpenEntry"

	const query = "INSERT INTO wagers(user_id, amount, house_edge, winnings, game, game_ref, completed, created_at, updated_at) " +
		"VALUES(?, ?, ?, 0, ?, ?, 0, ?, ?)"

	now := time.Now()

	res, err := q.Exec(query, entry.UserID, entry.Amount, entry.HouseEdge, entry.Game, entry.GameRef, now, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// SettleEntry finalizes a wager exactly once. The completed guard in the
// WHERE clause makes a double settle a visible error instead of a
// silent overwrite.
func (repo *LedgerRepository) SettleEntry(q mysql.Queryer, entryID int64, winnings int64) error {
	const op = "repository.ledger.SettleEntry"

	const query = "UPDATE wagers SET winnings = ?, completed = 1, updated_at = ? WHERE id = ? AND completed = 0"

	res, err := q.Exec(query, winnings, time.Now(), entryID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if affected == 0 {
		return fmt.Errorf("%s: entry %d already completed", op, entryID)
	}

	return nil
}

// AddToEntry raises the stake on an open wager when a repeat bet
// accumulates instead of opening a new entry.
func (repo *LedgerRepository) AddToEntry(q mysql.Queryer, entryID int64, amount int64, houseEdge int64) error {
	const op = "repository.ledger.AddToEntry"

	const query = "UPDATE wagers SET amount = amount + ?, house_edge = house_edge + ?, updated_at = ? WHERE id = ? AND completed = 0"

	res, err := q.Exec(query, amount, houseEdge, time.Now(), entryID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if affected == 0 {
		return fmt.Errorf("%s: entry %d already completed", op, entryID)
	}

	return nil
}

func (repo *LedgerRepository) CreateBalanceTransaction(
	q mysql.Queryer,
	userID int64,
	value int64,
	balanceType config.BalanceType,
	game config.Game,
) error {
	const op = "repository.ledger.CreateBalanceTransaction"

	const query = "INSERT INTO user_balance_transactions(user_id, value, type, module, created_at, updated_at) " +
		"VALUES(?, ?, ?, ?, ?, ?)"

	now := time.Now()

	if _, err := q.Exec(query, userID, value, balanceType, game, now, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
