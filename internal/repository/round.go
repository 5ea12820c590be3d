package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go-gamehall/internal/config"
	"go-gamehall/internal/model"
	"go-gamehall/internal/storage/mysql"
)

type RoundRepository struct {
	dbhandler *mysql.Handler
}

func NewRoundRepository(dbhandler *mysql.Handler) *RoundRepository {
	return &RoundRepository{dbhandler: dbhandler}
}

func (repo *RoundRepository) SaveRound(round model.Round) (int64, error) {
	const op = "repository.round.SaveRound"

	const query = "INSERT INTO rounds(uuid, status, nonce, created_at) VALUES(?, ?, ?, ?)"

	res, err := repo.dbhandler.PrepareAndExecute(query, round.UUID, model.RoundBetting, round.Nonce, round.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func scanRound(row *sql.Row) (*model.Round, error) {
	round := &model.Round{}

	var outcome sql.NullString

	err := row.Scan(&round.ID, &round.UUID, &round.Status, &outcome,
		&round.Nonce, &round.CreatedAt, &round.RolledAt, &round.EndedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	round.Outcome = config.Color(outcome.String)

	return round, nil
}

const roundColumns = "id, uuid, status, outcome, nonce, created_at, rolled_at, ended_at"

// LockRound reads the round row under FOR UPDATE. Bet placement locks
// the row so it serializes with the driver's status transitions; a
// roll landing first is visible before the wager commits.
func (repo *RoundRepository) LockRound(q mysql.Queryer, id int64) (*model.Round, error) {
	const op = "repository.round.LockRound"

	const query = "SELECT " + roundColumns + " FROM rounds WHERE id = ? FOR UPDATE"

	round, err := scanRound(q.QueryRow(query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return round, nil
}

// GetOpenRound returns the single non-settled round, if any. More than
// one open round means the at-most-one invariant was violated and is
// reported as an error.
func (repo *RoundRepository) GetOpenRound() (*model.Round, error) {
	const op = "repository.round.GetOpenRound"

	const countQuery = "SELECT COUNT(*) FROM rounds WHERE status != ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(countQuery, model.RoundSettled)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var open int

	if err = row.Scan(&open); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if open > 1 {
		return nil, fmt.Errorf("%s: %d rounds open at once", op, open)
	}

	const query = "SELECT " + roundColumns + " FROM rounds WHERE status != ? LIMIT 1"

	row, err = repo.dbhandler.PrepareAndQueryRow(query, model.RoundSettled)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	round, err := scanRound(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return round, nil
}

// GetMaxNonce returns the highest house nonce used by any round, 0
// when no rounds exist.
func (repo *RoundRepository) GetMaxNonce() (int64, error) {
	const op = "repository.round.GetMaxNonce"

	const query = "SELECT COALESCE(MAX(nonce), 0) FROM rounds"

	row, err := repo.dbhandler.PrepareAndQueryRow(query)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var nonce int64

	if err = row.Scan(&nonce); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return nonce, nil
}

// MarkRolled persists the outcome. The status guard keeps a re-entered
// driver from rolling the same round twice.
func (repo *RoundRepository) MarkRolled(roundID int64, outcome config.Color, rolledAt time.Time) (bool, error) {
	const op = "repository.round.MarkRolled"

	const query = "UPDATE rounds SET status = ?, outcome = ?, rolled_at = ? WHERE id = ? AND status = ?"

	res, err := repo.dbhandler.PrepareAndExecute(query, model.RoundRolled, outcome, rolledAt, roundID, model.RoundBetting)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return affected == 1, nil
}

func (repo *RoundRepository) MarkSettled(roundID int64, endedAt time.Time) error {
	const op = "repository.round.MarkSettled"

	const query = "UPDATE rounds SET status = ?, ended_at = ? WHERE id = ? AND status = ?"

	if _, err := repo.dbhandler.PrepareAndExecute(query, model.RoundSettled, endedAt, roundID, model.RoundRolled); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

type RoundBetRepository struct {
	dbhandler *mysql.Handler
}

func NewRoundBetRepository(dbhandler *mysql.Handler) *RoundBetRepository {
	return &RoundBetRepository{dbhandler: dbhandler}
}

func (repo *RoundBetRepository) SaveBet(q mysql.Queryer, bet model.RoundBet) (int64, error) {
	const op = "repository.round_bet.SaveBet"

	const query = "INSERT INTO round_bets(round_id, user_id, color, amount, ledger_entry_id, created_at, updated_at) " +
		"VALUES(?, ?, ?, ?, ?, ?, ?)"

	now := time.Now()

	res, err := q.Exec(query, bet.RoundID, bet.UserID, bet.Color, bet.Amount, bet.LedgerEntryID, now, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (repo *RoundBetRepository) AddToBet(q mysql.Queryer, betID int64, amount int64) error {
	const op = "repository.round_bet.AddToBet"

	const query = "UPDATE round_bets SET amount = amount + ?, updated_at = ? WHERE id = ?"

	if _, err := q.Exec(query, amount, time.Now(), betID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// GetBetsByRoundAndUser returns the user's bets in one round, one row
// per color.
func (repo *RoundBetRepository) GetBetsByRoundAndUser(q mysql.Queryer, roundID int64, userID int64) ([]model.RoundBet, error) {
	const op = "repository.round_bet.GetBetsByRoundAndUser"

	const query = "SELECT id, round_id, user_id, color, amount, ledger_entry_id FROM round_bets " +
		"WHERE round_id = ? AND user_id = ? FOR UPDATE"

	rows, err := q.Query(query, roundID, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return collectBets(rows, op)
}

func (repo *RoundBetRepository) GetBetsByRound(roundID int64) ([]model.RoundBet, error) {
	const op = "repository.round_bet.GetBetsByRound"

	const query = "SELECT id, round_id, user_id, color, amount, ledger_entry_id FROM round_bets WHERE round_id = ?"

	rows, err := repo.dbhandler.PrepareAndQuery(query, roundID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return collectBets(rows, op)
}

func collectBets(rows *sql.Rows, op string) ([]model.RoundBet, error) {
	var bets []model.RoundBet

	for rows.Next() {
		var bet model.RoundBet

		err := rows.Scan(&bet.ID, &bet.RoundID, &bet.UserID, &bet.Color, &bet.Amount, &bet.LedgerEntryID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		bets = append(bets, bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bets, nil
}
