package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go-gamehall/internal/model"
	"go-gamehall/internal/storage/mysql"
)

type ProviderRepository struct {
	dbhandler *mysql.Handler
}

func NewProviderRepository(dbhandler *mysql.Handler) *ProviderRepository {
	return &ProviderRepository{dbhandler: dbhandler}
}

// FindByCallID is the idempotency lookup. A hit means the event was
// already applied and its recorded BalanceAfter is the answer.
func (repo *ProviderRepository) FindByCallID(q mysql.Queryer, callID string, action model.ProviderAction) (*model.ProviderTransaction, error) {
	const op = "repository.provider.FindByCallID"

	const query = "SELECT id, user_id, round_id, call_id, game_id, action, amount, balance_before, balance_after, free_spin, final " +
		"FROM provider_transactions WHERE call_id = ? AND action = ?"

	tx := &model.ProviderTransaction{}

	err := q.QueryRow(query, callID, action).Scan(&tx.ID, &tx.UserID, &tx.RoundID, &tx.CallID, &tx.GameID,
		&tx.Action, &tx.Amount, &tx.BalanceBefore, &tx.BalanceAfter, &tx.FreeSpin, &tx.Final)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tx, nil
}

func (repo *ProviderRepository) SaveTransaction(q mysql.Queryer, tx model.ProviderTransaction) (int64, error) {
	const op = "repository.provider.SaveTransaction"

	const query = "INSERT INTO provider_transactions(user_id, round_id, call_id, game_id, action, amount, balance_before, balance_after, free_spin, final, created_at) " +
		"VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	res, err := q.Exec(query, tx.UserID, tx.RoundID, tx.CallID, tx.GameID, tx.Action,
		tx.Amount, tx.BalanceBefore, tx.BalanceAfter, tx.FreeSpin, tx.Final, time.Now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// SumRoundNet returns stake and win totals recorded for one provider
// round, used to build the ledger entry when the final event lands.
func (repo *ProviderRepository) SumRoundNet(q mysql.Queryer, userID int64, roundID string) (debits int64, credits int64, err error) {
	const op = "repository.provider.SumRoundNet"

	const query = "SELECT " +
		"COALESCE(SUM(CASE WHEN action = 'debit' AND free_spin = 0 THEN amount ELSE 0 END), 0), " +
		"COALESCE(SUM(CASE WHEN action = 'credit' THEN amount ELSE 0 END), 0) " +
		"FROM provider_transactions WHERE user_id = ? AND round_id = ?"

	if err = q.QueryRow(query, userID, roundID).Scan(&debits, &credits); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	return debits, credits, nil
}

type FreeSpinRepository struct {
	dbhandler *mysql.Handler
}

func NewFreeSpinRepository(dbhandler *mysql.Handler) *FreeSpinRepository {
	return &FreeSpinRepository{dbhandler: dbhandler}
}

// LockActiveGrant returns the user's live grant for a game, locked for
// the duration of the callback transaction. Expired grants are
// deactivated lazily here rather than by a sweeper.
func (repo *FreeSpinRepository) LockActiveGrant(q mysql.Queryer, userID int64, gameID string) (*model.FreeSpinGrant, error) {
	const op = "repository.free_spin.LockActiveGrant"

	const query = "SELECT id, user_id, game_id, total_spins, performed_spins, stake_level, valid_until, active " +
		"FROM free_spin_grants WHERE user_id = ? AND game_id = ? AND active = 1 FOR UPDATE"

	grant := &model.FreeSpinGrant{}

	err := q.QueryRow(query, userID, gameID).Scan(&grant.ID, &grant.UserID, &grant.GameID,
		&grant.TotalSpins, &grant.PerformedSpins, &grant.StakeLevel, &grant.ValidUntil, &grant.Active)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if grant.ValidUntil.Before(time.Now()) {
		if err = repo.Deactivate(q, grant.ID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return nil, nil
	}

	return grant, nil
}

// ConsumeSpin records one performed spin and deactivates the grant when
// the allotment is used up.
func (repo *FreeSpinRepository) ConsumeSpin(q mysql.Queryer, grantID int64) error {
	const op = "repository.free_spin.ConsumeSpin"

	const query = "UPDATE free_spin_grants SET performed_spins = performed_spins + 1, " +
		"active = IF(performed_spins >= total_spins, 0, active), updated_at = ? " +
		"WHERE id = ? AND active = 1 AND performed_spins < total_spins"

	res, err := q.Exec(query, time.Now(), grantID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if affected == 0 {
		return fmt.Errorf("%s: grant %d exhausted or inactive", op, grantID)
	}

	return nil
}

// AddWinnings accumulates free-spin winnings on the user's latest
// grant for a game. The credit can land after the last spin has
// deactivated the grant, so the row is matched regardless of active.
func (repo *FreeSpinRepository) AddWinnings(q mysql.Queryer, userID int64, gameID string, amount int64) error {
	const op = "repository.free_spin.AddWinnings"

	const query = "UPDATE free_spin_grants SET total_winnings = total_winnings + ?, updated_at = ? " +
		"WHERE user_id = ? AND game_id = ? ORDER BY id DESC LIMIT 1"

	if _, err := q.Exec(query, amount, time.Now(), userID, gameID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (repo *FreeSpinRepository) Deactivate(q mysql.Queryer, grantID int64) error {
	const op = "repository.free_spin.Deactivate"

	const query = "UPDATE free_spin_grants SET active = 0, updated_at = ? WHERE id = ?"

	if _, err := q.Exec(query, time.Now(), grantID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
