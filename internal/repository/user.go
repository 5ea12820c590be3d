package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go-gamehall/internal/model"
	"go-gamehall/internal/storage/mysql"
)

type UserRepository struct {
	dbhandler *mysql.Handler
}

func NewUserRepository(dbhandler *mysql.Handler) *UserRepository {
	return &UserRepository{dbhandler: dbhandler}
}

func (repo *UserRepository) FindUserByUUID(uuid string) (*model.User, error) {
	const op = "repository.user.FindUserByUUID"

	const query = "SELECT id, uuid FROM users WHERE uuid = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(query, uuid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &model.User{}

	err = row.Scan(&user.ID, &user.UUID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (repo *UserRepository) GetUserByID(userID int64) (*model.User, error) {
	const op = "repository.user.GetUserByID"

	const query = "SELECT id, uuid FROM users WHERE id = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &model.User{}

	err = row.Scan(&user.ID, &user.UUID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// LockBalance reads the user's balance under FOR UPDATE. Must run inside
// a transaction; the row lock is what serializes concurrent wagers on
// the same funds.
func (repo *UserRepository) LockBalance(q mysql.Queryer, userID int64) (int64, error) {
	const op = "repository.user.LockBalance"

	const query = "SELECT balance FROM user_balances WHERE user_id = ? FOR UPDATE"

	var balance int64

	if err := q.QueryRow(query, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return balance, nil
}

func (repo *UserRepository) SetBalance(q mysql.Queryer, userID int64, balance int64) error {
	const op = "repository.user.SetBalance"

	const query = "UPDATE user_balances SET balance = ?, updated_at = ? WHERE user_id = ?"

	if _, err := q.Exec(query, balance, time.Now(), userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// GetBalance is the unlocked read used by read-only paths (the provider
// balance action). Mutating paths go through LockBalance.
func (repo *UserRepository) GetBalance(userID int64) (int64, error) {
	const op = "repository.user.GetBalance"

	const query = "SELECT balance FROM user_balances WHERE user_id = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(query, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var balance int64

	if err = row.Scan(&balance); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return balance, nil
}
