package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go-gamehall/internal/model"
	"go-gamehall/internal/storage/mysql"
)

type SessionRepository struct {
	dbhandler *mysql.Handler
}

func NewSessionRepository(dbhandler *mysql.Handler) *SessionRepository {
	return &SessionRepository{dbhandler: dbhandler}
}

const sessionColumns = "id, uuid, user_id, status, stake, hazards, revealed, nonce, ledger_entry_id, created_at, ended_at"

func scanSession(row *sql.Row) (*model.Session, error) {
	s := &model.Session{}

	err := row.Scan(&s.ID, &s.UUID, &s.UserID, &s.Status, &s.Stake,
		&s.Hazards, &s.Revealed, &s.Nonce, &s.LedgerID, &s.CreatedAt, &s.EndedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return s, nil
}

func (repo *SessionRepository) SaveSession(q mysql.Queryer, s model.Session) (int64, error) {
	const op = "repository.session.SaveSession"

	const query = "INSERT INTO sessions(uuid, user_id, status, stake, hazards, revealed, nonce, ledger_entry_id, created_at) " +
		"VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)"

	res, err := q.Exec(query, s.UUID, s.UserID, model.SessionActive, s.Stake,
		s.Hazards, s.Revealed, s.Nonce, s.LedgerID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// GetActiveByUser returns the user's Active session, nil when none.
func (repo *SessionRepository) GetActiveByUser(userID int64) (*model.Session, error) {
	const op = "repository.session.GetActiveByUser"

	const query = "SELECT " + sessionColumns + " FROM sessions WHERE user_id = ? AND status = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(query, userID, model.SessionActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

// LockActiveByUser is the FOR UPDATE variant the settle paths run
// inside their transactions so two concurrent settlements of one
// session serialize.
func (repo *SessionRepository) LockActiveByUser(q mysql.Queryer, userID int64) (*model.Session, error) {
	const op = "repository.session.LockActiveByUser"

	const query = "SELECT " + sessionColumns + " FROM sessions WHERE user_id = ? AND status = ? FOR UPDATE"

	s, err := scanSession(q.QueryRow(query, userID, model.SessionActive))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

func (repo *SessionRepository) UpdateRevealed(q mysql.Queryer, sessionID int64, revealed model.PositionList) error {
	const op = "repository.session.UpdateRevealed"

	const query = "UPDATE sessions SET revealed = ? WHERE id = ? AND status = ?"

	if _, err := q.Exec(query, revealed, sessionID, model.SessionActive); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Terminate moves an Active session to a terminal status. The status
// guard makes double termination impossible.
func (repo *SessionRepository) Terminate(q mysql.Queryer, sessionID int64, status model.SessionStatus) error {
	const op = "repository.session.Terminate"

	const query = "UPDATE sessions SET status = ?, ended_at = ? WHERE id = ? AND status = ?"

	res, err := q.Exec(query, status, time.Now(), sessionID, model.SessionActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if affected == 0 {
		return fmt.Errorf("%s: session %d not active", op, sessionID)
	}

	return nil
}
