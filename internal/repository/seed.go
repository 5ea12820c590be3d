package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go-gamehall/internal/model"
	"go-gamehall/internal/storage/mysql"
)

type SeedRepository struct {
	dbhandler *mysql.Handler
}

func NewSeedRepository(dbhandler *mysql.Handler) *SeedRepository {
	return &SeedRepository{dbhandler: dbhandler}
}

const seedColumns = "id, user_id, server_seed, server_seed_hash, client_seed, nonce, retired"

func scanSeed(row *sql.Row) (*model.SeedPair, error) {
	pair := &model.SeedPair{}

	err := row.Scan(&pair.ID, &pair.UserID, &pair.ServerSeed, &pair.ServerSeedHash,
		&pair.ClientSeed, &pair.Nonce, &pair.Retired)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return pair, nil
}

func (repo *SeedRepository) GetActivePair(userID int64) (*model.SeedPair, error) {
	const op = "repository.seed.GetActivePair"

	const query = "SELECT " + seedColumns + " FROM seed_pairs WHERE user_id = ? AND retired = 0"

	row, err := repo.dbhandler.PrepareAndQueryRow(query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := scanSeed(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// LockActivePair reads the live pair under FOR UPDATE so that the nonce
// increment is serialized with the wager that consumes it.
func (repo *SeedRepository) LockActivePair(q mysql.Queryer, userID int64) (*model.SeedPair, error) {
	const op = "repository.seed.LockActivePair"

	const query = "SELECT " + seedColumns + " FROM seed_pairs WHERE user_id = ? AND retired = 0 FOR UPDATE"

	pair, err := scanSeed(q.QueryRow(query, userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// ConsumeNonce bumps the pair's nonce by exactly one. Called once per
// wager, inside the wager's transaction.
func (repo *SeedRepository) ConsumeNonce(q mysql.Queryer, pairID int64) error {
	const op = "repository.seed.ConsumeNonce"

	const query = "UPDATE seed_pairs SET nonce = nonce + 1, updated_at = ? WHERE id = ? AND retired = 0"

	res, err := q.Exec(query, time.Now(), pairID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if affected == 0 {
		return fmt.Errorf("%s: pair %d retired or missing", op, pairID)
	}

	return nil
}

func (repo *SeedRepository) SavePair(q mysql.Queryer, pair model.SeedPair) (int64, error) {
	const op = "repository.seed.SavePair"

	const query = "INSERT INTO seed_pairs(user_id, server_seed, server_seed_hash, client_seed, nonce, retired, created_at, updated_at) " +
		"VALUES(?, ?, ?, ?, 0, 0, ?, ?)"

	now := time.Now()

	res, err := q.Exec(query, pair.UserID, pair.ServerSeed, pair.ServerSeedHash, pair.ClientSeed, now, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (repo *SeedRepository) RetirePair(q mysql.Queryer, pairID int64) error {
	const op = "repository.seed.RetirePair"

	const query = "UPDATE seed_pairs SET retired = 1, updated_at = ? WHERE id = ?"

	if _, err := q.Exec(query, time.Now(), pairID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
