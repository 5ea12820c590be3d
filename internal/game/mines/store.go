package mines

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"go-gamehall/internal/config"
	"go-gamehall/internal/fair"
	"go-gamehall/internal/lib/gameerr"
	"go-gamehall/internal/lib/random"
	"go-gamehall/internal/model"
	"go-gamehall/internal/repository"
	"go-gamehall/internal/storage/mysql"
	"go-gamehall/internal/wallet"
)

// mysqlStore implements Store over the repositories. Each mutating
// method is one transaction; the balance broadcast fires after commit.
type mysqlStore struct {
	handler  *mysql.Handler
	sessions *repository.SessionRepository
	seeds    *repository.SeedRepository
	wallet   *wallet.Service
	cfg      config.MinesGameConfig
}

func NewStore(
	handler *mysql.Handler,
	sessions *repository.SessionRepository,
	seeds *repository.SeedRepository,
	walletSvc *wallet.Service,
	cfg config.MinesGameConfig,
) Store {
	return &mysqlStore{
		handler:  handler,
		sessions: sessions,
		seeds:    seeds,
		wallet:   walletSvc,
		cfg:      cfg,
	}
}

func (st *mysqlStore) ActiveSession(userID int64) (*model.Session, error) {
	return st.sessions.GetActiveByUser(userID)
}

func (st *mysqlStore) StartSession(user *model.User, stake int64, hazardCount int) (*model.Session, error) {
	const op = "mines.store.StartSession"

	var (
		session    model.Session
		newBalance int64
	)

	err := st.handler.WithinTransaction(func(tx *sql.Tx) error {
		pair, err := st.seeds.LockActivePair(tx, user.ID)
		if err != nil {
			return err
		}

		if pair == nil {
			pair, err = st.createPair(tx, user.ID)
			if err != nil {
				return err
			}
		}

		// The layout is fixed by the pair at the consumed nonce; the
		// same inputs reproduce it during verification.
		layout := fair.DrawPositions(pair.ServerSeed, pair.ClientSeed, pair.Nonce, st.cfg.GridSize, hazardCount)

		if err = st.seeds.ConsumeNonce(tx, pair.ID); err != nil {
			return err
		}

		sessionUUID := uuid.New()

		entryID, balance, err := st.wallet.Debit(tx, user.ID, stake, 0, config.Mines, sessionUUID.String())
		if err != nil {
			return err
		}

		session = model.Session{
			UUID:     sessionUUID,
			UserID:   user.ID,
			Status:   model.SessionActive,
			Stake:    stake,
			Hazards:  intsToPositions(layout),
			Revealed: model.PositionList{},
			Nonce:    pair.Nonce,
			LedgerID: entryID,
		}

		session.ID, err = st.sessions.SaveSession(tx, session)
		if err != nil {
			return err
		}

		newBalance = balance

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	st.wallet.NotifyBalance(user, newBalance, config.Mines, config.Outcome, stake)

	return &session, nil
}

func (st *mysqlStore) createPair(tx *sql.Tx, userID int64) (*model.SeedPair, error) {
	serverSeed := random.NewRandomString(64)

	pair := model.SeedPair{
		UserID:         userID,
		ServerSeed:     serverSeed,
		ServerSeedHash: fair.HashSeed(serverSeed),
		ClientSeed:     random.NewRandomString(16),
	}

	id, err := st.seeds.SavePair(tx, pair)
	if err != nil {
		return nil, err
	}

	pair.ID = id

	return &pair, nil
}

func (st *mysqlStore) SaveReveal(sessionID int64, revealed model.PositionList) error {
	const op = "mines.store.SaveReveal"

	err := st.handler.WithinTransaction(func(tx *sql.Tx) error {
		return st.sessions.UpdateRevealed(tx, sessionID, revealed)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// lockSession re-reads the user's active session under FOR UPDATE so
// two concurrent settle attempts on one session serialize, and the
// loser sees it already terminated.
func (st *mysqlStore) lockSession(tx *sql.Tx, userID int64, sessionID int64) error {
	locked, err := st.sessions.LockActiveByUser(tx, userID)
	if err != nil {
		return err
	}

	if locked == nil || locked.ID != sessionID {
		return gameerr.New(gameerr.NoActiveGame, "session already settled")
	}

	return nil
}

func (st *mysqlStore) SettleLoss(user *model.User, session *model.Session) error {
	const op = "mines.store.SettleLoss"

	err := st.handler.WithinTransaction(func(tx *sql.Tx) error {
		if err := st.lockSession(tx, user.ID, session.ID); err != nil {
			return err
		}

		if err := st.sessions.Terminate(tx, session.ID, model.SessionBusted); err != nil {
			return err
		}

		_, err := st.wallet.Credit(tx, user.ID, session.LedgerID, 0, config.Mines)

		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (st *mysqlStore) SettleWin(user *model.User, session *model.Session, payout int64) error {
	const op = "mines.store.SettleWin"

	var newBalance int64

	err := st.handler.WithinTransaction(func(tx *sql.Tx) error {
		if err := st.lockSession(tx, user.ID, session.ID); err != nil {
			return err
		}

		// Persist the final reveal list while the row is still Active,
		// then flip the status.
		if err := st.sessions.UpdateRevealed(tx, session.ID, session.Revealed); err != nil {
			return err
		}

		if err := st.sessions.Terminate(tx, session.ID, model.SessionCashedOut); err != nil {
			return err
		}

		balance, err := st.wallet.Credit(tx, user.ID, session.LedgerID, payout, config.Mines)
		if err != nil {
			return err
		}

		newBalance = balance

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	st.wallet.NotifyBalance(user, newBalance, config.Mines, config.Income, payout)

	return nil
}

func intsToPositions(in []int) model.PositionList {
	out := make(model.PositionList, len(in))
	copy(out, in)

	return out
}
