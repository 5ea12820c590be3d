package provider

import (
	"database/sql"
	"fmt"

	"go-gamehall/internal/config"
	"go-gamehall/internal/lib/gameerr"
	"go-gamehall/internal/model"
	"go-gamehall/internal/repository"
	"go-gamehall/internal/storage/mysql"
	"go-gamehall/internal/wallet"
)

type mysqlStore struct {
	handler *mysql.Handler
	users   *repository.UserRepository
	ledger  *repository.LedgerRepository
	calls   *repository.ProviderRepository
	grants  *repository.FreeSpinRepository
	wallet  *wallet.Service
}

func NewStore(
	handler *mysql.Handler,
	users *repository.UserRepository,
	ledger *repository.LedgerRepository,
	calls *repository.ProviderRepository,
	grants *repository.FreeSpinRepository,
	walletSvc *wallet.Service,
) Store {
	return &mysqlStore{
		handler: handler,
		users:   users,
		ledger:  ledger,
		calls:   calls,
		grants:  grants,
		wallet:  walletSvc,
	}
}

func (st *mysqlStore) ResolveUser(userID int64) (*model.User, error) {
	return st.users.GetUserByID(userID)
}

func (st *mysqlStore) ReadBalance(userID int64) (int64, error) {
	return st.users.GetBalance(userID)
}

func (st *mysqlStore) FindCall(callID string, action model.ProviderAction) (*model.ProviderTransaction, error) {
	return st.calls.FindByCallID(st.handler.Conn, callID, action)
}

// replayAnswer repeats the idempotency lookup inside the transaction,
// once the row locks are held. The reconciler's pre-dispatch lookup
// narrows the window but cannot close it: two at-least-once deliveries
// of one call id can both miss it, and only the locked re-check
// guarantees a single mutation.
func (st *mysqlStore) replayAnswer(tx *sql.Tx, cb *Callback) (*model.ProviderTransaction, error) {
	if cb.CallID == "" {
		return nil, nil
	}

	return st.calls.FindByCallID(tx, cb.CallID, cb.Action)
}

func (st *mysqlStore) RecordBalanceCheck(user *model.User, cb *Callback, balance int64) error {
	const op = "provider.store.RecordBalanceCheck"

	err := st.handler.WithinTransaction(func(tx *sql.Tx) error {
		prior, err := st.replayAnswer(tx, cb)
		if err != nil {
			return err
		}

		if prior != nil {
			return nil
		}

		_, err = st.calls.SaveTransaction(tx, model.ProviderTransaction{
			UserID:        user.ID,
			RoundID:       cb.RoundID,
			CallID:        cb.CallID,
			GameID:        cb.GameID,
			Action:        model.ProviderBalance,
			Amount:        0,
			BalanceBefore: balance,
			BalanceAfter:  balance,
			Final:         cb.Final,
		})

		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (st *mysqlStore) ApplyDebit(user *model.User, cb *Callback) (int64, error) {
	const op = "provider.store.ApplyDebit"

	var (
		newBalance int64
		replayed   bool
	)

	err := st.handler.WithinTransaction(func(tx *sql.Tx) error {
		balance, err := st.users.LockBalance(tx, user.ID)
		if err != nil {
			return err
		}

		prior, err := st.replayAnswer(tx, cb)
		if err != nil {
			return err
		}

		if prior != nil {
			newBalance = prior.BalanceAfter
			replayed = true

			return nil
		}

		if balance < cb.Amount {
			return gameerr.New(gameerr.InsufficientBalance, "balance below provider debit")
		}

		newBalance = balance - cb.Amount

		if err = st.users.SetBalance(tx, user.ID, newBalance); err != nil {
			return err
		}

		if err = st.ledger.CreateBalanceTransaction(tx, user.ID, cb.Amount, config.Outcome, config.Provider); err != nil {
			return err
		}

		_, err = st.calls.SaveTransaction(tx, model.ProviderTransaction{
			UserID:        user.ID,
			RoundID:       cb.RoundID,
			CallID:        cb.CallID,
			GameID:        cb.GameID,
			Action:        model.ProviderDebit,
			Amount:        cb.Amount,
			BalanceBefore: balance,
			BalanceAfter:  newBalance,
			Final:         cb.Final,
		})
		if err != nil {
			return err
		}

		if cb.Final {
			return st.writeRoundEntry(tx, user.ID, cb.RoundID)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if !replayed {
		st.wallet.NotifyBalance(user, newBalance, config.Provider, config.Outcome, cb.Amount)
	}

	return newBalance, nil
}

func (st *mysqlStore) ApplyFreeSpinDebit(user *model.User, cb *Callback) (int64, error) {
	const op = "provider.store.ApplyFreeSpinDebit"

	var balance int64

	err := st.handler.WithinTransaction(func(tx *sql.Tx) error {
		// The balance stays put; the spin is the stake. The lock still
		// runs first so every callback path serializes on the user row.
		var err error

		balance, err = st.users.LockBalance(tx, user.ID)
		if err != nil {
			return err
		}

		prior, err := st.replayAnswer(tx, cb)
		if err != nil {
			return err
		}

		if prior != nil {
			balance = prior.BalanceAfter

			return nil
		}

		grant, err := st.grants.LockActiveGrant(tx, user.ID, cb.GameID)
		if err != nil {
			return err
		}

		if grant == nil {
			return fmt.Errorf("no active free spin grant for game %s", cb.GameID)
		}

		if err = st.grants.ConsumeSpin(tx, grant.ID); err != nil {
			return err
		}

		_, err = st.calls.SaveTransaction(tx, model.ProviderTransaction{
			UserID:        user.ID,
			RoundID:       cb.RoundID,
			CallID:        cb.CallID,
			GameID:        cb.GameID,
			Action:        model.ProviderDebit,
			Amount:        cb.Amount,
			BalanceBefore: balance,
			BalanceAfter:  balance,
			FreeSpin:      true,
			Final:         cb.Final,
		})
		if err != nil {
			return err
		}

		if cb.Final {
			return st.writeRoundEntry(tx, user.ID, cb.RoundID)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return balance, nil
}

func (st *mysqlStore) ApplyCredit(user *model.User, cb *Callback) (int64, error) {
	const op = "provider.store.ApplyCredit"

	var (
		newBalance int64
		replayed   bool
	)

	err := st.handler.WithinTransaction(func(tx *sql.Tx) error {
		balance, err := st.users.LockBalance(tx, user.ID)
		if err != nil {
			return err
		}

		prior, err := st.replayAnswer(tx, cb)
		if err != nil {
			return err
		}

		if prior != nil {
			newBalance = prior.BalanceAfter
			replayed = true

			return nil
		}

		newBalance = balance + cb.Amount

		if err = st.users.SetBalance(tx, user.ID, newBalance); err != nil {
			return err
		}

		if cb.Amount > 0 {
			if err = st.ledger.CreateBalanceTransaction(tx, user.ID, cb.Amount, config.Income, config.Provider); err != nil {
				return err
			}
		}

		_, err = st.calls.SaveTransaction(tx, model.ProviderTransaction{
			UserID:        user.ID,
			RoundID:       cb.RoundID,
			CallID:        cb.CallID,
			GameID:        cb.GameID,
			Action:        model.ProviderCredit,
			Amount:        cb.Amount,
			BalanceBefore: balance,
			BalanceAfter:  newBalance,
			FreeSpin:      cb.Type == TypeFreeSpin,
			Final:         cb.Final,
		})
		if err != nil {
			return err
		}

		// Free-spin winnings are real money on the balance, and they
		// also accumulate on the grant for promo accounting.
		if cb.Type == TypeFreeSpin && cb.Amount > 0 {
			if err = st.grants.AddWinnings(tx, user.ID, cb.GameID, cb.Amount); err != nil {
				return err
			}
		}

		if cb.Final {
			return st.writeRoundEntry(tx, user.ID, cb.RoundID)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if !replayed {
		st.wallet.NotifyBalance(user, newBalance, config.Provider, config.Income, cb.Amount)
	}

	return newBalance, nil
}

// writeRoundEntry folds the provider round's recorded debits and
// credits into one completed ledger entry when the final event of the
// round lands.
func (st *mysqlStore) writeRoundEntry(tx *sql.Tx, userID int64, roundID string) error {
	debits, credits, err := st.calls.SumRoundNet(tx, userID, roundID)
	if err != nil {
		return err
	}

	entryID, err := st.ledger.OpenEntry(tx, model.LedgerEntry{
		UserID:  userID,
		Amount:  debits,
		Game:    config.Provider,
		GameRef: roundID,
	})
	if err != nil {
		return err
	}

	return st.ledger.SettleEntry(tx, entryID, credits)
}
