package wallet

import (
	"database/sql"
	"fmt"

	"golang.org/x/exp/slog"

	"go-gamehall/internal/config"
	"go-gamehall/internal/event"
	"go-gamehall/internal/job"
	"go-gamehall/internal/lib/converter"
	"go-gamehall/internal/lib/gameerr"
	"go-gamehall/internal/model"
	"go-gamehall/internal/repository"
)

// Service owns the balance mutation discipline: every debit or credit
// locks the balance row, writes the balance transaction, and touches the
// wager ledger inside one caller-provided database transaction. Balance
// broadcasts go through the job queue and must only be dispatched by the
// caller after its transaction commits.
type Service struct {
	users  *repository.UserRepository
	ledger *repository.LedgerRepository
	jobs   job.Queue
	evt    event.Trigger
	log    *slog.Logger
}

func New(
	users *repository.UserRepository,
	ledger *repository.LedgerRepository,
	jobs job.Queue,
	evt event.Trigger,
	log *slog.Logger,
) *Service {
	return &Service{
		users:  users,
		ledger: ledger,
		jobs:   jobs,
		evt:    evt,
		log:    log,
	}
}

// Debit takes the stake from the user and opens the wager's ledger
// entry. Returns the entry id and the post-debit balance.
func (s *Service) Debit(
	tx *sql.Tx,
	userID int64,
	amount int64,
	houseEdge int64,
	game config.Game,
	gameRef string,
) (int64, int64, error) {
	const op = "wallet.Debit"

	if amount <= 0 {
		return 0, 0, gameerr.New(gameerr.InvalidAmount, "stake must be positive")
	}

	balance, err := s.users.LockBalance(tx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	if balance < amount {
		return 0, 0, gameerr.New(gameerr.InsufficientBalance, "balance too low for stake")
	}

	newBalance := balance - amount

	if err = s.users.SetBalance(tx, userID, newBalance); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = s.ledger.CreateBalanceTransaction(tx, userID, amount, config.Outcome, game); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	entryID, err := s.ledger.OpenEntry(tx, model.LedgerEntry{
		UserID:    userID,
		Amount:    amount,
		HouseEdge: houseEdge,
		Game:      game,
		GameRef:   gameRef,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	return entryID, newBalance, nil
}

// Accumulate debits an additional stake into an existing open entry
// instead of opening a second one (repeat wheel bets on one color).
func (s *Service) Accumulate(
	tx *sql.Tx,
	userID int64,
	entryID int64,
	amount int64,
	houseEdge int64,
	game config.Game,
) (int64, error) {
	const op = "wallet.Accumulate"

	if amount <= 0 {
		return 0, gameerr.New(gameerr.InvalidAmount, "stake must be positive")
	}

	balance, err := s.users.LockBalance(tx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if balance < amount {
		return 0, gameerr.New(gameerr.InsufficientBalance, "balance too low for stake")
	}

	newBalance := balance - amount

	if err = s.users.SetBalance(tx, userID, newBalance); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = s.ledger.CreateBalanceTransaction(tx, userID, amount, config.Outcome, game); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = s.ledger.AddToEntry(tx, entryID, amount, houseEdge); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return newBalance, nil
}

// Credit pays winnings and finalizes the entry in one step. A zero
// winnings credit settles the entry without moving the balance.
func (s *Service) Credit(
	tx *sql.Tx,
	userID int64,
	entryID int64,
	winnings int64,
	game config.Game,
) (int64, error) {
	const op = "wallet.Credit"

	balance, err := s.users.LockBalance(tx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	newBalance := balance

	if winnings > 0 {
		newBalance = balance + winnings

		if err = s.users.SetBalance(tx, userID, newBalance); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}

		if err = s.ledger.CreateBalanceTransaction(tx, userID, winnings, config.Income, game); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = s.ledger.SettleEntry(tx, entryID, winnings); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return newBalance, nil
}

// NotifyBalance dispatches the post-commit balance broadcast to the
// user's private channel.
func (s *Service) NotifyBalance(user *model.User, balance int64, game config.Game, balanceType config.BalanceType, amount int64) {
	s.jobs.Dispatch(&job.SendEventJob{
		Event: s.evt,
		EventMessage: event.Message{
			Channel: event.UserChannel(user.UUID.String()),
			Event:   event.EventBalanceSet,
			Data: map[string]interface{}{
				"user_uuid":      user.UUID.String(),
				"amount":         converter.MinorToMajor(amount),
				"operation_type": string(balanceType),
				"module":         string(game),
				"balance":        converter.MinorToMajor(balance),
			},
		},
	}, 0)
}
