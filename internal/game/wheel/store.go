package wheel

import (
	"database/sql"
	"fmt"
	"time"

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

// HouseUserID is the reserved owner of the wheel's seed pair. Wheel
// outcomes are shared, so they derive from one house pair with the
// round nonce, not from any player's pair.
const HouseUserID = 0

type mysqlStore struct {
	handler *mysql.Handler
	rounds  *repository.RoundRepository
	bets    *repository.RoundBetRepository
	seeds   *repository.SeedRepository
	ledger  *repository.LedgerRepository
	users   *repository.UserRepository
	wallet  *wallet.Service
}

// HouseSeeder provisions the house seed pair on boot.
type HouseSeeder interface {
	EnsureHouseSeed() error
}

// Stores bundles the wheel persistence implementations built over one
// repository set.
type Stores struct {
	Rounds  RoundStore
	Bets    BetStore
	Settler Settler
	Roller  Roller
	Seeder  HouseSeeder
}

func NewStores(
	handler *mysql.Handler,
	rounds *repository.RoundRepository,
	bets *repository.RoundBetRepository,
	seeds *repository.SeedRepository,
	ledger *repository.LedgerRepository,
	users *repository.UserRepository,
	walletSvc *wallet.Service,
) *Stores {
	st := &mysqlStore{
		handler: handler,
		rounds:  rounds,
		bets:    bets,
		seeds:   seeds,
		ledger:  ledger,
		users:   users,
		wallet:  walletSvc,
	}

	return &Stores{
		Rounds:  st,
		Bets:    st,
		Settler: st,
		Roller:  st,
		Seeder:  st,
	}
}

func (st *mysqlStore) OpenRound() (*model.Round, error) {
	return st.rounds.GetOpenRound()
}

func (st *mysqlStore) CreateRound() (*model.Round, error) {
	const op = "wheel.store.CreateRound"

	nonce, err := st.rounds.GetMaxNonce()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	round := model.Round{
		UUID:      uuid.New(),
		Status:    model.RoundBetting,
		Nonce:     nonce + 1,
		CreatedAt: time.Now(),
	}

	round.ID, err = st.rounds.SaveRound(round)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &round, nil
}

func (st *mysqlStore) MarkRolled(roundID int64, outcome config.Color, at time.Time) (bool, error) {
	return st.rounds.MarkRolled(roundID, outcome, at)
}

func (st *mysqlStore) MarkSettled(roundID int64, at time.Time) error {
	return st.rounds.MarkSettled(roundID, at)
}

func (st *mysqlStore) BetsByRound(roundID int64) ([]model.RoundBet, error) {
	return st.bets.GetBetsByRound(roundID)
}

// PayBet settles one bet's ledger entry and pays any winnings, one
// transaction per bet, broadcasting the balance after commit.
func (st *mysqlStore) PayBet(bet model.RoundBet, winnings int64) error {
	const op = "wheel.store.PayBet"

	var newBalance int64

	err := st.handler.WithinTransaction(func(tx *sql.Tx) error {
		balance, err := st.wallet.Credit(tx, bet.UserID, bet.LedgerEntryID, winnings, config.Wheel)
		if err != nil {
			return err
		}

		newBalance = balance

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if winnings > 0 {
		user, err := st.users.GetUserByID(bet.UserID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if user != nil {
			st.wallet.NotifyBalance(user, newBalance, config.Wheel, config.Income, winnings)
		}
	}

	return nil
}

// Outcome draws the round color from the house seed pair.
func (st *mysqlStore) Outcome(nonce int64) (config.Color, error) {
	const op = "wheel.store.Outcome"

	pair, err := st.seeds.GetActivePair(HouseUserID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if pair == nil {
		return "", fmt.Errorf("%s: house seed pair missing", op)
	}

	weights := make([]int64, len(config.WheelConfig.Order))
	for i, color := range config.WheelConfig.Order {
		weights[i] = config.WheelConfig.Colors[color].Weight
	}

	idx := fair.DrawCategory(pair.ServerSeed, pair.ClientSeed, nonce, weights)

	return config.WheelConfig.Order[idx], nil
}

// EnsureHouseSeed creates the house pair on first boot.
func (st *mysqlStore) EnsureHouseSeed() error {
	const op = "wheel.store.EnsureHouseSeed"

	pair, err := st.seeds.GetActivePair(HouseUserID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if pair != nil {
		return nil
	}

	serverSeed := random.NewRandomString(64)

	return st.handler.WithinTransaction(func(tx *sql.Tx) error {
		_, err := st.seeds.SavePair(tx, model.SeedPair{
			UserID:         HouseUserID,
			ServerSeed:     serverSeed,
			ServerSeedHash: fair.HashSeed(serverSeed),
			ClientSeed:     random.NewRandomString(16),
		})

		return err
	})
}

// PlaceBet runs the whole wager in one transaction: re-verify the
// round is still taking bets under the row lock, lock the user's bets
// for the round, apply the placement rules, debit, then insert or
// accumulate. The caller's view of the round can be stale; the locked
// status check is what keeps wagers out of a rolled round.
func (st *mysqlStore) PlaceBet(user *model.User, round *model.Round, color config.Color, amount int64) error {
	const op = "wheel.store.PlaceBet"

	var newBalance int64

	err := st.handler.WithinTransaction(func(tx *sql.Tx) error {
		current, err := st.rounds.LockRound(tx, round.ID)
		if err != nil {
			return err
		}

		if current == nil || current.Status != model.RoundBetting {
			return gameerr.New(gameerr.AlreadyStarted, "betting is closed for this round")
		}

		existing, err := st.bets.GetBetsByRoundAndUser(tx, round.ID, user.ID)
		if err != nil {
			return err
		}

		target, err := decideBetPlacement(existing, color)
		if err != nil {
			return err
		}

		edge := houseEdgeFor(color, amount)

		if target != nil {
			balance, err := st.wallet.Accumulate(tx, user.ID, target.LedgerEntryID, amount, edge, config.Wheel)
			if err != nil {
				return err
			}

			if err = st.bets.AddToBet(tx, target.ID, amount); err != nil {
				return err
			}

			newBalance = balance

			return nil
		}

		entryID, balance, err := st.wallet.Debit(tx, user.ID, amount, edge, config.Wheel, round.UUID.String())
		if err != nil {
			return err
		}

		_, err = st.bets.SaveBet(tx, model.RoundBet{
			RoundID:       round.ID,
			UserID:        user.ID,
			Color:         color,
			Amount:        amount,
			LedgerEntryID: entryID,
		})
		if err != nil {
			return err
		}

		newBalance = balance

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	st.wallet.NotifyBalance(user, newBalance, config.Wheel, config.Outcome, amount)

	return nil
}
