package wheel

import (
	"fmt"

	"golang.org/x/exp/slog"

	"go-gamehall/internal/config"
	"go-gamehall/internal/lib/gameerr"
	"go-gamehall/internal/lib/logger/sl"
	"go-gamehall/internal/model"
)

// BetStore persists a wager against an open round. PlaceBet runs the
// debit, the ledger entry and the bet row in one transaction, applying
// decideBetPlacement against the user's locked existing bets. The
// round passed in is the caller's snapshot; PlaceBet re-verifies the
// row is still in the betting phase and rejects the wager otherwise.
type BetStore interface {
	PlaceBet(user *model.User, round *model.Round, color config.Color, amount int64) error
}

// ActiveRounder exposes the driver's betting-phase round.
type ActiveRounder interface {
	ActiveRound() *model.Round
}

type BetService struct {
	rounds ActiveRounder
	store  BetStore
	log    *slog.Logger
}

func NewBetService(rounds ActiveRounder, store BetStore, log *slog.Logger) *BetService {
	return &BetService{
		rounds: rounds,
		store:  store,
		log:    log,
	}
}

func (s *BetService) Place(user *model.User, color config.Color, amount int64) error {
	const op = "wheel.BetService.Place"

	if amount <= 0 {
		return gameerr.New(gameerr.InvalidAmount, "stake must be positive")
	}

	if _, ok := config.WheelConfig.Colors[color]; !ok {
		return gameerr.New(gameerr.InvalidAmount, "unknown color")
	}

	round := s.rounds.ActiveRound()
	if round == nil || round.Status != model.RoundBetting {
		return gameerr.New(gameerr.AlreadyStarted, "betting is closed for this round")
	}

	if err := s.store.PlaceBet(user, round, color, amount); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("wheel bet placed",
		sl.Int64("user_id", user.ID),
		sl.String("color", string(color)),
		sl.Int64("amount", amount))

	return nil
}

// decideBetPlacement applies the per-round bet rules to the user's
// existing bets: opposing red/black wagers are rejected, a repeat bet
// on the same color accumulates into its existing row.
func decideBetPlacement(existing []model.RoundBet, color config.Color) (*model.RoundBet, error) {
	for i := range existing {
		if existing[i].Color == color {
			return &existing[i], nil
		}

		if config.Opposing(existing[i].Color, color) {
			return nil, gameerr.New(gameerr.ConflictingBet, "opposing bet already placed")
		}
	}

	return nil, nil
}

// houseEdgeFor computes the expected house retention recorded on the
// ledger entry at wager time.
func houseEdgeFor(color config.Color, amount int64) int64 {
	return amount * config.WheelConfig.Colors[color].HouseEdgeBP / 10000
}
