package mines

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"

	"go-gamehall/internal/config"
	"go-gamehall/internal/lib/converter"
	"go-gamehall/internal/lib/gameerr"
	"go-gamehall/internal/lib/logger/sl"
	"go-gamehall/internal/model"
)

// Store is the persistence seam for the session machine. Every method
// that mutates runs its writes in one database transaction; balance
// broadcasts happen after its commit.
type Store interface {
	ActiveSession(userID int64) (*model.Session, error)
	StartSession(user *model.User, stake int64, hazardCount int) (*model.Session, error)
	SaveReveal(sessionID int64, revealed model.PositionList) error
	SettleLoss(user *model.User, session *model.Session) error
	SettleWin(user *model.User, session *model.Session, payout int64) error
}

type Service struct {
	store Store
	cfg   config.MinesGameConfig
	log   *slog.Logger
}

func NewService(store Store, cfg config.MinesGameConfig, log *slog.Logger) *Service {
	return &Service{
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

// StepResult reports one reveal. Hazards are only populated once the
// session has ended; a live layout never leaves the server.
type StepResult struct {
	IsHazard   bool
	Status     model.SessionStatus
	Revealed   model.PositionList
	Hazards    model.PositionList
	Multiplier decimal.Decimal
	Payout     int64
}

func (s *Service) Start(user *model.User, stake int64, hazardCount int) (*model.Session, error) {
	const op = "mines.Start"

	if stake < s.cfg.MinStake || stake > s.cfg.MaxStake {
		return nil, gameerr.New(gameerr.InvalidAmount, "stake outside limits")
	}

	if hazardCount < s.cfg.MinHazards || hazardCount > s.cfg.MaxHazards {
		return nil, gameerr.New(gameerr.InvalidAmount, "hazard count outside limits")
	}

	active, err := s.store.ActiveSession(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if active != nil {
		return nil, gameerr.New(gameerr.GameAlreadyActive, "settle the active session first")
	}

	session, err := s.store.StartSession(user, stake, hazardCount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("mines session started",
		sl.Int64("user_id", user.ID),
		sl.String("session_uuid", session.UUID.String()),
		sl.Int64("stake", stake))

	return session, nil
}

func (s *Service) Reveal(user *model.User, position int) (*StepResult, error) {
	const op = "mines.Reveal"

	if position < 0 || position >= s.cfg.GridSize {
		return nil, gameerr.New(gameerr.InvalidPosition, "position outside the grid")
	}

	session, err := s.store.ActiveSession(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if session == nil {
		return nil, gameerr.New(gameerr.NoActiveGame, "no active session")
	}

	if session.Revealed.Contains(position) {
		return nil, gameerr.New(gameerr.AlreadyRevealed, "tile already revealed")
	}

	if session.Hazards.Contains(position) {
		if err = s.store.SettleLoss(user, session); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		s.log.Info("mines session busted",
			sl.Int64("user_id", user.ID),
			sl.String("session_uuid", session.UUID.String()))

		return &StepResult{
			IsHazard:   true,
			Status:     model.SessionBusted,
			Revealed:   session.Revealed,
			Hazards:    session.Hazards,
			Multiplier: decimal.Zero,
		}, nil
	}

	revealed := append(append(model.PositionList{}, session.Revealed...), position)
	multiplier := Multiplier(s.cfg.GridSize, len(session.Hazards), len(revealed))

	safeTiles := s.cfg.GridSize - len(session.Hazards)

	if len(revealed) == safeTiles {
		// Full clear settles exactly like a cashout.
		session.Revealed = revealed
		payout := converter.ApplyMultiplier(session.Stake, multiplier)

		if err = s.store.SettleWin(user, session, payout); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return &StepResult{
			Status:     model.SessionCashedOut,
			Revealed:   revealed,
			Hazards:    session.Hazards,
			Multiplier: multiplier,
			Payout:     payout,
		}, nil
	}

	if err = s.store.SaveReveal(session.ID, revealed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &StepResult{
		Status:     model.SessionActive,
		Revealed:   revealed,
		Multiplier: multiplier,
	}, nil
}

func (s *Service) Cashout(user *model.User) (*StepResult, error) {
	const op = "mines.Cashout"

	session, err := s.store.ActiveSession(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if session == nil {
		return nil, gameerr.New(gameerr.NoActiveGame, "no active session")
	}

	if len(session.Revealed) == 0 {
		return nil, gameerr.New(gameerr.NoRevealedTiles, "reveal at least one tile first")
	}

	multiplier := Multiplier(s.cfg.GridSize, len(session.Hazards), len(session.Revealed))
	payout := converter.ApplyMultiplier(session.Stake, multiplier)

	if err = s.store.SettleWin(user, session, payout); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("mines session cashed out",
		sl.Int64("user_id", user.ID),
		sl.String("session_uuid", session.UUID.String()),
		sl.Int64("payout", payout))

	return &StepResult{
		Status:     model.SessionCashedOut,
		Revealed:   session.Revealed,
		Hazards:    session.Hazards,
		Multiplier: multiplier,
		Payout:     payout,
	}, nil
}
