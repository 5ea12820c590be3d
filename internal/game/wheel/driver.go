package wheel

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/exp/slog"

	"go-gamehall/internal/config"
	"go-gamehall/internal/event"
	"go-gamehall/internal/job"
	"go-gamehall/internal/lib/logger/sl"
	"go-gamehall/internal/model"
)

// RoundStore persists round rows. CreateRound must assign the next
// house nonce; MarkRolled must be a guarded transition reporting
// whether this call performed it.
type RoundStore interface {
	OpenRound() (*model.Round, error)
	CreateRound() (*model.Round, error)
	MarkRolled(roundID int64, outcome config.Color, at time.Time) (bool, error)
	MarkSettled(roundID int64, at time.Time) error
}

// Settler pays one bet: credit on a match, a zero-winnings settle
// otherwise. Each call is one committed transaction.
type Settler interface {
	BetsByRound(roundID int64) ([]model.RoundBet, error)
	PayBet(bet model.RoundBet, winnings int64) error
}

// Roller fixes the outcome for a round nonce from the house seed pair.
type Roller interface {
	Outcome(nonce int64) (config.Color, error)
}

const activeRoundKey = "active_round"

// Driver owns the wheel round lifecycle. Exactly one instance runs at a
// time; the Supervisor enforces that.
type Driver struct {
	rounds RoundStore
	bets   Settler
	roller Roller
	jobs   job.Queue
	evt    event.Trigger
	timing config.WheelTiming
	log    *slog.Logger

	// cache mirrors the active round for the bet handler's fast path
	// and carries the per-round outcome-emitted marker.
	cache *cache.Cache

	now   func() time.Time
	sleep func(time.Duration)
}

func NewDriver(
	rounds RoundStore,
	bets Settler,
	roller Roller,
	jobs job.Queue,
	evt event.Trigger,
	timing config.WheelTiming,
	log *slog.Logger,
) *Driver {
	return &Driver{
		rounds: rounds,
		bets:   bets,
		roller: roller,
		jobs:   jobs,
		evt:    evt,
		timing: timing,
		log:    log,
		cache:  cache.New(5*time.Minute, 10*time.Minute),
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// ActiveRound returns the cached betting-phase round, nil when betting
// is closed. The cache is a mirror; the row is the source of truth.
func (d *Driver) ActiveRound() *model.Round {
	v, found := d.cache.Get(activeRoundKey)
	if !found {
		return nil
	}

	round := v.(model.Round)

	return &round
}

// Run cycles rounds until stop closes. Errors bubble to the Supervisor,
// which logs and restarts; the loop must never die silently.
func (d *Driver) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		if err := d.runRound(); err != nil {
			return err
		}
	}
}

// runRound drives the open round to Settled, creating one first if
// needed. Rehydrates mid-phase after a restart: windows are measured
// from the persisted timestamps, never from loop wake-up, so a crashed
// driver cannot shorten a betting window.
func (d *Driver) runRound() error {
	const op = "wheel.Driver.runRound"

	round, err := d.rounds.OpenRound()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if round == nil {
		round, err = d.rounds.CreateRound()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		d.cache.Set(activeRoundKey, *round, cache.DefaultExpiration)

		d.broadcast(event.EventRoundNew, map[string]interface{}{
			"uuid":       round.UUID.String(),
			"created_at": round.CreatedAt.Format(time.RFC3339),
		})

		d.log.Info("round opened", sl.String("round_uuid", round.UUID.String()))
	} else {
		d.cache.Set(activeRoundKey, *round, cache.DefaultExpiration)
	}

	if round.Status == model.RoundBetting {
		d.waitUntil(round.CreatedAt.Add(d.timing.BetWindow))

		if err = d.roll(round); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if round.RolledAt != nil {
		d.waitUntil(round.RolledAt.Add(d.timing.RevealWindow))
	}

	if err = d.settle(round); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (d *Driver) roll(round *model.Round) error {
	outcome, err := d.roller.Outcome(round.Nonce)
	if err != nil {
		return err
	}

	rolledAt := d.now()

	rolled, err := d.rounds.MarkRolled(round.ID, outcome, rolledAt)
	if err != nil {
		return err
	}

	round.Status = model.RoundRolled
	round.Outcome = outcome
	round.RolledAt = &rolledAt

	// Betting is closed; drop the mirror so the bet path rejects.
	d.cache.Delete(activeRoundKey)

	emittedKey := fmt.Sprintf("outcome_emitted_%d", round.ID)

	if _, emitted := d.cache.Get(emittedKey); rolled && !emitted {
		d.cache.Set(emittedKey, true, cache.DefaultExpiration)

		d.broadcast(event.EventRoundOutcome, map[string]interface{}{
			"uuid":    round.UUID.String(),
			"outcome": string(outcome),
		})

		d.log.Info("round rolled",
			sl.String("round_uuid", round.UUID.String()),
			sl.String("outcome", string(outcome)))
	}

	return nil
}

func (d *Driver) settle(round *model.Round) error {
	bets, err := d.bets.BetsByRound(round.ID)
	if err != nil {
		return err
	}

	multiplier := int64(0)
	if colorCfg, ok := config.WheelConfig.Colors[round.Outcome]; ok {
		multiplier = colorCfg.Multiplier
	}

	for _, bet := range bets {
		winnings := int64(0)
		if bet.Color == round.Outcome {
			winnings = bet.Amount * multiplier
		}

		if err = d.bets.PayBet(bet, winnings); err != nil {
			return err
		}
	}

	if err = d.rounds.MarkSettled(round.ID, d.now()); err != nil {
		return err
	}

	d.cache.Delete(fmt.Sprintf("outcome_emitted_%d", round.ID))

	d.broadcast(event.EventRoundSettled, map[string]interface{}{
		"uuid":    round.UUID.String(),
		"outcome": string(round.Outcome),
		"bets":    len(bets),
	})

	d.log.Info("round settled",
		sl.String("round_uuid", round.UUID.String()),
		sl.Any("bets", len(bets)))

	return nil
}

func (d *Driver) waitUntil(deadline time.Time) {
	if remaining := deadline.Sub(d.now()); remaining > 0 {
		d.sleep(remaining)
	}
}

func (d *Driver) broadcast(eventName string, data map[string]interface{}) {
	d.jobs.Dispatch(&job.SendEventJob{
		Event: d.evt,
		EventMessage: event.Message{
			Channel: event.ChannelWheel,
			Event:   eventName,
			Data:    data,
		},
	}, 0)
}
