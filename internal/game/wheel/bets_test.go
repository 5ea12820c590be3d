package wheel

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"go-gamehall/internal/config"
	"go-gamehall/internal/lib/gameerr"
	"go-gamehall/internal/model"
)

func TestDecideBetPlacement(t *testing.T) {
	redBet := model.RoundBet{ID: 1, Color: config.Red, Amount: 500, LedgerEntryID: 11}

	// First bet on an empty round: new row.
	target, err := decideBetPlacement(nil, config.Red)
	require.NoError(t, err)
	assert.Nil(t, target)

	// Repeat color accumulates into the existing row.
	target, err = decideBetPlacement([]model.RoundBet{redBet}, config.Red)
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, int64(1), target.ID)

	// Opposing color is rejected.
	_, err = decideBetPlacement([]model.RoundBet{redBet}, config.Black)
	assert.True(t, gameerr.Is(err, gameerr.ConflictingBet))

	// Green alongside red is allowed: only red/black oppose.
	target, err = decideBetPlacement([]model.RoundBet{redBet}, config.Green)
	require.NoError(t, err)
	assert.Nil(t, target)
}

func TestHouseEdgeFor(t *testing.T) {
	// 680 bp on red and black, 480 bp on green.
	assert.Equal(t, int64(68), houseEdgeFor(config.Red, 1000))
	assert.Equal(t, int64(68), houseEdgeFor(config.Black, 1000))
	assert.Equal(t, int64(48), houseEdgeFor(config.Green, 1000))
}

type staticRounds struct {
	round *model.Round
}

func (s staticRounds) ActiveRound() *model.Round {
	return s.round
}

type recordingBetStore struct {
	placed []config.Color
	err    error
}

func (r *recordingBetStore) PlaceBet(user *model.User, round *model.Round, color config.Color, amount int64) error {
	if r.err != nil {
		return r.err
	}

	r.placed = append(r.placed, color)

	return nil
}

func TestPlaceRejectsWhenBettingClosed(t *testing.T) {
	store := &recordingBetStore{}
	user := &model.User{ID: 1, UUID: uuid.New()}

	// No active round at all.
	svc := NewBetService(staticRounds{}, store, slog.Default())
	err := svc.Place(user, config.Red, 100)
	assert.True(t, gameerr.Is(err, gameerr.AlreadyStarted))

	// Round exists but already rolled.
	rolled := &model.Round{ID: 1, Status: model.RoundRolled, CreatedAt: time.Now()}
	svc = NewBetService(staticRounds{round: rolled}, store, slog.Default())
	err = svc.Place(user, config.Red, 100)
	assert.True(t, gameerr.Is(err, gameerr.AlreadyStarted))

	assert.Empty(t, store.placed)
}

func TestPlaceValidatesInput(t *testing.T) {
	store := &recordingBetStore{}
	round := &model.Round{ID: 1, Status: model.RoundBetting, CreatedAt: time.Now()}
	svc := NewBetService(staticRounds{round: round}, store, slog.Default())
	user := &model.User{ID: 1, UUID: uuid.New()}

	err := svc.Place(user, config.Red, 0)
	assert.True(t, gameerr.Is(err, gameerr.InvalidAmount))

	err = svc.Place(user, config.Color("purple"), 100)
	assert.True(t, gameerr.Is(err, gameerr.InvalidAmount))

	assert.Empty(t, store.placed)
}

func TestPlaceAcceptsDuringBetting(t *testing.T) {
	store := &recordingBetStore{}
	round := &model.Round{ID: 1, UUID: uuid.New(), Status: model.RoundBetting, CreatedAt: time.Now()}
	svc := NewBetService(staticRounds{round: round}, store, slog.Default())
	user := &model.User{ID: 1, UUID: uuid.New()}

	require.NoError(t, svc.Place(user, config.Green, 250))
	assert.Equal(t, []config.Color{config.Green}, store.placed)
}

func TestPlacePropagatesStoreRejections(t *testing.T) {
	store := &recordingBetStore{err: gameerr.New(gameerr.ConflictingBet, "opposing bet already placed")}
	round := &model.Round{ID: 1, Status: model.RoundBetting, CreatedAt: time.Now()}
	svc := NewBetService(staticRounds{round: round}, store, slog.Default())
	user := &model.User{ID: 1, UUID: uuid.New()}

	err := svc.Place(user, config.Red, 100)
	assert.True(t, gameerr.Is(err, gameerr.ConflictingBet))
}

// statusCheckedBetStore mirrors the transactional store: whatever
// round snapshot the service passes in, the wager only lands when the
// authoritative row is still in the betting phase.
type statusCheckedBetStore struct {
	current *model.Round
	placed  int
}

func (s *statusCheckedBetStore) PlaceBet(user *model.User, round *model.Round, color config.Color, amount int64) error {
	if s.current == nil || s.current.ID != round.ID || s.current.Status != model.RoundBetting {
		return gameerr.New(gameerr.AlreadyStarted, "betting is closed for this round")
	}

	s.placed++

	return nil
}

func TestPlaceRejectsWhenRoundRollsAfterSnapshot(t *testing.T) {
	// The service's cached view can lag: the driver rolls the round
	// between the cache read and the wager transaction. The store's
	// own status check rejects the late bet.
	snapshot := &model.Round{ID: 3, UUID: uuid.New(), Status: model.RoundBetting, CreatedAt: time.Now()}

	rolled := *snapshot
	rolled.Status = model.RoundRolled

	store := &statusCheckedBetStore{current: &rolled}
	svc := NewBetService(staticRounds{round: snapshot}, store, slog.Default())

	err := svc.Place(&model.User{ID: 1, UUID: uuid.New()}, config.Red, 100)
	assert.True(t, gameerr.Is(err, gameerr.AlreadyStarted))
	assert.Zero(t, store.placed)
}
