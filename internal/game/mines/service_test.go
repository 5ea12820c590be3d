package mines

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"go-gamehall/internal/config"
	"go-gamehall/internal/lib/gameerr"
	"go-gamehall/internal/model"
)

type fakeStore struct {
	sessions map[int64]*model.Session
	nextID   int64

	// nonce mirrors the seed pair counter: StartSession stamps the
	// current value on the session and advances it, nothing else
	// touches it.
	nonce int64

	// plantLayout fixes the next StartSession's hazards so tests can
	// steer reveals.
	plantLayout model.PositionList

	settledWins   []int64
	settledLosses int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[int64]*model.Session)}
}

func (f *fakeStore) ActiveSession(userID int64) (*model.Session, error) {
	s, ok := f.sessions[userID]
	if !ok || s.Status != model.SessionActive {
		return nil, nil
	}

	cp := *s

	return &cp, nil
}

func (f *fakeStore) StartSession(user *model.User, stake int64, hazardCount int) (*model.Session, error) {
	f.nextID++

	layout := f.plantLayout
	if layout == nil {
		layout = model.PositionList{0}
	}

	s := &model.Session{
		ID:       f.nextID,
		UUID:     uuid.New(),
		UserID:   user.ID,
		Status:   model.SessionActive,
		Stake:    stake,
		Hazards:  layout,
		Revealed: model.PositionList{},
		Nonce:    f.nonce,
		LedgerID: f.nextID,
	}

	f.nonce++

	f.sessions[user.ID] = s

	cp := *s

	return &cp, nil
}

func (f *fakeStore) SaveReveal(sessionID int64, revealed model.PositionList) error {
	for _, s := range f.sessions {
		if s.ID == sessionID {
			s.Revealed = revealed
		}
	}

	return nil
}

func (f *fakeStore) SettleLoss(user *model.User, session *model.Session) error {
	f.sessions[user.ID].Status = model.SessionBusted
	f.settledLosses++

	return nil
}

func (f *fakeStore) SettleWin(user *model.User, session *model.Session, payout int64) error {
	f.sessions[user.ID].Status = model.SessionCashedOut
	f.sessions[user.ID].Revealed = session.Revealed
	f.settledWins = append(f.settledWins, payout)

	return nil
}

func newTestService(store Store) *Service {
	return NewService(store, config.MinesConfig, slog.Default())
}

func testUser() *model.User {
	return &model.User{ID: 1, UUID: uuid.New()}
}

func TestStartRejectsSecondActiveSession(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	user := testUser()

	_, err := svc.Start(user, 1000, 3)
	require.NoError(t, err)

	_, err = svc.Start(user, 1000, 3)
	assert.True(t, gameerr.Is(err, gameerr.GameAlreadyActive))
}

func TestStartConsumesOneNoncePerSession(t *testing.T) {
	store := newFakeStore()
	store.plantLayout = model.PositionList{24}
	svc := newTestService(store)
	user := testUser()

	first, err := svc.Start(user, 1000, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.Nonce)
	assert.Equal(t, int64(1), store.nonce)

	// Reveals and the cashout step the session without touching the
	// nonce counter; only a fresh session consumes one.
	_, err = svc.Reveal(user, 0)
	require.NoError(t, err)

	_, err = svc.Cashout(user)
	require.NoError(t, err)
	assert.Equal(t, int64(1), store.nonce)

	second, err := svc.Start(user, 1000, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.Nonce)
	assert.Equal(t, int64(2), store.nonce)
}

func TestStartValidatesStakeAndHazards(t *testing.T) {
	svc := newTestService(newFakeStore())
	user := testUser()

	_, err := svc.Start(user, 0, 3)
	assert.True(t, gameerr.Is(err, gameerr.InvalidAmount))

	_, err = svc.Start(user, 1000, 0)
	assert.True(t, gameerr.Is(err, gameerr.InvalidAmount))

	_, err = svc.Start(user, 1000, 25)
	assert.True(t, gameerr.Is(err, gameerr.InvalidAmount))
}

func TestRevealSafeTileRaisesMultiplier(t *testing.T) {
	store := newFakeStore()
	store.plantLayout = model.PositionList{24}
	svc := newTestService(store)
	user := testUser()

	_, err := svc.Start(user, 1000, 1)
	require.NoError(t, err)

	res, err := svc.Reveal(user, 0)
	require.NoError(t, err)

	assert.False(t, res.IsHazard)
	assert.Equal(t, model.SessionActive, res.Status)
	assert.Equal(t, model.PositionList{0}, res.Revealed)
	assert.Empty(t, res.Hazards, "live session must not reveal the layout")

	want := decimal.NewFromInt(25).DivRound(decimal.NewFromInt(24), 12)
	assert.True(t, want.Equal(res.Multiplier))
}

func TestRevealRejectsRepeatPosition(t *testing.T) {
	store := newFakeStore()
	store.plantLayout = model.PositionList{24}
	svc := newTestService(store)
	user := testUser()

	_, err := svc.Start(user, 1000, 1)
	require.NoError(t, err)

	_, err = svc.Reveal(user, 5)
	require.NoError(t, err)

	_, err = svc.Reveal(user, 5)
	assert.True(t, gameerr.Is(err, gameerr.AlreadyRevealed))
}

func TestRevealHazardBusts(t *testing.T) {
	store := newFakeStore()
	store.plantLayout = model.PositionList{7}
	svc := newTestService(store)
	user := testUser()

	_, err := svc.Start(user, 1000, 1)
	require.NoError(t, err)

	res, err := svc.Reveal(user, 7)
	require.NoError(t, err)

	assert.True(t, res.IsHazard)
	assert.Equal(t, model.SessionBusted, res.Status)
	assert.Equal(t, model.PositionList{7}, res.Hazards)
	assert.Equal(t, 1, store.settledLosses)

	// Busted session blocks further reveals and frees the slot.
	_, err = svc.Reveal(user, 3)
	assert.True(t, gameerr.Is(err, gameerr.NoActiveGame))

	_, err = svc.Start(user, 1000, 1)
	assert.NoError(t, err)
}

func TestCashoutAfterThreeReveals(t *testing.T) {
	// 24 safe tiles, 1 hazard, stake 10.00: after three reveals the
	// multiplier is 25/24 × 24/23 × 23/22 and cashout pays stake times
	// that, floored to the cent.
	store := newFakeStore()
	store.plantLayout = model.PositionList{20}
	svc := newTestService(store)
	user := testUser()

	_, err := svc.Start(user, 1000, 1)
	require.NoError(t, err)

	for _, pos := range []int{1, 2, 3} {
		_, err = svc.Reveal(user, pos)
		require.NoError(t, err)
	}

	res, err := svc.Cashout(user)
	require.NoError(t, err)

	want := decimal.NewFromInt(25).
		Mul(decimal.NewFromInt(24)).
		Mul(decimal.NewFromInt(23)).
		DivRound(decimal.NewFromInt(24*23*22), 12)

	assert.True(t, want.Equal(res.Multiplier), "want %s got %s", want, res.Multiplier)

	// 1000 × 25·24·23/(24·23·22) = 1000 × 1.136363... = 1136.
	assert.Equal(t, int64(1136), res.Payout)
	assert.Equal(t, []int64{1136}, store.settledWins)

	// No further reveals on a settled session.
	_, err = svc.Reveal(user, 9)
	assert.True(t, gameerr.Is(err, gameerr.NoActiveGame))
}

func TestCashoutWithoutRevealsRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	user := testUser()

	_, err := svc.Start(user, 1000, 3)
	require.NoError(t, err)

	_, err = svc.Cashout(user)
	assert.True(t, gameerr.Is(err, gameerr.NoRevealedTiles))
}

func TestFullClearAutoSettles(t *testing.T) {
	// 24 hazards leaves one safe tile; revealing it clears the board
	// and settles at 25×.
	store := newFakeStore()
	store.plantLayout = model.PositionList{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23}
	svc := newTestService(store)
	user := testUser()

	_, err := svc.Start(user, 100, 24)
	require.NoError(t, err)

	res, err := svc.Reveal(user, 24)
	require.NoError(t, err)

	assert.Equal(t, model.SessionCashedOut, res.Status)
	assert.Equal(t, int64(2500), res.Payout)
	assert.Len(t, res.Hazards, 24)
}

func TestRevealValidatesPosition(t *testing.T) {
	svc := newTestService(newFakeStore())
	user := testUser()

	_, err := svc.Start(user, 1000, 1)
	require.NoError(t, err)

	_, err = svc.Reveal(user, -1)
	assert.True(t, gameerr.Is(err, gameerr.InvalidPosition))

	_, err = svc.Reveal(user, 25)
	assert.True(t, gameerr.Is(err, gameerr.InvalidPosition))
}

func TestRevealedSetNeverHoldsDuplicates(t *testing.T) {
	store := newFakeStore()
	store.plantLayout = model.PositionList{24}
	svc := newTestService(store)
	user := testUser()

	_, err := svc.Start(user, 1000, 1)
	require.NoError(t, err)

	for _, pos := range []int{0, 1, 2, 1, 0, 3} {
		_, _ = svc.Reveal(user, pos)
	}

	session, err := store.ActiveSession(user.ID)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, p := range session.Revealed {
		assert.False(t, seen[p], "position %d appears twice", p)
		seen[p] = true
	}

	assert.Len(t, session.Revealed, 4)
}
