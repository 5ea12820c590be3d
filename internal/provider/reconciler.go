package provider

import (
	"golang.org/x/exp/slog"

	"go-gamehall/internal/config"
	"go-gamehall/internal/lib/gameerr"
	"go-gamehall/internal/lib/logger/sl"
	"go-gamehall/internal/model"
)

// Provider wire codes. The body is {error: N, balance: minor units}.
const (
	CodeOK                = 0
	CodeInsufficientFunds = 1
	CodeFailed            = 2
)

// TypeFreeSpin marks a wager funded by a free-spin grant instead of
// the balance.
const TypeFreeSpin = "free_spin"

// Callback is one decoded aggregator event. Amount is already in minor
// units; the provider never speaks anything else.
type Callback struct {
	Username  string
	Action    model.ProviderAction
	Currency  string
	Amount    int64
	RoundID   string
	GameID    string
	CallID    string
	Timestamp string
	Type      string
	Final     bool
	Key       string
}

type Result struct {
	Code    int
	Balance int64
}

// Store is the reconciler's persistence seam. Each Apply* method runs
// the balance write, the provider transaction row and (on final events)
// the ledger entry in one transaction, broadcasting after commit.
// Apply* methods own the idempotency guarantee: a call id already
// recorded for the action answers with its stored BalanceAfter and
// mutates nothing, even when the caller's FindCall saw no row.
type Store interface {
	ResolveUser(userID int64) (*model.User, error)
	ReadBalance(userID int64) (int64, error)
	FindCall(callID string, action model.ProviderAction) (*model.ProviderTransaction, error)
	RecordBalanceCheck(user *model.User, cb *Callback, balance int64) error
	ApplyDebit(user *model.User, cb *Callback) (int64, error)
	ApplyFreeSpinDebit(user *model.User, cb *Callback) (int64, error)
	ApplyCredit(user *model.User, cb *Callback) (int64, error)
}

// Reconciler folds aggregator callbacks into the ledger. It is
// stateless: every request stands alone, events arrive out of order
// and at least once.
type Reconciler struct {
	store Store
	cfg   config.ProviderConfig
	log   *slog.Logger
}

func NewReconciler(store Store, cfg config.ProviderConfig, log *slog.Logger) *Reconciler {
	return &Reconciler{
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

// Handle validates and applies one callback. Failures before dispatch
// report CodeFailed without distinguishing which check tripped: the
// aggregator gets no oracle for probing signatures or handles.
func (r *Reconciler) Handle(cb *Callback) Result {
	if !ValidSignature(r.cfg.Salt, cb.Timestamp, cb.Key) {
		r.log.Warn("provider callback rejected",
			sl.String("call_id", cb.CallID),
			sl.String("reason", string(gameerr.InvalidSignature)))

		return Result{Code: CodeFailed}
	}

	userID, err := DecodeUsername(r.cfg.UsernamePrefix, cb.Username)
	if err != nil {
		r.log.Warn("provider callback rejected", sl.String("call_id", cb.CallID), sl.Err(err))

		return Result{Code: CodeFailed}
	}

	user, err := r.store.ResolveUser(userID)
	if err != nil {
		r.log.Error("provider user lookup failed", sl.Err(err))

		return Result{Code: CodeFailed}
	}

	if user == nil {
		r.log.Warn("provider callback rejected",
			sl.String("call_id", cb.CallID),
			sl.String("reason", string(gameerr.UnknownUser)))

		return Result{Code: CodeFailed}
	}

	// Idempotency fast path. The authoritative check repeats inside
	// each store transaction under the user row lock; this one only
	// spares a transaction on the common retransmit.
	if cb.CallID != "" {
		existing, err := r.store.FindCall(cb.CallID, cb.Action)
		if err != nil {
			r.log.Error("provider idempotency lookup failed", sl.Err(err))

			return Result{Code: CodeFailed}
		}

		if existing != nil {
			return Result{Code: CodeOK, Balance: existing.BalanceAfter}
		}
	}

	switch cb.Action {
	case model.ProviderBalance:
		return r.handleBalance(user, cb)
	case model.ProviderDebit:
		return r.handleDebit(user, cb)
	case model.ProviderCredit:
		return r.handleCredit(user, cb)
	default:
		r.log.Warn("provider callback with unknown action", sl.String("action", string(cb.Action)))

		return Result{Code: CodeFailed}
	}
}

func (r *Reconciler) handleBalance(user *model.User, cb *Callback) Result {
	balance, err := r.store.ReadBalance(user.ID)
	if err != nil {
		r.log.Error("provider balance read failed", sl.Err(err))

		return Result{Code: CodeFailed}
	}

	if err = r.store.RecordBalanceCheck(user, cb, balance); err != nil {
		r.log.Error("provider balance audit failed", sl.Err(err))

		return Result{Code: CodeFailed}
	}

	return Result{Code: CodeOK, Balance: balance}
}

func (r *Reconciler) handleDebit(user *model.User, cb *Callback) Result {
	if cb.Amount < 0 {
		return Result{Code: CodeFailed}
	}

	apply := r.store.ApplyDebit
	if cb.Type == TypeFreeSpin {
		apply = r.store.ApplyFreeSpinDebit
	}

	balance, err := apply(user, cb)
	if err != nil {
		if gameerr.Is(err, gameerr.InsufficientBalance) {
			current, readErr := r.store.ReadBalance(user.ID)
			if readErr != nil {
				return Result{Code: CodeFailed}
			}

			return Result{Code: CodeInsufficientFunds, Balance: current}
		}

		r.log.Error("provider debit failed", sl.String("call_id", cb.CallID), sl.Err(err))

		return Result{Code: CodeFailed}
	}

	return Result{Code: CodeOK, Balance: balance}
}

func (r *Reconciler) handleCredit(user *model.User, cb *Callback) Result {
	if cb.Amount < 0 {
		return Result{Code: CodeFailed}
	}

	balance, err := r.store.ApplyCredit(user, cb)
	if err != nil {
		r.log.Error("provider credit failed", sl.String("call_id", cb.CallID), sl.Err(err))

		return Result{Code: CodeFailed}
	}

	return Result{Code: CodeOK, Balance: balance}
}
