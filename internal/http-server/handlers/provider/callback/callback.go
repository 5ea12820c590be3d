package callback

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/exp/slog"

	"go-gamehall/internal/lib/logger/sl"
	"go-gamehall/internal/model"
	"go-gamehall/internal/provider"
)

// Response is the aggregator wire format. Balance is minor units.
type Response struct {
	Error   int   `json:"error"`
	Balance int64 `json:"balance"`
}

type CallbackHandler interface {
	Handle(cb *provider.Callback) provider.Result
}

type Callback struct {
	log        *slog.Logger
	reconciler CallbackHandler
}

func NewCallback(log *slog.Logger, reconciler CallbackHandler) *Callback {
	return &Callback{
		log:        log,
		reconciler: reconciler,
	}
}

func (h *Callback) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.provider.callback.New"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		cb, err := decodeQuery(r)
		if err != nil {
			log.Warn("malformed provider callback", sl.Err(err))

			render.JSON(w, r, Response{Error: provider.CodeFailed})

			return
		}

		result := h.reconciler.Handle(cb)

		render.JSON(w, r, Response{
			Error:   result.Code,
			Balance: result.Balance,
		})
	}
}

func decodeQuery(r *http.Request) (*provider.Callback, error) {
	q := r.URL.Query()

	var amount int64

	if raw := q.Get("amount"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}

		amount = parsed
	}

	return &provider.Callback{
		Username:  q.Get("username"),
		Action:    model.ProviderAction(q.Get("action")),
		Currency:  q.Get("currency"),
		Amount:    amount,
		RoundID:   q.Get("round_id"),
		GameID:    q.Get("game_id"),
		CallID:    q.Get("call_id"),
		Timestamp: q.Get("timestamp"),
		Type:      q.Get("type"),
		Final:     q.Get("gameplay_final") == "1",
		Key:       q.Get("key"),
	}, nil
}
