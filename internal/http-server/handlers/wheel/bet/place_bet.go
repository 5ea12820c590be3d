package place_bet

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"

	"go-gamehall/internal/config"
	"go-gamehall/internal/lib/api/response"
	"go-gamehall/internal/lib/converter"
	"go-gamehall/internal/lib/gameerr"
	"go-gamehall/internal/lib/logger/sl"
	"go-gamehall/internal/model"
)

type Request struct {
	UserUUID string `json:"user_uuid" validate:"required"`
	Color    string `json:"color" validate:"required,oneof=red black green"`
	Amount   string `json:"amount" validate:"required"`
}

type Response struct {
	response.Response
}

type UserFinder interface {
	FindUserByUUID(uuid string) (*model.User, error)
}

type BetPlacer interface {
	Place(user *model.User, color config.Color, amount int64) error
}

type Bet struct {
	log       *slog.Logger
	validator *validator.Validate
	users     UserFinder
	bets      BetPlacer
}

func NewBet(log *slog.Logger, users UserFinder, bets BetPlacer) *Bet {
	return &Bet{
		log:       log,
		validator: validator.New(),
		users:     users,
		bets:      bets,
	}
}

func (b *Bet) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.wheel.bet.New"

		log := b.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, response.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if err := b.validator.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, response.ValidationError(validateErr))

			return
		}

		amount, err := converter.MajorToMinor(req.Amount)
		if err != nil {
			log.Error("invalid amount", sl.Err(err))

			render.JSON(w, r, response.Error("invalid amount", http.StatusBadRequest))

			return
		}

		user, err := b.users.FindUserByUUID(req.UserUUID)
		if err != nil {
			log.Error("failed to find user", sl.Err(err))

			render.JSON(w, r, response.Error("failed to find user", http.StatusInternalServerError))

			return
		}

		if user == nil {
			render.JSON(w, r, response.Error("user not found", http.StatusNotFound))

			return
		}

		if err = b.bets.Place(user, config.Color(req.Color), amount); err != nil {
			var gerr *gameerr.Error
			if errors.As(err, &gerr) {
				render.JSON(w, r, response.GameError(gerr))

				return
			}

			log.Error("failed to place bet", sl.Err(err))

			render.JSON(w, r, response.Error("failed to place bet", http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, Response{Response: response.OK()})
	}
}
