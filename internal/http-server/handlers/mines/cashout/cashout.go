package cashout

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"

	"go-gamehall/internal/game/mines"
	"go-gamehall/internal/lib/api/response"
	"go-gamehall/internal/lib/converter"
	"go-gamehall/internal/lib/gameerr"
	"go-gamehall/internal/lib/logger/sl"
	"go-gamehall/internal/model"
)

type Request struct {
	UserUUID string `json:"user_uuid" validate:"required"`
}

type Response struct {
	response.Response
	Revealed   model.PositionList `json:"revealed,omitempty"`
	Hazards    model.PositionList `json:"hazards,omitempty"`
	Multiplier string             `json:"multiplier,omitempty"`
	Payout     string             `json:"payout,omitempty"`
}

type UserFinder interface {
	FindUserByUUID(uuid string) (*model.User, error)
}

type SessionCasher interface {
	Cashout(user *model.User) (*mines.StepResult, error)
}

type Cashout struct {
	log       *slog.Logger
	validator *validator.Validate
	users     UserFinder
	game      SessionCasher
}

func NewCashout(log *slog.Logger, users UserFinder, game SessionCasher) *Cashout {
	return &Cashout{
		log:       log,
		validator: validator.New(),
		users:     users,
		game:      game,
	}
}

func (h *Cashout) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.mines.cashout.New"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, response.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if err := h.validator.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, response.ValidationError(validateErr))

			return
		}

		user, err := h.users.FindUserByUUID(req.UserUUID)
		if err != nil {
			log.Error("failed to find user", sl.Err(err))

			render.JSON(w, r, response.Error("failed to find user", http.StatusInternalServerError))

			return
		}

		if user == nil {
			render.JSON(w, r, response.Error("user not found", http.StatusNotFound))

			return
		}

		result, err := h.game.Cashout(user)
		if err != nil {
			var gerr *gameerr.Error
			if errors.As(err, &gerr) {
				render.JSON(w, r, response.GameError(gerr))

				return
			}

			log.Error("failed to cash out", sl.Err(err))

			render.JSON(w, r, response.Error("failed to cash out", http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, Response{
			Response:   response.OK(),
			Revealed:   result.Revealed,
			Hazards:    result.Hazards,
			Multiplier: result.Multiplier.String(),
			Payout:     converter.MinorToMajor(result.Payout),
		})
	}
}
