package reveal

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
	Position *int   `json:"position" validate:"required,min=0,max=24"`
}

type Response struct {
	response.Response
	IsHazard   bool               `json:"is_hazard"`
	GameStatus string             `json:"game_status,omitempty"`
	Revealed   model.PositionList `json:"revealed,omitempty"`
	Hazards    model.PositionList `json:"hazards,omitempty"`
	Multiplier string             `json:"multiplier,omitempty"`
	Payout     string             `json:"payout,omitempty"`
}

type UserFinder interface {
	FindUserByUUID(uuid string) (*model.User, error)
}

type TileRevealer interface {
	Reveal(user *model.User, position int) (*mines.StepResult, error)
}

type Reveal struct {
	log       *slog.Logger
	validator *validator.Validate
	users     UserFinder
	game      TileRevealer
}

func NewReveal(log *slog.Logger, users UserFinder, game TileRevealer) *Reveal {
	return &Reveal{
		log:       log,
		validator: validator.New(),
		users:     users,
		game:      game,
	}
}

func (h *Reveal) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.mines.reveal.New"

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

		result, err := h.game.Reveal(user, *req.Position)
		if err != nil {
			var gerr *gameerr.Error
			if errors.As(err, &gerr) {
				render.JSON(w, r, response.GameError(gerr))

				return
			}

			log.Error("failed to reveal tile", sl.Err(err))

			render.JSON(w, r, response.Error("failed to reveal tile", http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, newStepResponse(result))
	}
}

func newStepResponse(result *mines.StepResult) Response {
	out := Response{
		Response:   response.OK(),
		IsHazard:   result.IsHazard,
		GameStatus: string(result.Status),
		Revealed:   result.Revealed,
		Hazards:    result.Hazards,
	}

	if !result.IsHazard {
		out.Multiplier = result.Multiplier.String()
	}

	if result.Status == model.SessionCashedOut {
		out.Payout = converter.MinorToMajor(result.Payout)
	}

	return out
}
